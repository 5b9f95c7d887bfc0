package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/pedestrian-stats/internal/stats"
)

func TestRunCompletedCarriesReport(t *testing.T) {
	report := &stats.Report{
		RunID:              "run-1",
		StartedAt:          time.Date(2022, 3, 1, 2, 0, 0, 0, time.UTC),
		FinishedAt:         time.Date(2022, 3, 1, 2, 5, 0, 0, time.UTC),
		Observations:       10,
		RejectedSourceRows: 2,
		Tables: []stats.TableReport{
			{Name: stats.TableTopNByDay, Rows: 4, UnresolvedDropped: 1, UnresolvedSensors: []string{"3"}},
		},
	}

	data, err := EncodeEvent(NewRunCompleted(report))
	require.NoError(t, err)

	got, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, EventRunCompleted, got.Type)
	assert.Equal(t, "run-1", got.RunID)
	require.NotNil(t, got.Report)
	assert.Equal(t, report.Tables, got.Report.Tables)
	assert.Equal(t, 3, got.Report.DroppedRows())
	assert.Nil(t, got.Table)
}

func TestTableStagedWireFormat(t *testing.T) {
	data, err := EncodeEvent(NewTableStaged("run-2", "SENSOR", 66, "replace"))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "TABLE_STAGED", raw["type"])
	assert.Equal(t, map[string]any{"name": "SENSOR", "rows": float64(66), "mode": "replace"}, raw["table"])
	assert.NotContains(t, raw, "report")
	assert.NotContains(t, raw, "error")
}

func TestRunFailed(t *testing.T) {
	e := NewRunFailed("run-3", errors.New("source unavailable"))
	assert.Equal(t, EventRunFailed, e.Type)
	assert.Equal(t, "source unavailable", e.Error)
}

func TestDecodeEvent_Invalid(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":"ALARM_TRIGGERED"}`))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`not json`))
	assert.Error(t, err)
}
