package protocol

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/smukkama/pedestrian-stats/internal/stats"
)

// Event types published while staging
const (
	EventTableStaged  = "TABLE_STAGED"
	EventRunCompleted = "RUN_COMPLETED"
	EventRunFailed    = "RUN_FAILED"
)

// Event is the message format for staging events. Table is set for
// TABLE_STAGED, Report for RUN_COMPLETED and Error for RUN_FAILED.
type Event struct {
	Type       string        `json:"type"`
	RunID      string        `json:"run_id"`
	OccurredAt time.Time     `json:"occurred_at"`
	Table      *TableStaged  `json:"table,omitempty"`
	Report     *stats.Report `json:"report,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// TableStaged describes a table written to the staging store
type TableStaged struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
	Mode string `json:"mode"`
}

// NewTableStaged creates a TABLE_STAGED event
func NewTableStaged(runID, table string, rows int, mode string) *Event {
	return &Event{
		Type:       EventTableStaged,
		RunID:      runID,
		OccurredAt: time.Now().UTC(),
		Table:      &TableStaged{Name: table, Rows: rows, Mode: mode},
	}
}

// NewRunCompleted creates a RUN_COMPLETED event
func NewRunCompleted(report *stats.Report) *Event {
	return &Event{
		Type:       EventRunCompleted,
		RunID:      report.RunID,
		OccurredAt: time.Now().UTC(),
		Report:     report,
	}
}

// NewRunFailed creates a RUN_FAILED event
func NewRunFailed(runID string, cause error) *Event {
	return &Event{
		Type:       EventRunFailed,
		RunID:      runID,
		OccurredAt: time.Now().UTC(),
		Error:      cause.Error(),
	}
}

// EncodeEvent encodes an Event to JSON
func EncodeEvent(e *Event) ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent decodes JSON to Event
func DecodeEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case EventTableStaged, EventRunCompleted, EventRunFailed:
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return &e, nil
}
