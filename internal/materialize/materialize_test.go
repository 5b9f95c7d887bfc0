package materialize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
)

type row struct {
	sensor string
	value  float64
}

func (r row) SensorRef() string { return r.sensor }

func TestMaterialize_EmbedsLocation(t *testing.T) {
	lat := -37.81
	idx := NewIndex([]pedestrian.SensorLocation{
		{SensorID: "1", Description: "Bourke Street Mall (North)", Latitude: &lat, Location: "(-37.81, 144.96)"},
		{SensorID: "2", Description: "Town Hall (West)"},
	})

	res := Materialize([]row{{"2", 5}, {"1", 9}}, idx)

	require.NoError(t, res.Err())
	require.Len(t, res.Records, 2)
	assert.Equal(t, "Town Hall (West)", res.Records[0].Location.Description)
	assert.Equal(t, 9.0, res.Records[1].Summary.value)
	assert.Equal(t, &lat, res.Records[1].Location.Latitude)
}

func TestMaterialize_DropsUnresolvedRows(t *testing.T) {
	idx := NewIndex([]pedestrian.SensorLocation{{SensorID: "1"}})

	res := Materialize([]row{{"1", 1}, {"99", 2}, {"99", 3}, {"42", 4}}, idx)

	assert.Len(t, res.Records, 1)
	assert.Equal(t, 3, res.Dropped)
	assert.Equal(t, []string{"42", "99"}, res.Unresolved)
	assert.True(t, errors.Is(res.Err(), pedestrian.ErrUnresolvedSensorReference))
}

func TestMaterialize_Empty(t *testing.T) {
	res := Materialize[row](nil, NewIndex(nil))

	assert.Empty(t, res.Records)
	assert.Zero(t, res.Dropped)
	assert.NoError(t, res.Err())
}
