package aggregation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
	"github.com/smukkama/pedestrian-stats/internal/wrangle"
)

func enrich(t *testing.T, obs ...pedestrian.Observation) []pedestrian.EnrichedObservation {
	t.Helper()
	out, _, err := wrangle.Enrich(obs)
	require.NoError(t, err)
	return out
}

func obs(sensor, ts string, count int) pedestrian.Observation {
	return pedestrian.Observation{SensorID: sensor, DateTime: ts, Count: count}
}

func window(t *testing.T, name, spec string) pedestrian.Window {
	t.Helper()
	w, err := pedestrian.ParseWindow(name, spec)
	require.NoError(t, err)
	return w
}

func TestAggregate_ByDayThenRank(t *testing.T) {
	records := enrich(t,
		obs("S1", "2020-01-06T08:00:00", 50),
		obs("S1", "2020-01-06T09:00:00", 70),
		obs("S2", "2020-01-06T08:00:00", 30),
	)

	agg, err := Aggregate(records, []Dimension{SensorID, DayName}, HourlyCount, nil)
	require.NoError(t, err)
	require.Len(t, agg, 2)

	assert.Equal(t, "S1", agg[0].SensorRef())
	assert.Equal(t, "Monday", agg[0].Value(DayName))
	assert.Equal(t, 60.0, agg[0].AvgHourlyCount)
	assert.Equal(t, 2, agg[0].ObservationCount)
	assert.Equal(t, "S2", agg[1].SensorRef())
	assert.Equal(t, 30.0, agg[1].AvgHourlyCount)

	ranked, err := Rank(agg, []Dimension{DayName}, ByAvgHourlyCount, Descending)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "S1", ranked[0].SensorRef())
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "S2", ranked[1].SensorRef())
	assert.Equal(t, 2, ranked[1].Rank)
}

func TestAggregate_MeanOverFilteredPartitionOnly(t *testing.T) {
	records := enrich(t,
		obs("1", "2020-03-30T10:00:00", 100),
		obs("1", "2020-03-31T10:00:00", 5),
		obs("1", "2020-03-29T10:00:00", 300),
		obs("2", "2020-04-02T10:00:00", 7),
	)
	precovid := window(t, "precovid", "..20200331")

	agg, err := Aggregate(records, []Dimension{SensorID}, HourlyCount, precovid)
	require.NoError(t, err)

	// sensor 2 has no precovid observations and must not appear as a zero row
	require.Len(t, agg, 1)
	assert.Equal(t, "1", agg[0].SensorRef())
	assert.Equal(t, 200.0, agg[0].AvgHourlyCount)
	assert.Equal(t, 2, agg[0].ObservationCount)
}

func TestAggregate_ByMonthUsesSamePrimitive(t *testing.T) {
	records := enrich(t,
		obs("1", "2020-02-03T10:00:00", 10),
		obs("1", "2021-02-08T10:00:00", 20),
		obs("1", "2020-01-06T10:00:00", 40),
	)

	agg, err := Aggregate(records, []Dimension{Month, SensorID}, HourlyCount, nil)
	require.NoError(t, err)
	require.Len(t, agg, 2)

	// calendar order, months pooled across years
	assert.Equal(t, "January", agg[0].Value(Month))
	assert.Equal(t, 40.0, agg[0].AvgHourlyCount)
	assert.Equal(t, "February", agg[1].Value(Month))
	assert.Equal(t, 15.0, agg[1].AvgHourlyCount)
}

func TestAggregate_InvalidDimensions(t *testing.T) {
	_, err := Aggregate(nil, nil, HourlyCount, nil)
	assert.Error(t, err)

	_, err = Aggregate(nil, []Dimension{"suburb"}, HourlyCount, nil)
	assert.Error(t, err)

	_, err = Aggregate(nil, []Dimension{SensorID, SensorID}, HourlyCount, nil)
	assert.Error(t, err)

	_, err = Aggregate(nil, []Dimension{SensorID}, nil, nil)
	assert.Error(t, err)
}

func aggregates(day string, values map[string]float64) []AggregateRecord {
	var out []AggregateRecord
	for sensor, v := range values {
		out = append(out, AggregateRecord{
			Dimensions:     []Dimension{DayName, SensorID},
			Key:            []string{day, sensor},
			AvgHourlyCount: v,
		})
	}
	return out
}

func TestRank_DenseWithSensorTieBreak(t *testing.T) {
	records := aggregates("Monday", map[string]float64{"B": 10, "C": 7, "A": 10})

	ranked, err := Rank(records, []Dimension{DayName}, ByAvgHourlyCount, Descending)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	got := map[string]int{}
	var order []string
	for _, r := range ranked {
		got[r.SensorRef()] = r.Rank
		order = append(order, r.SensorRef())
	}
	assert.Equal(t, map[string]int{"A": 1, "B": 1, "C": 2}, got)
	assert.Equal(t, []string{"A", "B", "C"}, order)
}

func TestRank_NumericSensorTieBreak(t *testing.T) {
	records := aggregates("Monday", map[string]float64{"10": 5, "9": 5})

	ranked, err := Rank(records, []Dimension{DayName}, ByAvgHourlyCount, Descending)
	require.NoError(t, err)
	assert.Equal(t, "9", ranked[0].SensorRef())
	assert.Equal(t, "10", ranked[1].SensorRef())
	assert.Equal(t, 1, ranked[1].Rank)
}

func TestRank_IndependentPartitions(t *testing.T) {
	records := append(
		aggregates("Tuesday", map[string]float64{"1": 3, "2": 9}),
		aggregates("Monday", map[string]float64{"1": 8, "2": 4, "3": 1})...,
	)

	ranked, err := Rank(records, []Dimension{DayName}, ByAvgHourlyCount, Descending)
	require.NoError(t, err)
	require.Len(t, ranked, 5)

	type row struct {
		day    string
		sensor string
		rank   int
	}
	var got []row
	for _, r := range ranked {
		got = append(got, row{r.Value(DayName), r.SensorRef(), r.Rank})
	}
	assert.Equal(t, []row{
		{"Monday", "1", 1},
		{"Monday", "2", 2},
		{"Monday", "3", 3},
		{"Tuesday", "2", 1},
		{"Tuesday", "1", 2},
	}, got)
}

func TestRank_Ascending(t *testing.T) {
	records := aggregates("Monday", map[string]float64{"1": 3, "2": 9, "3": 3})

	ranked, err := Rank(records, []Dimension{DayName}, ByAvgHourlyCount, Ascending)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})
	assert.Equal(t, "2", ranked[2].SensorRef())
}

func TestRank_PartitionMustBeGroupingDimension(t *testing.T) {
	records := aggregates("Monday", map[string]float64{"1": 3})

	_, err := Rank(records, []Dimension{Month}, ByAvgHourlyCount, Descending)
	assert.Error(t, err)

	ranked, err := Rank(nil, []Dimension{Month}, ByAvgHourlyCount, Descending)
	assert.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestTopN(t *testing.T) {
	ranked := []RankedRecord{{Rank: 1}, {Rank: 1}, {Rank: 2}, {Rank: 3}}

	assert.Len(t, TopN(ranked, 2), 3)
	assert.Len(t, TopN(ranked, 0), 4)
}

func TestComparePeriods(t *testing.T) {
	records := enrich(t,
		// sensor 1: precovid avg 100, lockdown avg 60
		obs("1", "2020-01-06T08:00:00", 80),
		obs("1", "2020-01-06T09:00:00", 120),
		obs("1", "2020-04-06T08:00:00", 60),
		// sensor 2: precovid avg 0
		obs("2", "2020-01-06T08:00:00", 0),
		obs("2", "2020-04-06T08:00:00", 15),
		// sensor 3: lockdown only
		obs("3", "2020-04-06T08:00:00", 15),
	)
	precovid := window(t, "precovid", "..20200331")
	lockdown := window(t, "lockdown", "20200331..20200513,20200709..20201028")

	cmp, err := ComparePeriods(records, SensorID, precovid, lockdown)
	require.NoError(t, err)
	require.Len(t, cmp, 2)

	assert.Equal(t, "1", cmp[0].SensorRef())
	assert.Equal(t, 100.0, cmp[0].AvgA)
	assert.Equal(t, 60.0, cmp[0].AvgB)
	assert.Equal(t, -40.0, cmp[0].AbsoluteDelta)
	assert.InDelta(t, -40.0, cmp[0].PercentDelta, 1e-9)
	assert.True(t, cmp[0].PercentDefined())
	assert.Equal(t, "precovid", cmp[0].WindowA)
	assert.Equal(t, "lockdown", cmp[0].WindowB)

	assert.Equal(t, "2", cmp[1].SensorRef())
	assert.Equal(t, 15.0, cmp[1].AbsoluteDelta)
	assert.False(t, cmp[1].PercentDefined())
	assert.True(t, math.IsNaN(cmp[1].PercentDelta))
}

func TestSelectExtremal(t *testing.T) {
	records := []ComparisonRecord{
		{PartitionKey: SensorID, Key: "X", AbsoluteDelta: -40},
		{PartitionKey: SensorID, Key: "Y", AbsoluteDelta: -5},
		{PartitionKey: SensorID, Key: "Z", AbsoluteDelta: 10},
	}

	decline, ok := SelectExtremal(records, Decline)
	require.True(t, ok)
	assert.Equal(t, "X", decline.Key)

	growth, ok := SelectExtremal(records, Growth)
	require.True(t, ok)
	assert.Equal(t, "Z", growth.Key)

	_, ok = SelectExtremal(nil, Growth)
	assert.False(t, ok)
}

func TestSelectExtremal_TieGoesToLowestKey(t *testing.T) {
	records := []ComparisonRecord{
		{PartitionKey: SensorID, Key: "12", AbsoluteDelta: 10},
		{PartitionKey: SensorID, Key: "3", AbsoluteDelta: 10},
	}

	growth, _ := SelectExtremal(records, Growth)
	assert.Equal(t, "3", growth.Key)
}

func TestSortByTrend(t *testing.T) {
	records := []ComparisonRecord{
		{PartitionKey: SensorID, Key: "1", AbsoluteDelta: -5},
		{PartitionKey: SensorID, Key: "2", AbsoluteDelta: 10},
		{PartitionKey: SensorID, Key: "3", AbsoluteDelta: -40},
	}

	keys := func(rs []ComparisonRecord) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.Key)
		}
		return out
	}

	assert.Equal(t, []string{"3", "1", "2"}, keys(SortByTrend(records, Decline)))
	assert.Equal(t, []string{"2", "1", "3"}, keys(SortByTrend(records, Growth)))
	// input untouched
	assert.Equal(t, []string{"1", "2", "3"}, keys(records))
}

func TestProfile(t *testing.T) {
	records := enrich(t,
		obs("1", "2020-01-06T08:00:00", 10), // Monday
		obs("1", "2020-01-13T08:00:00", 30), // Monday
		obs("1", "2020-01-11T08:00:00", 5),  // Saturday
		obs("1", "2020-01-12T08:00:00", 7),  // Sunday
		obs("1", "2020-01-06T17:00:00", 90), // Monday
	)

	peak, err := Profile(records, PeakHourKeys)
	require.NoError(t, err)
	require.Len(t, peak, 4)
	assert.Equal(t, []string{"1", "Monday", "8"}, peak[0].Key)
	assert.Equal(t, 20.0, peak[0].AvgHourlyCount)
	assert.Equal(t, []string{"1", "Monday", "17"}, peak[1].Key)
	assert.Equal(t, []string{"1", "Saturday", "8"}, peak[2].Key)
	assert.Equal(t, []string{"1", "Sunday", "8"}, peak[3].Key)

	split, err := Profile(records, WeekdayWeekendKeys)
	require.NoError(t, err)
	require.Len(t, split, 3)
	assert.Equal(t, []string{"1", "weekday", "8"}, split[0].Key)
	assert.Equal(t, 20.0, split[0].AvgHourlyCount)
	assert.Equal(t, []string{"1", "weekday", "17"}, split[1].Key)
	assert.Equal(t, []string{"1", "weekend", "8"}, split[2].Key)
	assert.Equal(t, 6.0, split[2].AvgHourlyCount)
}
