package stats

import "time"

// TableReport summarizes one staged table
type TableReport struct {
	Name                   string   `json:"name"`
	Rows                   int      `json:"rows"`
	UnresolvedDropped      int      `json:"unresolved_dropped"`
	UnresolvedSensors      []string `json:"unresolved_sensors,omitempty"`
	UndefinedPercentDeltas int      `json:"undefined_percent_deltas,omitempty"`
}

// Leader is one of the top-N locations of a partition
type Leader struct {
	Partition      string  `json:"partition"`
	Rank           int     `json:"rank"`
	SensorID       string  `json:"sensor_id"`
	Description    string  `json:"sensor_description"`
	AvgHourlyCount float64 `json:"avg_hourly_count"`
}

// Report collects row counts and row-level defects of one run
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Locations           int `json:"locations"`
	Observations        int `json:"observations"`
	RejectedSourceRows  int `json:"rejected_source_rows"`
	MalformedTimestamps int `json:"malformed_timestamps"`

	Tables  []TableReport       `json:"tables"`
	Leaders map[string][]Leader `json:"leaders,omitempty"`
}

// Table returns the report of the named table
func (r *Report) Table(name string) (TableReport, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableReport{}, false
}

// DroppedRows is the total number of rows dropped for row-level defects
func (r *Report) DroppedRows() int {
	n := r.RejectedSourceRows + r.MalformedTimestamps
	for _, t := range r.Tables {
		n += t.UnresolvedDropped
	}
	return n
}
