package analyze

import "time"

type Request struct {
	RefuelData   string `json:"refuel_data"`
	ScheduleData string `json:"schedule_data"`

	SlackMinutes  int   `json:"slack_minutes,omitempty"`
	JumpThreshold int64 `json:"jump_threshold,omitempty"`

	IgnoreAV7s     string `json:"ignore_av7s,omitempty"`
	IgnoreFlights  string `json:"ignore_flights,omitempty"`
	IgnorePrefixes string `json:"ignore_prefixes,omitempty"`
}

type Prediction struct {
	MissingAV7       int64  `json:"missing_av7"`
	WindowLogic      string `json:"window_logic"`
	WindowStart      string `json:"window_start"`
	WindowEnd        string `json:"window_end"`
	PotentialFlights string `json:"potential_flights"`
}

type Result struct {
	RunID       string       `json:"run_id"`
	Predictions []Prediction `json:"predictions"`

	RowsRead       int `json:"rows_read"`
	RowsValid      int `json:"rows_valid"`
	GapsFound      int `json:"gaps_found"`
	SeriesJumps    int `json:"series_jumps"`
	WindowsSkipped int `json:"windows_skipped"`

	CompletedAt time.Time `json:"completed_at"`
}

type Stage string

const (
	StageParsing  Stage = "parsing"
	StageScanning Stage = "scanning"
	StageDone     Stage = "done"
)

type Progress struct {
	RunID        string `json:"run_id"`
	Stage        Stage  `json:"stage"`
	PairsScanned int    `json:"pairs_scanned"`
	TotalPairs   int    `json:"total_pairs"`
	Predictions  int    `json:"predictions"`
}

type HealthRequest struct{}

type HealthResponse struct {
	Status string `json:"status"`
}
