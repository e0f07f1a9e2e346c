package service

// ImportStatus is the outcome of an import run.
type ImportStatus string

// Import outcomes. Callers map StatusError to a server fault.
const (
	StatusOK      ImportStatus = "ok"
	StatusSkipped ImportStatus = "skipped"
	StatusError   ImportStatus = "error"
)

// Reasons reported with StatusSkipped.
const (
	ReasonAlreadyImported = "already_imported_today"
	ReasonLocked          = "locked"
)

// ImportSummary reports what an import did. Skipped counts rows that already existed.
type ImportSummary struct {
	Status         ImportStatus `json:"status" example:"ok"`
	Reason         string       `json:"reason,omitempty" example:"already_imported_today"`
	Message        string       `json:"message,omitempty"`
	Table          string       `json:"table" example:"A"`
	Inserted       int          `json:"inserted" example:"32"`
	Skipped        int          `json:"skipped" example:"0"`
	Errors         int          `json:"errors" example:"0"`
	Pruned         int64        `json:"pruned" example:"32"`
	EffectiveDates []string     `json:"effective_dates" example:"2025-11-05"`
	DurationMs     int64        `json:"duration_ms" example:"412"`
}

func newSummary(table string) *ImportSummary {
	return &ImportSummary{Status: StatusOK, Table: table, EffectiveDates: []string{}}
}

func skippedSummary(table, reason string, dates ...string) *ImportSummary {
	s := newSummary(table)
	s.Status = StatusSkipped
	s.Reason = reason
	if len(dates) > 0 {
		s.EffectiveDates = dates
	}
	return s
}

// errorSummary follows the failed-run shape: counters zeroed, one error.
func errorSummary(table string, err error) *ImportSummary {
	s := newSummary(table)
	s.Status = StatusError
	s.Message = err.Error()
	s.Errors = 1
	return s
}
