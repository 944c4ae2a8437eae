// Package batch implements bulk processing of hospital CSV uploads.
//
// A batch run validates each row, creates valid rows against the
// hospital-directory API under a bounded concurrency limit, always attempts
// a single batch activation, and produces one outcome per input row in
// input order. This package has no HTTP-handler dependencies and can be
// driven by any frontend.
package batch

import "math"

// Row is one parsed CSV data row.
// Fields maps normalized (lowercased, trimmed) column names to cell values.
type Row struct {
	Line   int
	Fields map[string]string
}

// RowStatus describes the outcome of processing a single row.
type RowStatus string

const (
	// StatusCreated means the directory accepted the record but the batch
	// was not (or not yet) activated.
	StatusCreated RowStatus = "created"

	// StatusCreatedActivated means the record was created and the batch
	// activation call succeeded.
	StatusCreatedActivated RowStatus = "created_and_activated"

	// StatusValidationFailed means the row never left this service.
	StatusValidationFailed RowStatus = "validation_failed"

	// StatusCreateFailed means the directory rejected the record or all
	// retry attempts were exhausted.
	StatusCreateFailed RowStatus = "create_failed"
)

// RowOutcome is the per-row result. Exactly one exists for every input row,
// and the sequence always matches input order.
type RowOutcome struct {
	Row        int       `json:"row"`
	Name       string    `json:"name,omitempty"`
	HospitalID *int64    `json:"hospital_id,omitempty"`
	Status     RowStatus `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
}

// Summary holds aggregate counts over the row outcomes.
type Summary struct {
	Total            int `json:"total"`
	Created          int `json:"created"`
	ValidationFailed int `json:"validation_failed"`
	CreateFailed     int `json:"create_failed"`
}

// Activation records the result of the single batch-activation attempt.
type Activation struct {
	Activated bool   `json:"activated"`
	Reason    string `json:"reason,omitempty"`
}

// Result is the immutable outcome of one batch run.
type Result struct {
	BatchID           string       `json:"batch_id"`
	Summary           Summary      `json:"summary"`
	Activation        Activation   `json:"activation"`
	ProcessingSeconds float64      `json:"processing_time_seconds"`
	Rows              []RowOutcome `json:"hospitals"`
}

// summarize computes aggregate counts from an ordered outcome sequence.
func summarize(rows []RowOutcome) Summary {
	s := Summary{Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case StatusCreated, StatusCreatedActivated:
			s.Created++
		case StatusValidationFailed:
			s.ValidationFailed++
		case StatusCreateFailed:
			s.CreateFailed++
		}
	}
	return s
}

// roundSeconds truncates elapsed seconds to millisecond precision for the
// response payload.
func roundSeconds(s float64) float64 {
	return math.Round(s*1000) / 1000
}
