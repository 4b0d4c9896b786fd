package model

import (
	"time"

	"telegram-tiktok-checker/internal/domain"

	"github.com/oklog/ulid/v2"
)

// BulkReport aggregates the verdicts of one uploaded username list.
type BulkReport struct {
	ID          string
	RequestedBy int64
	Results     []CheckResult
	Total       int
	Available   int
	Taken       int
	Unavailable int
	Errors      int
	Duration    time.Duration
	CreatedAt   time.Time
}

func NewBulkReport(id string, requestedBy int64, results []CheckResult, took time.Duration) (*BulkReport, error) {
	if len(results) == 0 {
		return nil, domain.ErrBulkEmpty
	}
	if id == "" {
		id = ulid.Make().String()
	}
	r := &BulkReport{
		ID:          id,
		RequestedBy: requestedBy,
		Results:     results,
		Total:       len(results),
		Duration:    took,
		CreatedAt:   time.Now(),
	}
	for i := range results {
		switch results[i].Status {
		case StatusAvailable:
			r.Available++
		case StatusTaken:
			r.Taken++
		case StatusUnavailable:
			r.Unavailable++
		default:
			r.Errors++
		}
	}
	return r, nil
}

// ByStatus returns the results holding the given verdict, in check order.
func (r *BulkReport) ByStatus(s UsernameStatus) []CheckResult {
	out := make([]CheckResult, 0, r.Total)
	for i := range r.Results {
		if r.Results[i].Status == s {
			out = append(out, r.Results[i])
		}
	}
	return out
}
