package adapter

import (
	"context"

	"telegram-tiktok-checker/internal/domain/model"
)

// AvailabilityProber is the port for asking TikTok whether a handle exists.
//
// Check expects a canonical username. A definitive verdict (available, taken,
// unavailable) comes back with a nil error. A non-nil error means the probe
// could not produce a verdict: transport failure after retries, upstream
// throttling, or an open circuit breaker. Callers translate those into
// StatusError results.
type AvailabilityProber interface {
	Check(ctx context.Context, username string) (*model.CheckResult, error)
}
