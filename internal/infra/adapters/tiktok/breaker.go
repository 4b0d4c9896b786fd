package tiktok

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"telegram-tiktok-checker/internal/domain/model"
	"telegram-tiktok-checker/internal/domain/ports/adapter"
	"telegram-tiktok-checker/internal/infra/metrics"
)

var _ adapter.AvailabilityProber = (*breakerProber)(nil)

// breakerProber trips open after sustained probe failures so a throttling
// TikTok is left alone until the cool-down passes.
type breakerProber struct {
	inner adapter.AvailabilityProber
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerProber(inner adapter.AvailabilityProber, logger *zerolog.Logger) adapter.AvailabilityProber {
	st := gobreaker.Settings{
		Name:        "tiktok-probe",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
			metrics.SetBreakerState(int(to))
		},
	}
	return &breakerProber{inner: inner, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *breakerProber) Check(ctx context.Context, username string) (*model.CheckResult, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Check(ctx, username)
	})
	if err != nil {
		return nil, err
	}
	return out.(*model.CheckResult), nil
}
