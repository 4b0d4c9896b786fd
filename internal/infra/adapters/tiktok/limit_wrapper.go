package tiktok

import (
	"context"

	"telegram-tiktok-checker/internal/domain/model"
	"telegram-tiktok-checker/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.AvailabilityProber = (*limitedProber)(nil)

// limitedProber caps the number of concurrent outbound probes.
type limitedProber struct {
	inner adapter.AvailabilityProber
	sem   chan struct{}
}

func NewLimitedProber(inner adapter.AvailabilityProber, maxConcurrent int) adapter.AvailabilityProber {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedProber{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedProber) Check(ctx context.Context, username string) (*model.CheckResult, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Check(ctx, username)
}
