// Package location provides best-effort coordinate enrichment. The device
// positioning service is an external collaborator behind the Provider
// interface; every failure mode degrades to null coordinates.
package location

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Coordinates is a best-effort position. Nil Lat/Lng marshal as JSON null,
// which the remote API accepts.
type Coordinates struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Provider resolves the current device position. Implementations may block
// on platform I/O; callers bound them with a context deadline.
type Provider interface {
	Coordinates(ctx context.Context) (Coordinates, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (Coordinates, error)

func (f ProviderFunc) Coordinates(ctx context.Context) (Coordinates, error) {
	return f(ctx)
}

// NullProvider always reports an unknown position. Used when no positioning
// source is configured.
type NullProvider struct{}

func (NullProvider) Coordinates(context.Context) (Coordinates, error) {
	return Coordinates{}, nil
}

// FixedProvider reports a configured static position.
type FixedProvider struct {
	Pos Coordinates
}

func (p FixedProvider) Coordinates(context.Context) (Coordinates, error) {
	return p.Pos, nil
}

// Enricher wraps a Provider with an unattended-tier deadline. The deadline
// is shorter than any user-initiated location request: precision is traded
// for never stalling ingestion.
type Enricher struct {
	provider Provider
	timeout  time.Duration
	logger   *zap.Logger
}

// NewEnricher creates an Enricher. A zero timeout defaults to 3s.
func NewEnricher(p Provider, timeout time.Duration, logger *zap.Logger) *Enricher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Enricher{provider: p, timeout: timeout, logger: logger}
}

// BestEffort returns the current coordinates or null coordinates. It never
// returns an error: permission denial, provider timeout, and platform
// failures all degrade to the unknown position.
func (e *Enricher) BestEffort(ctx context.Context) Coordinates {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		pos Coordinates
		err error
	}
	ch := make(chan result, 1)
	go func() {
		pos, err := e.provider.Coordinates(ctx)
		ch <- result{pos, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			e.logger.Warn("location lookup failed", zap.Error(r.err))
			return Coordinates{}
		}
		return r.pos
	case <-ctx.Done():
		// A hung provider must not stall classification; abandon it.
		e.logger.Warn("location lookup timed out", zap.Duration("timeout", e.timeout))
		return Coordinates{}
	}
}
