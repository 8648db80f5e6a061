// Package currency keeps the exchange rate applied to US-market positions.
package currency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/avgdown/internal/clients/exchangerate"
	"github.com/aristath/avgdown/internal/metrics"
	"github.com/rs/zerolog"
)

// SourceDefault marks a snapshot that still carries the configured fallback rate.
const SourceDefault = "default"

// RateFetcher fetches a live quote. *exchangerate.Client satisfies it.
type RateFetcher interface {
	GetRate(ctx context.Context, from, to string) (exchangerate.Quote, error)
}

// RateSnapshot is the rate in effect at a point in time.
type RateSnapshot struct {
	Base      string    `json:"base"`
	Quote     string    `json:"quote"`
	Rate      float64   `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
	FetchedAt time.Time `json:"fetched_at"`
	Source    string    `json:"source"`
	Stale     bool      `json:"stale"`
	LastError string    `json:"last_error,omitempty"`
}

// RateProvider holds the most recently fetched rate. Reads never block on the
// network; Refresh replaces the value only when a fetch succeeds.
type RateProvider struct {
	fetcher RateFetcher
	log     zerolog.Logger

	mu       sync.RWMutex
	snapshot RateSnapshot
}

// NewRateProvider creates a provider that reports defaultRate until the first
// successful refresh. A non-positive defaultRate is replaced by 1.0.
func NewRateProvider(fetcher RateFetcher, base, quote string, defaultRate float64, log zerolog.Logger) *RateProvider {
	if defaultRate <= 0 {
		defaultRate = 1.0
	}
	metrics.SetExchangeRate(defaultRate)
	return &RateProvider{
		fetcher: fetcher,
		log:     log.With().Str("component", "rate_provider").Logger(),
		snapshot: RateSnapshot{
			Base:   base,
			Quote:  quote,
			Rate:   defaultRate,
			Source: SourceDefault,
		},
	}
}

// Rate returns the current multiplier.
func (p *RateProvider) Rate() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot.Rate
}

// Snapshot returns a copy of the current state.
func (p *RateProvider) Snapshot() RateSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Refresh fetches a new rate. On failure the previous rate stays in effect and the
// error is returned for the caller to log.
func (p *RateProvider) Refresh(ctx context.Context) (RateSnapshot, error) {
	p.mu.RLock()
	base, quote := p.snapshot.Base, p.snapshot.Quote
	p.mu.RUnlock()

	q, err := p.fetcher.GetRate(ctx, base, quote)
	if err == nil && q.Rate <= 0 {
		err = fmt.Errorf("non-positive rate %v", q.Rate)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		metrics.RateRefreshFailed()
		p.snapshot.LastError = err.Error()
		p.log.Warn().
			Err(err).
			Float64("rate", p.snapshot.Rate).
			Msg("Rate refresh failed, keeping previous rate")
		return p.snapshot, fmt.Errorf("failed to refresh %s/%s rate: %w", base, quote, err)
	}

	p.snapshot = RateSnapshot{
		Base:      base,
		Quote:     quote,
		Rate:      q.Rate,
		UpdatedAt: q.UpdatedAt,
		FetchedAt: time.Now().UTC(),
		Source:    q.Source,
		Stale:     q.Stale(),
	}
	metrics.SetExchangeRate(q.Rate)

	p.log.Debug().
		Float64("rate", q.Rate).
		Str("source", q.Source).
		Msg("Rate refreshed")

	return p.snapshot, nil
}

// Convert multiplies amount by the current rate.
func (p *RateProvider) Convert(amount float64) (float64, RateSnapshot) {
	snap := p.Snapshot()
	return amount * snap.Rate, snap
}
