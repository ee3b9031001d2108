package ais

import (
	"context"
	"errors"
	"log"
	"time"

	"ship-tracking-backend/internal/model"
	"ship-tracking-backend/internal/parse"
)

// BatchFetcher is the primary provider contract used by the Fetcher.
type BatchFetcher interface {
	Fetch(ctx context.Context, mmsis []string) (map[string]Report, error)
}

// SingleFetcher is the secondary (fallback) provider contract.
type SingleFetcher interface {
	Fetch(ctx context.Context, mmsi string) (Report, error)
}

// FetcherConfig holds the retry and fallback tunables.
type FetcherConfig struct {
	// MaxAttempts bounds primary-provider tries per batch.
	MaxAttempts int
	// RetryCooldown is the fixed wait between primary attempts, for both
	// rate-limit responses and other transient failures.
	RetryCooldown time.Duration
	// FallbackCooldown is the minimum spacing between secondary-provider
	// queries for one vessel.
	FallbackCooldown time.Duration
	// FallbackCooldownMatched shortens the spacing for vessels whose
	// reported destination already matches their assigned port, so vessels
	// close to arrival get fresher fallback data.
	FallbackCooldownMatched time.Duration
}

// Fetcher resolves a batch of vessels to fresh position reports, retrying
// the primary provider and falling back per-vessel to the secondary one.
type Fetcher struct {
	primary   BatchFetcher
	secondary SingleFetcher
	cfg       FetcherConfig

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

// NewFetcher creates a Fetcher with the given providers and tunables.
func NewFetcher(primary BatchFetcher, secondary SingleFetcher, cfg FetcherConfig) *Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Fetcher{
		primary:   primary,
		secondary: secondary,
		cfg:       cfg,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// ErrBatchFailed signals that every primary attempt was exhausted without a
// usable response. A total primary outage is assumed correlated across the
// batch, so no fallback is attempted and the caller should requeue it.
var ErrBatchFailed = errors.New("primary provider batch failed after all attempts")

// FetchBatch resolves positions for the given vessels. It returns the
// reports keyed by MMSI and the vessels left unresolved. A non-nil error
// means the whole batch failed and nothing was resolved.
func (f *Fetcher) FetchBatch(ctx context.Context, vessels []model.Vessel) (map[string]Report, []model.Vessel, error) {
	mmsis := make([]string, len(vessels))
	for i, v := range vessels {
		mmsis[i] = v.MMSI
	}

	reports, err := f.fetchPrimary(ctx, mmsis)
	if err != nil {
		return nil, vessels, ErrBatchFailed
	}

	var unresolved []model.Vessel
	for _, v := range vessels {
		if _, ok := reports[v.MMSI]; ok {
			continue
		}
		if !f.fallbackDue(&v) {
			log.Printf("[vessel %s] skipping fallback fetch, cooldown not elapsed", v.MMSI)
			unresolved = append(unresolved, v)
			continue
		}

		report, err := f.secondary.Fetch(ctx, v.MMSI)
		if err != nil {
			if errors.Is(err, ErrNoData) {
				log.Printf("[vessel %s] secondary provider has no data", v.MMSI)
			} else {
				log.Printf("[vessel %s] secondary fetch failed: %v", v.MMSI, err)
			}
			unresolved = append(unresolved, v)
			continue
		}
		report.MMSI = v.MMSI
		reports[v.MMSI] = report
	}

	return reports, unresolved, nil
}

// fetchPrimary runs the bounded retry loop against the primary provider.
// Rate-limit responses and transient failures both wait out the same fixed
// cooldown before the next attempt.
func (f *Fetcher) fetchPrimary(ctx context.Context, mmsis []string) (map[string]Report, error) {
	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		reports, err := f.primary.Fetch(ctx, mmsis)
		if err == nil {
			return reports, nil
		}
		lastErr = err

		if errors.Is(err, ErrRateLimited) {
			log.Printf("[primary] attempt %d/%d rate limited", attempt, f.cfg.MaxAttempts)
		} else {
			log.Printf("[primary] attempt %d/%d failed: %v", attempt, f.cfg.MaxAttempts, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < f.cfg.MaxAttempts {
			f.sleep(ctx, f.cfg.RetryCooldown)
		}
	}
	return nil, lastErr
}

// fallbackDue applies the cooldown gate for secondary-provider queries. The
// long interval applies by default; vessels whose recorded destination
// matches the assigned port use the short one. A vessel never queried falls
// back to its general lastUpdated timestamp, and one with no timestamps at
// all is always due.
func (f *Fetcher) fallbackDue(v *model.Vessel) bool {
	last := v.LastSecondaryUpdate
	if last == nil {
		last = v.LastUpdated
	}
	if last == nil {
		return true
	}

	cooldown := f.cfg.FallbackCooldown
	if parse.DestinationMatches(v.Destination, v.Port.Unlocode) {
		cooldown = f.cfg.FallbackCooldownMatched
	}
	return f.now().Sub(*last) > cooldown
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
