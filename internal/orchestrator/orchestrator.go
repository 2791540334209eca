// Package orchestrator drives fetches across the provider table: one
// provider on demand, the whole set fanned out under a concurrency bound,
// or a polling loop for watch mode.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/quotabar/internal/provider"
	"github.com/user/quotabar/internal/strategy"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultMaxConcurrent = 4
)

// Options tune the fetch loop. Zero values fall back to defaults.
type Options struct {
	// Timeout bounds one provider's whole fetch, strategies included.
	Timeout time.Duration
	// MaxConcurrent bounds the fan-out in FetchAll.
	MaxConcurrent int
	// StaleAfter flags records captured longer ago than this.
	StaleAfter time.Duration
	Log        *slog.Logger
}

type Orchestrator struct {
	reg  *provider.Registry
	deps strategy.Deps
	opts Options
}

func New(reg *provider.Registry, deps strategy.Deps, opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Orchestrator{reg: reg, deps: deps, opts: opts}
}

// FetchOne runs the full pipeline for a single provider: strategy chain,
// transport, parse, validate. The result is always classified, never a
// bare error.
func (o *Orchestrator) FetchOne(ctx context.Context, id provider.ProviderID) provider.FetchResult {
	desc, ok := o.reg.Lookup(id)
	if !ok {
		return provider.Failure(id, provider.Errorf(provider.ResultPermanent,
			"unknown provider %q", id))
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	start := time.Now()
	raw, via, attempts, err := strategy.Run(ctx, desc, o.deps)
	if err != nil {
		o.opts.Log.Debug("fetch failed",
			"provider", id, "kind", provider.KindOf(err), "error", err)
		res := provider.Failure(id, err)
		res.Attempts = attempts
		return res
	}

	rec, err := desc.Parser(raw)
	if err != nil {
		res := provider.Failure(id, err)
		res.Strategy = via
		res.Attempts = attempts
		return res
	}
	rec.MarkStale(time.Now(), o.opts.StaleAfter)

	o.opts.Log.Debug("fetch succeeded",
		"provider", id, "strategy", via, "elapsed", time.Since(start))
	res := provider.Success(id, rec, via)
	res.Attempts = attempts
	return res
}

// FetchAll fans FetchOne out over ids (or the whole table when ids is
// empty) with a bounded worker count. Every provider gets a result; one
// provider's failure never cancels or blocks its siblings.
func (o *Orchestrator) FetchAll(ctx context.Context, ids []provider.ProviderID) map[provider.ProviderID]provider.FetchResult {
	if len(ids) == 0 {
		for _, desc := range o.reg.All() {
			ids = append(ids, desc.ID)
		}
	}

	var mu sync.Mutex
	results := make(map[provider.ProviderID]provider.FetchResult, len(ids))

	g := new(errgroup.Group)
	g.SetLimit(o.opts.MaxConcurrent)
	for _, id := range ids {
		g.Go(func() error {
			res := o.FetchOne(ctx, id)
			mu.Lock()
			results[id] = res
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return results
}

// Snapshot is one completed watch cycle.
type Snapshot struct {
	TakenAt time.Time
	Results map[provider.ProviderID]provider.FetchResult
}

// Watch polls FetchAll on interval until ctx is cancelled. Cycles never
// overlap: the next tick is not consumed while a cycle runs, so a slow
// cycle delays the next one rather than stacking. The first cycle runs
// immediately.
func (o *Orchestrator) Watch(ctx context.Context, interval time.Duration, ids []provider.ProviderID, onSnapshot func(Snapshot)) error {
	cycle := func() {
		results := o.FetchAll(ctx, ids)
		onSnapshot(Snapshot{TakenAt: time.Now(), Results: results})
	}

	cycle()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cycle()
		}
	}
}
