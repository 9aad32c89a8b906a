// Package fetch orchestrates one extraction end to end: admission,
// cache lookup, slot checkout, pipeline run, bounded retries, and
// outcome reporting.
package fetch

import (
	"context"
	"log/slog"
	"time"

	"github.com/loadwire/loadwire/browser"
	"github.com/loadwire/loadwire/cache"
	"github.com/loadwire/loadwire/config"
	"github.com/loadwire/loadwire/guard"
	"github.com/loadwire/loadwire/models"
)

// SlotPool is the browser pool surface the orchestrator needs.
type SlotPool interface {
	Checkout(ctx context.Context) (*browser.Session, error)
	Return(sess *browser.Session, outcome error)
	Stats() models.PoolStats
}

// Extractor runs the rendering pipeline on a checked-out session.
type Extractor interface {
	Extract(ctx context.Context, sess *browser.Session, req *models.ExtractionRequest) (*models.LoadResponse, error)
}

// Admission decides whether a dispatch may proceed and learns from its
// outcome.
type Admission interface {
	Authorize(rawURL string) error
	RecordOutcome(domain string, success bool)
	CheckDomainSpread(urls []string) error
}

// ResponseCache stores finished extractions for reuse.
type ResponseCache interface {
	Get(key string, tolerance time.Duration) (*models.LoadResponse, bool)
	Put(key string, resp *models.LoadResponse, ttl time.Duration)
}

// Fetcher coordinates the guard, cache, pool, and pipeline for each
// request. One instance serves all requests concurrently.
type Fetcher struct {
	guard    Admission
	cache    ResponseCache
	pool     SlotPool
	pipeline Extractor
	cfg      config.FetchConfig
	cacheTTL time.Duration

	sleep func(time.Duration) // injectable for tests
}

// New creates a Fetcher.
func New(g Admission, c ResponseCache, p SlotPool, pl Extractor, cfg config.FetchConfig, cacheTTL time.Duration) *Fetcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Fetcher{
		guard:    g,
		cache:    c,
		pool:     p,
		pipeline: pl,
		cfg:      cfg,
		cacheTTL: cacheTTL,
		sleep:    time.Sleep,
	}
}

// Fetch performs one extraction.
//
// Flow: admission check, then cache lookup (unless bypassed), then up to
// MaxAttempts pipeline runs. Only transient errors are retried: pool
// pressure, failed recreation, and connection faults. Content errors
// such as a missing selector or a failed navigation are returned on the
// first attempt; retrying them would just burn a slot on the same page.
// The guard learns only from pipeline outcomes, never from its own
// denials, so a rate-limited burst cannot open a circuit by itself.
func (f *Fetcher) Fetch(ctx context.Context, req *models.ExtractionRequest) (*models.LoadResponse, error) {
	started := time.Now()
	req.ApplyDefaults(f.cfg.DefaultTimeout, f.cfg.MaxTimeout)

	if err := f.guard.Authorize(req.URL); err != nil {
		return nil, err
	}

	key := cache.Key(req)
	if !req.NoCache {
		if resp, ok := f.cache.Get(key, req.CacheTolerance); ok {
			resp.Metadata.ProcessingTimeMs = time.Since(started).Milliseconds()
			slog.Debug("fetch: cache hit", "url", req.URL)
			return resp, nil
		}
	}

	domain := guard.Domain(req.URL)
	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			f.sleep(f.cfg.RetryDelay)
			if ctx.Err() != nil {
				break
			}
			slog.Info("fetch: retrying", "url", req.URL, "attempt", attempt)
		}

		resp, err := f.attempt(ctx, req)
		if err == nil {
			f.guard.RecordOutcome(domain, true)
			resp.Metadata.ProcessingTimeMs = time.Since(started).Milliseconds()
			if !req.NoCache {
				f.cache.Put(key, resp, f.cacheTTL)
			}
			return resp, nil
		}

		lastErr = err
		switch models.CodeOf(err) {
		case models.ErrCodePoolExhausted, models.ErrCodeBrowserGone:
			// Our own capacity problem, not the domain's fault.
		default:
			f.guard.RecordOutcome(domain, false)
		}
		if !models.IsTransient(err) {
			return nil, err
		}
		slog.Warn("fetch: transient failure", "url", req.URL,
			"attempt", attempt, "error", err)
	}

	return nil, lastErr
}

// attempt runs one checkout/pipeline/return cycle. The session is always
// returned with the pipeline's outcome so the pool can classify the
// slot's health.
func (f *Fetcher) attempt(ctx context.Context, req *models.ExtractionRequest) (*models.LoadResponse, error) {
	sess, err := f.pool.Checkout(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := f.pipeline.Extract(ctx, sess, req)
	f.pool.Return(sess, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
