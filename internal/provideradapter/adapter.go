// Package provideradapter defines the Provider Adapter contract (§4.1):
// the boundary between the orchestration engine and external
// intelligence sources (sanctions screening, risk scoring, address
// labeling, entity attribution). Every adapter call goes through
// caching, a per-adapter rate budget, and a circuit breaker, and every
// failure mode — timeout, rejection, rate-limit depletion, degraded
// circuit — surfaces as a zero/low-confidence Finding rather than an
// error returned across the boundary.
package provideradapter

import (
	"context"
	"time"

	"github.com/chainsentinel/orchestrator/internal/cache"
	"github.com/chainsentinel/orchestrator/internal/logging"
	"github.com/chainsentinel/orchestrator/internal/metrics"
	"github.com/chainsentinel/orchestrator/internal/model"
	"github.com/chainsentinel/orchestrator/internal/ratelimit"
	"github.com/chainsentinel/orchestrator/internal/resilience"
)

// Adapter is the contract every intelligence source implements. Query
// never returns an error for a remote failure — all such outcomes are
// encoded as Findings with Kind in {error, rate_limited, dropped} — the
// error return is reserved for programmer errors (e.g. an invalid
// Subject kind the adapter cannot route at all).
type Adapter interface {
	ID() string
	Query(ctx context.Context, subject model.Subject) ([]model.Finding, error)
}

// Transport is the narrow seam a concrete adapter implements to reach
// its remote source, isolated so it can be faked in tests without
// reimplementing caching/rate-limit/circuit-breaker plumbing.
type Transport interface {
	// Fetch performs the remote call and returns a provider-specific
	// payload to be interpreted by the adapter's Finding builder.
	Fetch(ctx context.Context, subject model.Subject) (map[string]interface{}, error)
}

// Base wires the cache-mediation, rate-limit, retry, and circuit-breaker
// plumbing common to every concrete adapter (§4.1, §6, §7). Concrete
// adapters embed Base and supply a Transport plus a Finding builder.
type Base struct {
	AdapterID   string
	Transport   Transport
	Cache       cache.Cache
	CacheTTL    time.Duration
	Limiter     *ratelimit.Bucket
	Breaker     *resilience.CircuitBreaker
	Retry       resilience.RetryConfig
	Reliability float64 // declared source reliability in [0,1], folded into Finding confidence
	Logger      *logging.Logger
}

// NewBase constructs a Base with the defaults §4.1 specifies for a
// provider that declares no overrides.
func NewBase(id string, transport Transport, c cache.Cache) Base {
	return Base{
		AdapterID:   id,
		Transport:   transport,
		Cache:       c,
		CacheTTL:    cache.ProviderResponseTTL,
		Limiter:     ratelimit.New(ratelimit.DefaultConfig()),
		Breaker:     resilience.NewCircuitBreaker(resilience.DefaultBreakerConfig()),
		Retry:       resilience.DefaultRetryConfig(),
		Reliability: 0.8,
		Logger:      logging.Default(),
	}
}

// ID returns the adapter's identifier, used in cache keys and metrics.
func (b *Base) ID() string { return b.AdapterID }

// fetch runs the full cache -> rate-limit -> circuit-breaker -> retry
// pipeline around a subject-keyed remote call, returning the raw
// payload or a classified, non-nil error describing why no payload is
// available. Callers turn a non-nil error into a Finding; fetch itself
// never surfaces a panic-worthy condition across the Adapter boundary.
func (b *Base) fetch(ctx context.Context, method string, subject model.Subject, key string) (map[string]interface{}, error) {
	cacheKey := cache.Key(b.AdapterID, method, key)

	if b.Cache != nil {
		var cached map[string]interface{}
		if cache.GetJSON(ctx, b.Cache, cacheKey, &cached) {
			metrics.ProviderCallsTotal.WithLabelValues(b.AdapterID, "cache_hit").Inc()
			return cached, nil
		}
	}

	if b.Limiter != nil && !b.Limiter.Allow() {
		metrics.ProviderCallsTotal.WithLabelValues(b.AdapterID, string(model.FindingRateLimited)).Inc()
		return nil, errRateLimited
	}

	if b.Breaker != nil {
		if err := b.Breaker.Allow(); err != nil {
			metrics.ProviderCallsTotal.WithLabelValues(b.AdapterID, string(model.FindingDropped)).Inc()
			return nil, errDegraded
		}
	}

	start := time.Now()
	var payload map[string]interface{}
	err := resilience.Retry(ctx, b.Retry, func() error {
		var fetchErr error
		payload, fetchErr = b.Transport.Fetch(ctx, subject)
		return fetchErr
	})
	b.Logger.LogProviderCall(ctx, b.AdapterID, method, false, time.Since(start), err)

	if err != nil {
		if b.Breaker != nil {
			b.Breaker.RecordFailure()
		}
		metrics.ProviderCallsTotal.WithLabelValues(b.AdapterID, string(model.FindingError)).Inc()
		return nil, err
	}

	if b.Breaker != nil {
		b.Breaker.RecordSuccess()
	}
	metrics.ProviderCallsTotal.WithLabelValues(b.AdapterID, "ok").Inc()
	if b.Cache != nil {
		cache.SetJSON(ctx, b.Cache, cacheKey, payload, b.CacheTTL)
	}
	return payload, nil
}

// subjectKey derives the cache/transport key for a Subject.
func subjectKey(subject model.Subject) string {
	switch subject.Kind {
	case "address":
		return subject.Address.Key()
	case "transaction":
		return subject.Transaction
	case "flow":
		return subject.FlowID
	default:
		return ""
	}
}

// errorFinding builds the zero-confidence Finding every adapter returns
// in place of propagating a transport failure, per §4.1/§7.
func errorFinding(adapterID string, subject model.Subject, kind model.FindingKind, err error) model.Finding {
	payload := map[string]interface{}{}
	if err != nil {
		payload["error"] = err.Error()
	}
	return model.Finding{
		ID:         adapterID + "-" + string(kind) + "-" + subjectKey(subject),
		Subject:    subject,
		Kind:       kind,
		Severity:   model.SeverityLow,
		Confidence: 0,
		SourceID:   adapterID,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}
}

// classify maps a fetch error to the Finding kind §4.1 assigns it.
func classify(err error) model.FindingKind {
	switch err {
	case errRateLimited:
		return model.FindingRateLimited
	case errDegraded:
		return model.FindingDropped
	default:
		return model.FindingError
	}
}
