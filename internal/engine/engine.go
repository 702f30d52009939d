// Package engine implements the Analysis Engine contract (§4.4): six
// pluggable producers of Findings over a target's recent transaction
// history, each a different detection algorithm (bridge anomalies,
// cross-chain pattern detection, macro money-laundering patterns,
// stablecoin flow classification, mixer use, and ML-style risk
// scoring/clustering). Engines never persist to Evidence directly; they
// hand Findings to the Orchestrator, which seals them.
package engine

import (
	"context"
	"time"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// ProtocolClassifier is the narrow slice of the Protocol Registry
// engines need: address -> known protocol, if any.
type ProtocolClassifier interface {
	Classify(address model.Address) (*model.ProtocolEntry, bool)
}

// Target is the window of pre-fetched transaction history an engine
// analyzes. Fetching this window from the graph store is the
// Orchestrator's responsibility, not the engine's — engines are pure
// functions of the data handed to them, which keeps them trivially
// testable and safe to invoke concurrently.
type Target struct {
	Subject      model.Subject
	Transactions []model.Transaction // relevant window, ordered by Timestamp ascending
	Now          time.Time           // injection point so tests are deterministic; callers default to time.Now().UTC()
}

// Options configures one Analyze call. Zero-value Options is valid and
// uses every engine's documented defaults.
type Options struct {
	MaxDepth int // fund-flow tracing depth bound, 1-10 (§4.6); unused by most engines
}

// Engine is the common contract every concrete analysis algorithm
// implements.
type Engine interface {
	ID() string
	Analyze(ctx context.Context, target Target, opts Options) ([]model.Finding, error)
}

func now(t Target) time.Time {
	if t.Now.IsZero() {
		return time.Now().UTC()
	}
	return t.Now
}

func finding(sourceID string, subject model.Subject, kind model.FindingKind, severity model.Severity, confidence float64, payload map[string]interface{}, createdAt time.Time, idSuffix string) model.Finding {
	id := sourceID + "-" + string(kind) + "-" + subjectKey(subject)
	if idSuffix != "" {
		id += "-" + idSuffix
	}
	return model.Finding{
		ID:         id,
		Subject:    subject,
		Kind:       kind,
		Severity:   severity,
		Confidence: clamp01(confidence),
		SourceID:   sourceID,
		Payload:    payload,
		CreatedAt:  createdAt,
	}
}

func subjectKey(subject model.Subject) string {
	switch subject.Kind {
	case "address":
		return subject.Address.Key()
	case "transaction":
		return subject.Transaction
	case "flow":
		return subject.FlowID
	default:
		return "unknown"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxFloat(values []float64) float64 {
	var m float64
	for i, v := range values {
		if i == 0 || v > m {
			m = v
		}
	}
	return m
}
