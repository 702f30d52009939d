package provideradapter

import (
	"context"
	"time"

	"github.com/chainsentinel/orchestrator/internal/cache"
	"github.com/chainsentinel/orchestrator/internal/model"
)

// SanctionsAdapter screens a subject against sanctions/watchlist sources
// (the Chainalysis/Elliptic/OFAC-SDN class of provider). A hit always
// produces a FindingSanctionsHit with confidence 1.0 — sanctions lists
// are definitive matches, not probabilistic scores.
type SanctionsAdapter struct {
	Base
}

// NewSanctionsAdapter wires a Transport into the Base cache/rate-limit/
// circuit-breaker pipeline.
func NewSanctionsAdapter(id string, transport Transport, c cache.Cache) *SanctionsAdapter {
	base := NewBase(id, transport, c)
	base.Reliability = 0.99
	return &SanctionsAdapter{Base: base}
}

// Query screens the subject and returns zero or one sanctions Finding,
// or a zero-confidence error/rate_limited/dropped Finding on failure.
func (a *SanctionsAdapter) Query(ctx context.Context, subject model.Subject) ([]model.Finding, error) {
	key := subjectKey(subject)
	payload, err := a.fetch(ctx, "screen", subject, key)
	if err != nil {
		return []model.Finding{errorFinding(a.AdapterID, subject, classify(err), err)}, nil
	}

	hit, _ := payload["is_sanctioned"].(bool)
	if !hit {
		return nil, nil
	}

	listName, _ := payload["list_name"].(string)
	program, _ := payload["program"].(string)

	return []model.Finding{{
		ID:         a.AdapterID + "-sanctions-" + key,
		Subject:    subject,
		Kind:       model.FindingSanctionsHit,
		Severity:   model.SeverityCritical,
		Confidence: 1.0,
		SourceID:   a.AdapterID,
		Payload: map[string]interface{}{
			"list_name": listName,
			"program":   program,
		},
		CreatedAt: time.Now().UTC(),
	}}, nil
}
