package provideradapter

import (
	"context"
	"time"

	"github.com/chainsentinel/orchestrator/internal/cache"
	"github.com/chainsentinel/orchestrator/internal/model"
)

// RiskScoreAdapter wraps a risk-scoring provider (the Elliptic/TRM-class
// of provider that returns a continuous score plus contributing
// factors). The provider's own confidence in its score, when present, is
// folded together with the adapter's declared reliability.
type RiskScoreAdapter struct {
	Base
}

// NewRiskScoreAdapter wires a Transport into the Base pipeline.
func NewRiskScoreAdapter(id string, transport Transport, c cache.Cache) *RiskScoreAdapter {
	return &RiskScoreAdapter{Base: NewBase(id, transport, c)}
}

// Query returns one FindingRiskScore per call, or a zero-confidence
// failure Finding.
func (a *RiskScoreAdapter) Query(ctx context.Context, subject model.Subject) ([]model.Finding, error) {
	key := subjectKey(subject)
	payload, err := a.fetch(ctx, "score", subject, key)
	if err != nil {
		return []model.Finding{errorFinding(a.AdapterID, subject, classify(err), err)}, nil
	}

	score, _ := payload["risk_score"].(float64)
	providerConfidence, ok := payload["confidence"].(float64)
	if !ok {
		providerConfidence = 1.0
	}
	confidence := providerConfidence * a.Reliability
	if confidence > 1 {
		confidence = 1
	}

	severity := model.SeverityLow
	switch {
	case score >= 0.8:
		severity = model.SeverityCritical
	case score >= 0.6:
		severity = model.SeverityHigh
	case score >= 0.4:
		severity = model.SeverityMedium
	}

	return []model.Finding{{
		ID:         a.AdapterID + "-risk-" + key,
		Subject:    subject,
		Kind:       model.FindingRiskScore,
		Severity:   severity,
		Confidence: confidence,
		SourceID:   a.AdapterID,
		Payload: map[string]interface{}{
			"risk_score": score,
		},
		CreatedAt: time.Now().UTC(),
	}}, nil
}
