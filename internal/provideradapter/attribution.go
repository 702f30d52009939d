package provideradapter

import (
	"context"
	"time"

	"github.com/chainsentinel/orchestrator/internal/cache"
	"github.com/chainsentinel/orchestrator/internal/model"
)

// EntityAttributionAdapter wraps a provider that clusters addresses to
// entities directly (the Chainalysis Reactor / Cipherblade-class
// provider), distinct from LabelAdapter in that it returns a single
// best-entity verdict with its own confidence rather than a list of
// tags.
type EntityAttributionAdapter struct {
	Base
}

// NewEntityAttributionAdapter wires a Transport into the Base pipeline.
func NewEntityAttributionAdapter(id string, transport Transport, c cache.Cache) *EntityAttributionAdapter {
	return &EntityAttributionAdapter{Base: NewBase(id, transport, c)}
}

// Query returns zero or one FindingAttribution, or a zero-confidence
// failure Finding.
func (a *EntityAttributionAdapter) Query(ctx context.Context, subject model.Subject) ([]model.Finding, error) {
	key := subjectKey(subject)
	payload, err := a.fetch(ctx, "attribute", subject, key)
	if err != nil {
		return []model.Finding{errorFinding(a.AdapterID, subject, classify(err), err)}, nil
	}

	entityLabel, ok := payload["entity_label"].(string)
	if !ok || entityLabel == "" {
		return nil, nil
	}
	entityType, _ := payload["entity_type"].(string)
	providerConfidence, ok := payload["confidence"].(float64)
	if !ok {
		providerConfidence = 0.7
	}

	return []model.Finding{{
		ID:         a.AdapterID + "-attribution-" + key,
		Subject:    subject,
		Kind:       model.FindingAttribution,
		Severity:   model.SeverityLow,
		Confidence: providerConfidence * a.Reliability,
		SourceID:   a.AdapterID,
		Payload: map[string]interface{}{
			"entity_label": entityLabel,
			"entity_type":  entityType,
		},
		CreatedAt: time.Now().UTC(),
	}}, nil
}
