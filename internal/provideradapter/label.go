package provideradapter

import (
	"context"
	"strconv"
	"time"

	"github.com/chainsentinel/orchestrator/internal/cache"
	"github.com/chainsentinel/orchestrator/internal/model"
)

// LabelAdapter wraps an address-labeling provider (the Arkham/Etherscan
// class of provider — known entity names, exchange wallet tags, and
// so on). A single subject may carry multiple labels from one provider
// call, so Query can return more than one Finding.
type LabelAdapter struct {
	Base
}

// NewLabelAdapter wires a Transport into the Base pipeline.
func NewLabelAdapter(id string, transport Transport, c cache.Cache) *LabelAdapter {
	return &LabelAdapter{Base: NewBase(id, transport, c)}
}

// Query returns one FindingLabel per label the provider has on file for
// the subject, or a zero-confidence failure Finding.
func (a *LabelAdapter) Query(ctx context.Context, subject model.Subject) ([]model.Finding, error) {
	key := subjectKey(subject)
	payload, err := a.fetch(ctx, "labels", subject, key)
	if err != nil {
		return []model.Finding{errorFinding(a.AdapterID, subject, classify(err), err)}, nil
	}

	raw, _ := payload["labels"].([]interface{})
	if len(raw) == 0 {
		return nil, nil
	}

	findings := make([]model.Finding, 0, len(raw))
	now := time.Now().UTC()
	for i, item := range raw {
		labelMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := labelMap["name"].(string)
		entityType, _ := labelMap["entity_type"].(string)
		providerConfidence, ok := labelMap["confidence"].(float64)
		if !ok {
			providerConfidence = 0.9
		}

		findings = append(findings, model.Finding{
			ID:         a.AdapterID + "-label-" + key + "-" + strconv.Itoa(i),
			Subject:    subject,
			Kind:       model.FindingLabel,
			Severity:   model.SeverityLow,
			Confidence: providerConfidence * a.Reliability,
			SourceID:   a.AdapterID,
			Payload: map[string]interface{}{
				"label":       name,
				"entity_type": entityType,
			},
			CreatedAt: now,
		})
	}
	return findings, nil
}
