package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// MixerDetector emits a mixer_use Finding for every transaction hitting
// a registered mixer pool, plus secondary pattern findings (§4.4).
type MixerDetector struct {
	Registry ProtocolClassifier
}

// NewMixerDetector builds a MixerDetector.
func NewMixerDetector(registry ProtocolClassifier) *MixerDetector {
	return &MixerDetector{Registry: registry}
}

func (e *MixerDetector) ID() string { return "mixer-detector" }

func (e *MixerDetector) Analyze(_ context.Context, target Target, _ Options) ([]model.Finding, error) {
	if e.Registry == nil {
		return nil, nil
	}
	ts := now(target)
	var findings []model.Finding
	var hits []model.Transaction
	mixersTouched := map[string]bool{}

	for i, tx := range target.Transactions {
		entry, ok := e.Registry.Classify(model.Address{ChainID: tx.ChainID, Value: tx.To})
		if !ok || entry.Type != model.ProtocolMixer {
			continue
		}
		hits = append(hits, tx)
		mixersTouched[entry.Name] = true

		findings = append(findings, finding(e.ID(), target.Subject, model.FindingMixerUse, model.SeverityHigh, 0.8,
			map[string]interface{}{"mixer": entry.Name, "tx_hash": tx.Hash}, ts, strconv.Itoa(i)))
	}

	if len(hits) == 0 {
		return findings, nil
	}

	if len(hits) >= 3 {
		findings = append(findings, finding(e.ID(), target.Subject, model.FindingPattern, model.SeverityCritical, 0.85,
			map[string]interface{}{"pattern": "frequent_mixer", "count": len(hits)}, ts, "frequent-mixer"))
	}
	if len(mixersTouched) >= 2 {
		findings = append(findings, finding(e.ID(), target.Subject, model.FindingPattern, model.SeverityHigh, 0.75,
			map[string]interface{}{"pattern": "multiple_mixers", "mixers": mixerNames(mixersTouched)}, ts, "multiple-mixers"))
	}

	offHour := 0
	for _, tx := range hits {
		h := time.Unix(tx.Timestamp, 0).UTC().Hour()
		if h >= 2 && h < 4 {
			offHour++
		}
	}
	if float64(offHour)/float64(len(hits)) > 0.3 {
		findings = append(findings, finding(e.ID(), target.Subject, model.FindingPattern, model.SeverityMedium, 0.6,
			map[string]interface{}{"pattern": "suspicious_timing"}, ts, "suspicious-timing"))
	}

	for _, tx := range hits {
		if tx.Value >= 100000 {
			findings = append(findings, finding(e.ID(), target.Subject, model.FindingPattern, model.SeverityHigh, 0.7,
				map[string]interface{}{"pattern": "large_amounts", "amount": tx.Value, "tx_hash": tx.Hash}, ts, "large-"+tx.Hash))
		}
	}

	for _, tx := range hits {
		for _, round := range roundAmountTargets {
			if tx.Value == 0 {
				continue
			}
			tolerance := round * 0.01
			if tx.Value >= round-tolerance && tx.Value <= round+tolerance {
				findings = append(findings, finding(e.ID(), target.Subject, model.FindingPattern, model.SeverityLow, 0.55,
					map[string]interface{}{"pattern": "round_amounts", "amount": tx.Value, "tx_hash": tx.Hash}, ts, "round-"+tx.Hash))
				break
			}
		}
	}

	return findings, nil
}

func mixerNames(touched map[string]bool) []string {
	names := make([]string, 0, len(touched))
	for name := range touched {
		names = append(names, name)
	}
	return names
}
