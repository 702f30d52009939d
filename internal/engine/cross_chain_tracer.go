package engine

import (
	"context"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// CrossChainTracer detects transactions from the fixed pattern taxonomy
// and aggregates them into a per-target risk-score/confidence pair
// (§4.4).
type CrossChainTracer struct {
	Registry ProtocolClassifier
}

// NewCrossChainTracer builds a CrossChainTracer.
func NewCrossChainTracer(registry ProtocolClassifier) *CrossChainTracer {
	return &CrossChainTracer{Registry: registry}
}

func (e *CrossChainTracer) ID() string { return "cross-chain-tracer" }

func (e *CrossChainTracer) Analyze(_ context.Context, target Target, _ Options) ([]model.Finding, error) {
	ts := now(target)
	detected := e.detectPatterns(target)
	if len(detected) == 0 {
		return nil, nil
	}

	var riskScore float64
	for _, p := range detected {
		riskScore += model.PatternWeight(p)
	}
	riskScore = clamp01(riskScore)

	relatedExists := len(target.Transactions) > 1
	confidence := 0.5 + 0.1*float64(len(detected))
	if relatedExists {
		confidence += 0.2
	}
	confidence = clamp01(confidence)

	payload := map[string]interface{}{
		"patterns":   patternStrings(detected),
		"risk_score": riskScore,
	}

	severity := model.SeverityLow
	switch {
	case riskScore >= 0.8:
		severity = model.SeverityCritical
	case riskScore >= 0.6:
		severity = model.SeverityHigh
	case riskScore >= 0.4:
		severity = model.SeverityMedium
	}

	return []model.Finding{finding(e.ID(), target.Subject, model.FindingPattern, severity, confidence, payload, ts, "")}, nil
}

func (e *CrossChainTracer) detectPatterns(target Target) []model.PatternType {
	var detected []model.PatternType
	senderCounts := map[string]int{}
	for _, tx := range target.Transactions {
		senderCounts[tx.From]++

		if e.Registry != nil {
			if entry, ok := e.Registry.Classify(model.Address{ChainID: tx.ChainID, Value: tx.To}); ok {
				switch entry.Type {
				case model.ProtocolBridge:
					detected = appendUnique(detected, model.PatternBridgeTransfer)
				case model.ProtocolDEX:
					detected = appendUnique(detected, model.PatternDEXSwap)
				case model.ProtocolMixer:
					detected = appendUnique(detected, model.PatternMixerUse)
				case model.ProtocolPrivacyTool:
					detected = appendUnique(detected, model.PatternPrivacyTool)
				}
			}
		}

		if tx.Value >= 100000 {
			detected = appendUnique(detected, model.PatternLargeAmount)
		}
	}

	for _, count := range senderCounts {
		if count > 10 {
			detected = appendUnique(detected, model.PatternHighFrequency)
			break
		}
	}

	if isCircular(target.Transactions) {
		detected = appendUnique(detected, model.PatternCircularTrading)
	}

	return detected
}

func isCircular(txs []model.Transaction) bool {
	if len(txs) < 2 {
		return false
	}
	seenFrom := map[string]bool{}
	for _, tx := range txs {
		seenFrom[tx.From] = true
	}
	for _, tx := range txs {
		if seenFrom[tx.To] && tx.To != tx.From {
			return true
		}
	}
	return false
}

func appendUnique(patterns []model.PatternType, p model.PatternType) []model.PatternType {
	for _, existing := range patterns {
		if existing == p {
			return patterns
		}
	}
	return append(patterns, p)
}

func patternStrings(patterns []model.PatternType) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = string(p)
	}
	return out
}
