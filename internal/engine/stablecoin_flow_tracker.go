package engine

import (
	"context"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// flowTypeBaseRisk is the fixed base-risk table by flow type §4.4
// specifies for the Stablecoin Flow Tracker.
var flowTypeBaseRisk = map[model.FlowType]float64{
	model.FlowBridgeTransfer:   0.2,
	model.FlowDEXSwap:          0.2,
	model.FlowCrossChainSwap:   0.3,
	model.FlowMixing:           0.9,
	model.FlowPrivacy:          0.7,
	model.FlowLayerHopping:     0.5,
	model.FlowCircular:         0.8,
	model.FlowHighVolume:       0.4,
	model.FlowSuspicious:       0.6,
}

// StablecoinFlowTracker assembles the transaction window into a single
// FundFlow (assumed pre-ordered, seeded from the same subject) and
// scores it with the deterministic function in §4.4.
type StablecoinFlowTracker struct {
	Registry ProtocolClassifier
}

// NewStablecoinFlowTracker builds a StablecoinFlowTracker.
func NewStablecoinFlowTracker(registry ProtocolClassifier) *StablecoinFlowTracker {
	return &StablecoinFlowTracker{Registry: registry}
}

func (e *StablecoinFlowTracker) ID() string { return "stablecoin-flow-tracker" }

func (e *StablecoinFlowTracker) Analyze(_ context.Context, target Target, _ Options) ([]model.Finding, error) {
	if len(target.Transactions) == 0 {
		return nil, nil
	}
	ts := now(target)

	flowType := e.classifyFlowType(target.Transactions)
	flow := model.FundFlow{
		FlowID:   "flow-" + subjectKey(target.Subject),
		Path:     target.Transactions,
		FlowType: flowType,
	}

	riskScore := flowTypeBaseRisk[flowType]
	riskScore += minOf(0.3, 0.05*float64(flow.HopCount()))
	riskScore += minOf(0.2, 0.01*flow.Duration().Hours())
	riskScore += minOf(0.3, 0.1*float64(len(flow.Blockchains())))
	riskScore += minOf(0.4, 0.2*float64(e.mixerOrPrivacyHops(target.Transactions)))
	riskScore = clamp01(riskScore)

	flow.RiskScore = riskScore
	flow.Confidence = 0.6

	payload := map[string]interface{}{
		"flow_id":     flow.FlowID,
		"flow_type":   string(flowType),
		"hop_count":   flow.HopCount(),
		"blockchains": flow.Blockchains(),
		"total_amount": flow.TotalAmount(),
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

	return []model.Finding{finding(e.ID(), model.FlowSubject(flow.FlowID), model.FindingPattern, severity, riskScore, payload, ts, "")}, nil
}

func (e *StablecoinFlowTracker) classifyFlowType(txs []model.Transaction) model.FlowType {
	if isCircular(txs) {
		return model.FlowCircular
	}
	chains := map[string]bool{}
	mixerHops := 0
	for _, tx := range txs {
		chains[tx.ChainID] = true
		if e.Registry != nil {
			if entry, ok := e.Registry.Classify(model.Address{ChainID: tx.ChainID, Value: tx.To}); ok {
				switch entry.Type {
				case model.ProtocolMixer:
					mixerHops++
				case model.ProtocolPrivacyTool:
					return model.FlowPrivacy
				case model.ProtocolBridge:
					if len(chains) > 1 {
						return model.FlowBridgeTransfer
					}
				}
			}
		}
	}
	if mixerHops > 0 {
		return model.FlowMixing
	}
	if len(chains) > 1 {
		return model.FlowCrossChainSwap
	}
	if len(txs) > 10 {
		return model.FlowHighVolume
	}
	return model.FlowSuspicious
}

func (e *StablecoinFlowTracker) mixerOrPrivacyHops(txs []model.Transaction) int {
	if e.Registry == nil {
		return 0
	}
	count := 0
	for _, tx := range txs {
		if entry, ok := e.Registry.Classify(model.Address{ChainID: tx.ChainID, Value: tx.To}); ok {
			if entry.Type == model.ProtocolMixer || entry.Type == model.ProtocolPrivacyTool {
				count++
			}
		}
	}
	return count
}

func minOf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
