package model

// PatternType is the closed set of structural predicates the Cross-Chain
// Tracer and Pattern Detector engines recognize over transactions and
// flows.
type PatternType string

const (
	PatternBridgeTransfer     PatternType = "bridge_transfer"
	PatternDEXSwap            PatternType = "dex_swap"
	PatternMixerUse           PatternType = "mixer_use"
	PatternPrivacyTool        PatternType = "privacy_tool"
	PatternCircularTrading    PatternType = "circular_trading"
	PatternLayerHopping       PatternType = "layer_hopping"
	PatternStablecoinFlow     PatternType = "stablecoin_flow"
	PatternSuspiciousTiming   PatternType = "suspicious_timing"
	PatternHighFrequency      PatternType = "high_frequency"
	PatternLargeAmount        PatternType = "large_amount"
	PatternStructuring        PatternType = "structuring"
	PatternLayering           PatternType = "layering"
	PatternIntegration        PatternType = "integration"
	PatternMixerUsage         PatternType = "mixer_usage"
	PatternPrivacyToolUsage   PatternType = "privacy_tool_usage"
	PatternBridgeHopping      PatternType = "bridge_hopping"
	PatternDEXHopping         PatternType = "dex_hopping"
	PatternRoundAmounts       PatternType = "round_amounts"
	PatternPeakOffHours       PatternType = "peak_off_hours"
	PatternSynchronizedXfers  PatternType = "synchronized_transfers"
	PatternRapidChainSwitch   PatternType = "rapid_chain_switching"
	PatternSplittingMerging   PatternType = "splitting_merging"
)

// crossChainWeights is the fixed table §4.4 defines for the Cross-Chain
// Tracer's risk-score aggregation.
var crossChainWeights = map[PatternType]float64{
	PatternBridgeTransfer:   0.3,
	PatternDEXSwap:          0.1,
	PatternMixerUse:         0.8,
	PatternPrivacyTool:      0.7,
	PatternCircularTrading:  0.9,
	PatternLayerHopping:     0.5,
	PatternStablecoinFlow:   0.2,
	PatternSuspiciousTiming: 0.4,
	PatternHighFrequency:    0.3,
	PatternLargeAmount:      0.3,
}

// PatternWeight returns the fixed weight used by cross-chain risk
// scoring, or 0 for patterns outside that table.
func PatternWeight(p PatternType) float64 {
	return crossChainWeights[p]
}
