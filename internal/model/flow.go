package model

import "time"

// FlowType is the closed set of fund-flow classifications.
type FlowType string

const (
	FlowBridgeTransfer  FlowType = "bridge_transfer"
	FlowDEXSwap         FlowType = "dex_swap"
	FlowCrossChainSwap  FlowType = "cross_chain_swap"
	FlowMixing          FlowType = "mixing"
	FlowPrivacy         FlowType = "privacy"
	FlowLayerHopping    FlowType = "layer_hopping"
	FlowCircular        FlowType = "circular"
	FlowHighVolume      FlowType = "high_volume"
	FlowSuspicious      FlowType = "suspicious"
)

// FundFlow is a directed acyclic sequence of transactions sharing a
// subject identity.
type FundFlow struct {
	FlowID     string        `json:"flow_id"`
	Start      Address       `json:"start"`
	End        Address       `json:"end"`
	Path       []Transaction `json:"path"`
	Confidence float64       `json:"confidence"`
	RiskScore  float64       `json:"risk_score"`
	FlowType   FlowType      `json:"flow_type"`
}

// TotalAmount is max(path.amount), not the sum, to avoid double-counting
// across hops (§3 invariant, §9 open question resolved in favor of max).
func (f FundFlow) TotalAmount() float64 {
	max := 0.0
	for _, tx := range f.Path {
		if tx.Value > max {
			max = tx.Value
		}
	}
	return max
}

// HopCount is the path length.
func (f FundFlow) HopCount() int {
	return len(f.Path)
}

// Blockchains is the set of distinct chains touched by the path.
func (f FundFlow) Blockchains() []string {
	seen := make(map[string]bool)
	var chains []string
	for _, tx := range f.Path {
		if !seen[tx.ChainID] {
			seen[tx.ChainID] = true
			chains = append(chains, tx.ChainID)
		}
	}
	return chains
}

// Duration is the wall-clock span between the first and last hop.
func (f FundFlow) Duration() time.Duration {
	if len(f.Path) == 0 {
		return 0
	}
	first := f.Path[0].Timestamp
	last := f.Path[len(f.Path)-1].Timestamp
	if last < first {
		first, last = last, first
	}
	return time.Duration(last-first) * time.Second
}
