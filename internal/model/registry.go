package model

// ProtocolType is the closed set of protocol classifications.
type ProtocolType string

const (
	ProtocolBridge       ProtocolType = "bridge"
	ProtocolDEX          ProtocolType = "dex"
	ProtocolLending      ProtocolType = "lending"
	ProtocolStaking      ProtocolType = "staking"
	ProtocolYieldFarming ProtocolType = "yield_farming"
	ProtocolMixer        ProtocolType = "mixer"
	ProtocolNFT          ProtocolType = "nft"
	ProtocolPayments     ProtocolType = "payments"
	ProtocolPrivacyTool  ProtocolType = "privacy_tool"
)

// ProtocolEntry describes one known protocol contract, grouped by chain.
type ProtocolEntry struct {
	Name      string              `json:"name"`
	Type      ProtocolType        `json:"type"`
	Chains    []string            `json:"chains"`
	Addresses map[string][]string `json:"addresses"` // chain -> lowercased addresses
	RiskLevel RiskLevel           `json:"risk_level"`
	Tags      []string            `json:"tags,omitempty"`
}
