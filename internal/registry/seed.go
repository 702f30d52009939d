package registry

import "github.com/chainsentinel/orchestrator/internal/model"

// Seed returns a small built-in set of well-known protocol contracts
// the composition root installs at startup via Refresh, ahead of any
// later refresh from an external registry source.
func Seed() []model.ProtocolEntry {
	return []model.ProtocolEntry{
		{
			Name:   "Tornado Cash",
			Type:   model.ProtocolMixer,
			Chains: []string{"ethereum"},
			Addresses: map[string][]string{
				"ethereum": {
					"0x12d66f87a04a9e220743712ce6d9bb1b5616b8fc",
					"0x47ce0c6ed5b0ee3f31a6378ecff1b3c3f57b3e5a",
				},
			},
			RiskLevel: model.RiskCritical,
			Tags:      []string{"sanctioned", "privacy_tool"},
		},
		{
			Name:   "Uniswap V3 Router",
			Type:   model.ProtocolDEX,
			Chains: []string{"ethereum", "polygon", "arbitrum"},
			Addresses: map[string][]string{
				"ethereum": {"0xe592427a0aece92de3edee1f18e0157c05861564"},
				"polygon":  {"0xe592427a0aece92de3edee1f18e0157c05861564"},
				"arbitrum": {"0xe592427a0aece92de3edee1f18e0157c05861564"},
			},
			RiskLevel: model.RiskLow,
		},
		{
			Name:   "Aave V3 Pool",
			Type:   model.ProtocolLending,
			Chains: []string{"ethereum", "polygon"},
			Addresses: map[string][]string{
				"ethereum": {"0x87870bca3f3fd6335c3f4ce8392d69350b4fa4e2"},
				"polygon":  {"0x794a61358d6845594f94dc1db02a252b5b4814ad"},
			},
			RiskLevel: model.RiskLow,
		},
		{
			Name:   "Lido Staked ETH",
			Type:   model.ProtocolStaking,
			Chains: []string{"ethereum"},
			Addresses: map[string][]string{
				"ethereum": {"0xae7ab96520de3a18e5e111b5eaab095312d7fe84"},
			},
			RiskLevel: model.RiskVeryLow,
		},
		{
			Name:   "Polygon PoS Bridge",
			Type:   model.ProtocolBridge,
			Chains: []string{"ethereum", "polygon"},
			Addresses: map[string][]string{
				"ethereum": {"0xa0c68c638235ee32657e8f720a23cec1bfc77c77"},
				"polygon":  {"0x0000000000000000000000000000000000dead"},
			},
			RiskLevel: model.RiskMedium,
		},
		{
			Name:   "Arbitrum Bridge",
			Type:   model.ProtocolBridge,
			Chains: []string{"ethereum", "arbitrum"},
			Addresses: map[string][]string{
				"ethereum": {"0x8315177ab297ba92a06054ce80a67ed4dbd7ed3a"},
			},
			RiskLevel: model.RiskMedium,
		},
		{
			Name:   "OpenSea Seaport",
			Type:   model.ProtocolNFT,
			Chains: []string{"ethereum"},
			Addresses: map[string][]string{
				"ethereum": {"0x00000000000000adc04c56bf30ac9d3c0aaf14dc"},
			},
			RiskLevel: model.RiskLow,
		},
		{
			Name:   "Curve 3pool",
			Type:   model.ProtocolYieldFarming,
			Chains: []string{"ethereum"},
			Addresses: map[string][]string{
				"ethereum": {"0xbebc44782c7db0a1a60cb6fe97d0b483032ff1c7"},
			},
			RiskLevel: model.RiskLow,
		},
	}
}
