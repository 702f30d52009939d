package engine

import (
	"context"
	"time"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// mlFeatures is the feature vector §4.4 extracts for an address.
type mlFeatures struct {
	TransactionCount     int
	TotalIn              float64
	TotalOut             float64
	AverageAmount        float64
	UniqueCounterparties int
	ActiveDays           int
	UsesMixer            bool
	UsesBridge           bool
	UsesDEX              bool
	UsesPrivacyTool      bool
	LargeAmountCount     int
	RoundAmountCount     int
	OffPeakCount         int
	HighFrequencyHours   int
}

// mlWeights is the fixed-weight linear model §4.4 specifies for
// risk-score. These weights are independent of, and additive to, the
// Fusion Layer's own feature-weighted risk fusion (§4.5) — this engine
// contributes one risk_score Finding into that fusion, it does not
// replace it.
var mlWeights = struct {
	TransactionCount     float64
	AverageAmount        float64
	UniqueCounterparties float64
	Mixer                float64
	Bridge               float64
	DEX                  float64
	PrivacyTool          float64
	LargeAmount          float64
	RoundAmount          float64
	OffPeak              float64
	HighFrequency        float64
}{
	TransactionCount:     0.05,
	AverageAmount:        0.05,
	UniqueCounterparties: 0.05,
	Mixer:                0.30,
	Bridge:               0.05,
	DEX:                  0.03,
	PrivacyTool:          0.25,
	LargeAmount:          0.10,
	RoundAmount:          0.05,
	OffPeak:              0.04,
	HighFrequency:        0.08,
}

// MinClusterSize is the default minimum retained-cluster size.
const MinClusterSize = 3

// MLClusteringRiskScorer extracts a feature vector per address and
// scores it with a fixed-weight linear model; when invoked over a batch
// of subjects it additionally clusters addresses by feature similarity
// (§4.4). A single Analyze call, scoped to one subject, only emits the
// risk_score Finding — clustering is exposed via ClusterAddresses for
// batch-attribution workflows.
type MLClusteringRiskScorer struct {
	Registry ProtocolClassifier
}

// NewMLClusteringRiskScorer builds the engine.
func NewMLClusteringRiskScorer(registry ProtocolClassifier) *MLClusteringRiskScorer {
	return &MLClusteringRiskScorer{Registry: registry}
}

func (e *MLClusteringRiskScorer) ID() string { return "ml-clustering-risk-scorer" }

func (e *MLClusteringRiskScorer) Analyze(_ context.Context, target Target, _ Options) ([]model.Finding, error) {
	ts := now(target)
	features := e.extractFeatures(target.Transactions)
	score := e.score(features)

	severity := model.SeverityLow
	switch {
	case score >= 0.8:
		severity = model.SeverityCritical
	case score >= 0.6:
		severity = model.SeverityHigh
	case score >= 0.4:
		severity = model.SeverityMedium
	}

	payload := map[string]interface{}{
		"risk_score":            score,
		"transaction_count":     features.TransactionCount,
		"unique_counterparties": features.UniqueCounterparties,
		"uses_mixer":            features.UsesMixer,
		"uses_privacy_tool":     features.UsesPrivacyTool,
	}

	return []model.Finding{finding(e.ID(), target.Subject, model.FindingRiskScore, severity, 0.7, payload, ts, "")}, nil
}

func (e *MLClusteringRiskScorer) extractFeatures(txs []model.Transaction) mlFeatures {
	f := mlFeatures{TransactionCount: len(txs)}
	counterparties := map[string]bool{}
	days := map[string]bool{}
	var amounts []float64

	for _, tx := range txs {
		amounts = append(amounts, tx.Value)
		f.TotalOut += tx.Value
		counterparties[tx.To] = true
		day := time.Unix(tx.Timestamp, 0).UTC().Format("2006-01-02")
		days[day] = true

		hour := time.Unix(tx.Timestamp, 0).UTC().Hour()
		if hour >= 2 && hour < 4 {
			f.OffPeakCount++
		}
		if tx.Value >= 100000 {
			f.LargeAmountCount++
		}
		for _, round := range roundAmountTargets {
			if tx.Value == 0 {
				continue
			}
			if tx.Value >= round-round*0.01 && tx.Value <= round+round*0.01 {
				f.RoundAmountCount++
				break
			}
		}

		if e.Registry != nil {
			if entry, ok := e.Registry.Classify(model.Address{ChainID: tx.ChainID, Value: tx.To}); ok {
				switch entry.Type {
				case model.ProtocolMixer:
					f.UsesMixer = true
				case model.ProtocolBridge:
					f.UsesBridge = true
				case model.ProtocolDEX:
					f.UsesDEX = true
				case model.ProtocolPrivacyTool:
					f.UsesPrivacyTool = true
				}
			}
		}
	}

	f.UniqueCounterparties = len(counterparties)
	f.ActiveDays = len(days)
	f.AverageAmount = mean(amounts)

	senderCounts := map[string]int{}
	for _, tx := range txs {
		senderCounts[tx.From]++
	}
	for _, c := range senderCounts {
		if c > 10 {
			f.HighFrequencyHours++
		}
	}

	return f
}

func (e *MLClusteringRiskScorer) score(f mlFeatures) float64 {
	var s float64
	if f.TransactionCount > 50 {
		s += mlWeights.TransactionCount
	}
	if f.AverageAmount >= 10000 {
		s += mlWeights.AverageAmount
	}
	if f.UniqueCounterparties > 20 {
		s += mlWeights.UniqueCounterparties
	}
	if f.UsesMixer {
		s += mlWeights.Mixer
	}
	if f.UsesBridge {
		s += mlWeights.Bridge
	}
	if f.UsesDEX {
		s += mlWeights.DEX
	}
	if f.UsesPrivacyTool {
		s += mlWeights.PrivacyTool
	}
	if f.LargeAmountCount > 0 {
		s += mlWeights.LargeAmount
	}
	if f.RoundAmountCount > 0 {
		s += mlWeights.RoundAmount
	}
	if f.OffPeakCount > 0 {
		s += mlWeights.OffPeak
	}
	if f.HighFrequencyHours > 0 {
		s += mlWeights.HighFrequency
	}
	return clamp01(s)
}

// AddressCluster is one retained cluster from ClusterAddresses.
type AddressCluster struct {
	Addresses  []model.Address
	Size       int
	DominantType string // mixer | privacy | defi | institutional | unknown
}

// ClusterAddresses groups addresses by feature similarity using
// agglomerative single-linkage clustering over the extracted feature
// set, retaining clusters with size >= MinClusterSize (§4.4).
func (e *MLClusteringRiskScorer) ClusterAddresses(subjects []model.Address, txsByAddress map[string][]model.Transaction) []AddressCluster {
	type node struct {
		addr     model.Address
		features mlFeatures
	}
	nodes := make([]node, 0, len(subjects))
	for _, addr := range subjects {
		nodes = append(nodes, node{addr: addr, features: e.extractFeatures(txsByAddress[addr.Key()])})
	}

	parent := make([]int, len(nodes))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	const similarityThreshold = 0.75
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if similarity(nodes[i].features, nodes[j].features) > similarityThreshold {
				union(i, j)
			}
		}
	}

	groups := map[int][]int{}
	for i := range nodes {
		root := find(i)
		groups[root] = append(groups[root], i)
	}

	var clusters []AddressCluster
	for _, members := range groups {
		if len(members) < MinClusterSize {
			continue
		}
		addrs := make([]model.Address, len(members))
		mixerVotes, privacyVotes, dexVotes := 0, 0, 0
		for i, m := range members {
			addrs[i] = nodes[m].addr
			if nodes[m].features.UsesMixer {
				mixerVotes++
			}
			if nodes[m].features.UsesPrivacyTool {
				privacyVotes++
			}
			if nodes[m].features.UsesDEX {
				dexVotes++
			}
		}
		clusters = append(clusters, AddressCluster{
			Addresses:    addrs,
			Size:         len(members),
			DominantType: dominantClusterType(mixerVotes, privacyVotes, dexVotes, len(members)),
		})
	}
	return clusters
}

func similarity(a, b mlFeatures) float64 {
	matches := 0
	total := 4
	if a.UsesMixer == b.UsesMixer {
		matches++
	}
	if a.UsesBridge == b.UsesBridge {
		matches++
	}
	if a.UsesDEX == b.UsesDEX {
		matches++
	}
	if a.UsesPrivacyTool == b.UsesPrivacyTool {
		matches++
	}
	return float64(matches) / float64(total)
}

func dominantClusterType(mixerVotes, privacyVotes, dexVotes, size int) string {
	half := size / 2
	switch {
	case mixerVotes > half:
		return "mixer"
	case privacyVotes > half:
		return "privacy"
	case dexVotes > half:
		return "defi"
	default:
		return "unknown"
	}
}
