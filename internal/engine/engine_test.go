package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// fakeRegistry is a minimal ProtocolClassifier for engine tests.
type fakeRegistry struct {
	byKey map[string]*model.ProtocolEntry
}

func newFakeRegistry() *fakeRegistry { return &fakeRegistry{byKey: map[string]*model.ProtocolEntry{}} }

func (r *fakeRegistry) register(chain, address string, entry model.ProtocolEntry) {
	r.byKey[chain+":"+address] = &entry
}

func (r *fakeRegistry) Classify(address model.Address) (*model.ProtocolEntry, bool) {
	entry, ok := r.byKey[address.ChainID+":"+address.Value]
	return entry, ok
}

func subj() model.Subject {
	return model.AddressSubject(model.Address{ChainID: "ethereum", Value: "0xsender"})
}

func TestPatternDetectorStructuring(t *testing.T) {
	base := int64(1_700_000_000)
	var txs []model.Transaction
	for i := 0; i < 6; i++ {
		txs = append(txs, model.Transaction{
			ChainID: "ethereum", Hash: "tx" + string(rune('a'+i)),
			From: "0xsender", To: "0xreceiver", Value: 9000,
			Timestamp: base + int64(i*300),
		})
	}
	det := NewPatternDetector()
	findings, err := det.Analyze(context.Background(), Target{Subject: subj(), Transactions: txs, Now: time.Unix(base, 0)}, Options{})
	require.NoError(t, err)

	var structuring *model.Finding
	for i := range findings {
		if findings[i].Payload["pattern"] == string(model.PatternStructuring) {
			structuring = &findings[i]
		}
	}
	require.NotNil(t, structuring)
	assert.GreaterOrEqual(t, structuring.Confidence, 0.6)
	assert.Equal(t, model.SeverityHigh, structuring.Severity)
}

func TestPatternDetectorRoundAmounts(t *testing.T) {
	txs := []model.Transaction{
		{ChainID: "ethereum", Hash: "tx1", From: "a", To: "b", Value: 10010, Timestamp: 1000},
	}
	det := NewPatternDetector()
	findings, err := det.Analyze(context.Background(), Target{Subject: subj(), Transactions: txs}, Options{})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, string(model.PatternRoundAmounts), findings[0].Payload["pattern"])
}

func TestMixerDetectorEmitsOneFindingPerHitPlusFrequentMixer(t *testing.T) {
	registry := newFakeRegistry()
	registry.register("ethereum", "0xmixer", model.ProtocolEntry{Name: "Tornado Cash", Type: model.ProtocolMixer})

	var txs []model.Transaction
	for i := 0; i < 5; i++ {
		txs = append(txs, model.Transaction{ChainID: "ethereum", Hash: "tx" + string(rune('a'+i)), From: "0xsender", To: "0xmixer", Value: 1000, Timestamp: int64(1000 + i*60)})
	}

	det := NewMixerDetector(registry)
	findings, err := det.Analyze(context.Background(), Target{Subject: subj(), Transactions: txs}, Options{})
	require.NoError(t, err)

	mixerUseCount := 0
	hasFrequent := false
	for _, f := range findings {
		if f.Kind == model.FindingMixerUse {
			mixerUseCount++
		}
		if f.Payload["pattern"] == "frequent_mixer" {
			hasFrequent = true
		}
	}
	assert.Equal(t, 5, mixerUseCount)
	assert.True(t, hasFrequent)
}

func TestBridgeTrackerVolumeAnomaly(t *testing.T) {
	registry := newFakeRegistry()
	registry.register("ethereum", "0xbridge", model.ProtocolEntry{
		Name: "Wormhole", Type: model.ProtocolBridge, Chains: []string{"ethereum", "polygon"},
		Addresses: map[string][]string{"ethereum": {"0xbridge"}},
	})

	var txs []model.Transaction
	for i := 0; i < 19; i++ {
		txs = append(txs, model.Transaction{
			ChainID: "ethereum", Hash: "small" + string(rune('a'+i)),
			From: "0xsender", To: "0xbridge", Value: 10,
			Timestamp: int64(1000 + i*600),
		})
	}
	txs = append(txs, model.Transaction{ChainID: "ethereum", Hash: "big1", From: "0xsender", To: "0xbridge", Value: 5000, Timestamp: 1000 + 19*600})
	tracker := NewBridgeTracker(registry)
	findings, err := tracker.Analyze(context.Background(), Target{Subject: subj(), Transactions: txs}, Options{})
	require.NoError(t, err)

	hasVolumeAnomaly := false
	for _, f := range findings {
		if f.Payload["pattern"] == "volume_anomaly" {
			hasVolumeAnomaly = true
		}
	}
	assert.True(t, hasVolumeAnomaly)
}

func TestMLClusteringRiskScorerMixerDominated(t *testing.T) {
	registry := newFakeRegistry()
	registry.register("ethereum", "0xmixer", model.ProtocolEntry{Name: "Tornado Cash", Type: model.ProtocolMixer})

	txs := []model.Transaction{
		{ChainID: "ethereum", Hash: "tx1", From: "0xsender", To: "0xmixer", Value: 100, Timestamp: 1000},
	}
	scorer := NewMLClusteringRiskScorer(registry)
	findings, err := scorer.Analyze(context.Background(), Target{Subject: subj(), Transactions: txs}, Options{})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.True(t, findings[0].Payload["uses_mixer"].(bool))
	assert.Greater(t, findings[0].Payload["risk_score"].(float64), 0.0)
}

func TestClusterAddressesRetainsOnlyMinSizeClusters(t *testing.T) {
	registry := newFakeRegistry()
	registry.register("ethereum", "0xmixer", model.ProtocolEntry{Name: "Tornado Cash", Type: model.ProtocolMixer})
	scorer := NewMLClusteringRiskScorer(registry)

	addrs := []model.Address{
		{ChainID: "ethereum", Value: "0xa"},
		{ChainID: "ethereum", Value: "0xb"},
		{ChainID: "ethereum", Value: "0xc"},
		{ChainID: "ethereum", Value: "0xd"}, // isolated, different behavior profile
	}
	txsByAddress := map[string][]model.Transaction{
		"ethereum:0xa": {{ChainID: "ethereum", To: "0xmixer", Value: 10, Timestamp: 1}},
		"ethereum:0xb": {{ChainID: "ethereum", To: "0xmixer", Value: 10, Timestamp: 1}},
		"ethereum:0xc": {{ChainID: "ethereum", To: "0xmixer", Value: 10, Timestamp: 1}},
		"ethereum:0xd": {{ChainID: "ethereum", To: "0xother", Value: 10, Timestamp: 1}},
	}

	clusters := scorer.ClusterAddresses(addrs, txsByAddress)
	require.Len(t, clusters, 1)
	assert.Equal(t, 3, clusters[0].Size)
	assert.Equal(t, "mixer", clusters[0].DominantType)
}

func TestCrossChainTracerDetectsBridgeAndLargeAmount(t *testing.T) {
	registry := newFakeRegistry()
	registry.register("ethereum", "0xbridge", model.ProtocolEntry{Name: "Wormhole", Type: model.ProtocolBridge})

	txs := []model.Transaction{
		{ChainID: "ethereum", Hash: "tx1", From: "0xsender", To: "0xbridge", Value: 200000, Timestamp: 1000},
	}
	tracer := NewCrossChainTracer(registry)
	findings, err := tracer.Analyze(context.Background(), Target{Subject: subj(), Transactions: txs}, Options{})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	patterns := findings[0].Payload["patterns"].([]string)
	assert.Contains(t, patterns, string(model.PatternBridgeTransfer))
	assert.Contains(t, patterns, string(model.PatternLargeAmount))
}

func TestStablecoinFlowTrackerTotalAmountIsMax(t *testing.T) {
	txs := []model.Transaction{
		{ChainID: "ethereum", Hash: "tx1", From: "a", To: "b", Value: 100, Timestamp: 1000},
		{ChainID: "polygon", Hash: "tx2", From: "b", To: "c", Value: 450, Timestamp: 1200},
	}
	tracker := NewStablecoinFlowTracker(newFakeRegistry())
	findings, err := tracker.Analyze(context.Background(), Target{Subject: subj(), Transactions: txs}, Options{})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, 450.0, findings[0].Payload["total_amount"])
}
