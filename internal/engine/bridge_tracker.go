package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// BridgeTracker emits a bridge_transfer Finding for every transaction
// touching a registered bridge contract, plus anomaly findings computed
// over all of the target's bridge transfers in the supplied transaction
// window (§4.4). Transfers through every bridge are pooled together; no
// rolling one-hour sub-window and no per-bridge split is applied.
type BridgeTracker struct {
	Registry ProtocolClassifier

	// Thresholds, configurable; defaults match §4.4.
	VolumeAnomalyMultiplier    float64
	FrequencyAnomalyMultiplier float64
	TimingAnomalyOffHoursRatio float64
}

// NewBridgeTracker builds a BridgeTracker with the documented defaults.
func NewBridgeTracker(registry ProtocolClassifier) *BridgeTracker {
	return &BridgeTracker{
		Registry:                   registry,
		VolumeAnomalyMultiplier:    10,
		FrequencyAnomalyMultiplier: 5,
		TimingAnomalyOffHoursRatio: 0.3,
	}
}

func (e *BridgeTracker) ID() string { return "bridge-tracker" }

func (e *BridgeTracker) Analyze(_ context.Context, target Target, _ Options) ([]model.Finding, error) {
	ts := now(target)
	var findings []model.Finding
	var bridgeAmounts []float64
	bucketCounts := map[int64]int{} // 1-minute buckets
	offHour := 0
	total := 0

	for i, tx := range target.Transactions {
		entry, isBridge := e.classify(tx)
		if !isBridge || entry.Type != model.ProtocolBridge {
			continue
		}

		direction := "bridge_out"
		if tx.To == tx.From {
			direction = "bridge_out"
		} else if entry != nil {
			direction = bridgeDirection(tx, entry)
		}

		findings = append(findings, finding(
			e.ID(), target.Subject, model.FindingBridgeTransfer, model.SeverityMedium, 0.85,
			map[string]interface{}{
				"direction":        direction,
				"bridge":           entry.Name,
				"counterpart_chain": counterpartChain(entry, tx.ChainID),
				"amount":           tx.Value,
				"tx_hash":          tx.Hash,
			}, ts, strconv.Itoa(i),
		))

		bridgeAmounts = append(bridgeAmounts, tx.Value)
		bucketCounts[tx.Timestamp/60]++
		total++
		hourUTC := time.Unix(tx.Timestamp, 0).UTC().Hour()
		if hourUTC >= 2 && hourUTC < 4 {
			offHour++
		}
	}

	if len(bridgeAmounts) > 0 {
		avg := mean(bridgeAmounts)
		if avg > 0 && maxFloat(bridgeAmounts) > e.VolumeAnomalyMultiplier*avg {
			findings = append(findings, finding(
				e.ID(), target.Subject, model.FindingPattern, model.SeverityHigh, 0.75,
				map[string]interface{}{"pattern": "volume_anomaly"}, ts, "volume-anomaly",
			))
		}
	}

	if total > 0 {
		bucketVals := make([]float64, 0, len(bucketCounts))
		for _, c := range bucketCounts {
			bucketVals = append(bucketVals, float64(c))
		}
		avgBucket := mean(bucketVals)
		if avgBucket > 0 && maxFloat(bucketVals) > e.FrequencyAnomalyMultiplier*avgBucket {
			findings = append(findings, finding(
				e.ID(), target.Subject, model.FindingPattern, model.SeverityHigh, 0.7,
				map[string]interface{}{"pattern": "frequency_anomaly"}, ts, "frequency-anomaly",
			))
		}

		if float64(offHour)/float64(total) > e.TimingAnomalyOffHoursRatio {
			findings = append(findings, finding(
				e.ID(), target.Subject, model.FindingPattern, model.SeverityMedium, 0.6,
				map[string]interface{}{"pattern": "timing_anomaly"}, ts, "timing-anomaly",
			))
		}
	}

	return findings, nil
}

func (e *BridgeTracker) classify(tx model.Transaction) (*model.ProtocolEntry, bool) {
	if e.Registry == nil {
		return nil, false
	}
	if entry, ok := e.Registry.Classify(model.Address{ChainID: tx.ChainID, Value: tx.To}); ok {
		return entry, true
	}
	if entry, ok := e.Registry.Classify(model.Address{ChainID: tx.ChainID, Value: tx.From}); ok {
		return entry, true
	}
	return nil, false
}

func bridgeDirection(tx model.Transaction, entry *model.ProtocolEntry) string {
	if _, ok := entry.Addresses[tx.ChainID]; ok {
		return "bridge_out"
	}
	return "bridge_in"
}

func counterpartChain(entry *model.ProtocolEntry, originChain string) string {
	for _, chain := range entry.Chains {
		if chain != originChain {
			return chain
		}
	}
	return ""
}
