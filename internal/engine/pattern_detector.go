package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// roundAmountTargets is the fixed set of round figures §4.4 checks
// transaction amounts against, within a 1% tolerance.
var roundAmountTargets = []float64{1000, 5000, 10000, 25000, 50000, 100000, 250000, 500000, 1000000}

// PatternDetector detects money-laundering macro-patterns over a
// target's transaction history (§4.4). Each detector is independent and
// may emit zero or more matches.
type PatternDetector struct{}

// NewPatternDetector builds a PatternDetector.
func NewPatternDetector() *PatternDetector { return &PatternDetector{} }

func (e *PatternDetector) ID() string { return "pattern-detector" }

func (e *PatternDetector) Analyze(_ context.Context, target Target, _ Options) ([]model.Finding, error) {
	ts := now(target)
	var findings []model.Finding

	if f, ok := e.detectStructuring(target, ts); ok {
		findings = append(findings, f)
	}
	if f, ok := e.detectSynchronizedTransfers(target, ts); ok {
		findings = append(findings, f)
	}
	if f, ok := e.detectRapidChainSwitching(target, ts); ok {
		findings = append(findings, f)
	}
	findings = append(findings, e.detectRoundAmounts(target, ts)...)

	return findings, nil
}

// detectStructuring: within a 1-hour window, >= 3 transactions each <
// 50000, summing to > 10000.
func (e *PatternDetector) detectStructuring(target Target, ts time.Time) (model.Finding, bool) {
	txs := target.Transactions
	for i := range txs {
		windowStart := txs[i].Timestamp
		var window []model.Transaction
		var sum float64
		for j := i; j < len(txs); j++ {
			if txs[j].Timestamp-windowStart > 3600 {
				break
			}
			if txs[j].Value >= 50000 {
				continue
			}
			window = append(window, txs[j])
			sum += txs[j].Value
		}
		if len(window) >= 3 && sum > 10000 {
			confidence := clamp01(0.5 + 0.05*float64(len(window)))
			if confidence < 0.6 {
				confidence = 0.6
			}
			hashes := make([]string, len(window))
			for k, tx := range window {
				hashes[k] = tx.Hash
			}
			return finding(e.ID(), target.Subject, model.FindingPattern, model.SeverityHigh, confidence,
				map[string]interface{}{
					"pattern":  string(model.PatternStructuring),
					"evidence": hashes,
					"total":    sum,
				}, ts, "structuring"), true
		}
	}
	return model.Finding{}, false
}

// detectSynchronizedTransfers: >= 3 transactions by the same sender
// within any 5-minute bucket.
func (e *PatternDetector) detectSynchronizedTransfers(target Target, ts time.Time) (model.Finding, bool) {
	bySender := map[string][]model.Transaction{}
	for _, tx := range target.Transactions {
		bySender[tx.From] = append(bySender[tx.From], tx)
	}
	for sender, txs := range bySender {
		for i := range txs {
			count := 1
			for j := i + 1; j < len(txs); j++ {
				if txs[j].Timestamp-txs[i].Timestamp <= 300 {
					count++
				}
			}
			if count >= 3 {
				return finding(e.ID(), target.Subject, model.FindingPattern, model.SeverityMedium, 0.65,
					map[string]interface{}{
						"pattern": string(model.PatternSynchronizedXfers),
						"sender":  sender,
						"count":   count,
					}, ts, "synchronized"), true
			}
		}
	}
	return model.Finding{}, false
}

// detectRapidChainSwitching: two consecutive transactions by the same
// sender on different chains within 30 minutes.
func (e *PatternDetector) detectRapidChainSwitching(target Target, ts time.Time) (model.Finding, bool) {
	bySender := map[string][]model.Transaction{}
	for _, tx := range target.Transactions {
		bySender[tx.From] = append(bySender[tx.From], tx)
	}
	for sender, txs := range bySender {
		for i := 0; i < len(txs)-1; i++ {
			if txs[i].ChainID != txs[i+1].ChainID && txs[i+1].Timestamp-txs[i].Timestamp <= 1800 {
				return finding(e.ID(), target.Subject, model.FindingPattern, model.SeverityMedium, 0.6,
					map[string]interface{}{
						"pattern": string(model.PatternRapidChainSwitch),
						"sender":  sender,
						"chains":  []string{txs[i].ChainID, txs[i+1].ChainID},
					}, ts, "rapid-chain-switch"), true
			}
		}
	}
	return model.Finding{}, false
}

// detectRoundAmounts flags transactions within 1% of a round figure.
func (e *PatternDetector) detectRoundAmounts(target Target, ts time.Time) []model.Finding {
	var findings []model.Finding
	for i, tx := range target.Transactions {
		for _, round := range roundAmountTargets {
			if tx.Value == 0 {
				continue
			}
			tolerance := round * 0.01
			if tx.Value >= round-tolerance && tx.Value <= round+tolerance {
				findings = append(findings, finding(e.ID(), target.Subject, model.FindingPattern, model.SeverityLow, 0.55,
					map[string]interface{}{
						"pattern": string(model.PatternRoundAmounts),
						"amount":  tx.Value,
						"target":  round,
						"tx_hash": tx.Hash,
					}, ts, "round-"+strconv.Itoa(i)))
				break
			}
		}
	}
	return findings
}
