package orchestrator

import (
	"context"
	"time"

	engineerrors "github.com/chainsentinel/orchestrator/internal/errors"
	"github.com/chainsentinel/orchestrator/internal/logging"
	"github.com/chainsentinel/orchestrator/internal/model"
	"github.com/google/uuid"
)

// RunFundFlowTrace drives the fund-flow-trace workflow (§4.6): a
// bounded shortest-path query between two addresses, hop
// classification, risk averaged over hops, then Evidence sealing.
func (o *Orchestrator) RunFundFlowTrace(ctx context.Context, from, to model.Address, maxDepth int) (*model.Investigation, error) {
	if from.Value == "" || to.Value == "" {
		return nil, engineerrors.InvalidInput("flow", "from and to addresses are required")
	}
	if maxDepth < 1 || maxDepth > 10 {
		return nil, engineerrors.InvalidInput("flow", "max_depth must be between 1 and 10")
	}
	if o.GraphStore == nil {
		return nil, engineerrors.StoreUnavailable("graphstore", nil)
	}

	flowID := uuid.New().String()
	subject := model.FlowSubject(flowID)
	inv := newInvestigation(model.WorkflowFundFlowTrace, flowID, model.TargetFlow)
	inv.Status = model.InvestigationRunning

	deadline := o.Config.FlowTraceTimeout()
	if deadline <= 0 {
		deadline = 120 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()
	runCtx = logging.WithInvestigationID(runCtx, inv.ID)

	stepIdx := addStep(inv, "shortest_path", "graphstore", true)
	startStep(inv, stepIdx)
	path, err := o.GraphStore.ShortestPath(runCtx, from, to, maxDepth, 0)
	finishStep(inv, stepIdx, err)
	if err != nil {
		wrapped := engineerrors.StoreUnavailable("graphstore", err)
		reason := "cancelled"
		if runCtx.Err() == context.DeadlineExceeded {
			reason = "timeout"
		}
		finalizeOutcome(inv, true, reason)
		return inv, wrapped
	}

	flow := model.FundFlow{
		FlowID: flowID,
		Start:  from.Canonical(),
		End:    to.Canonical(),
		Path:   path,
	}

	findings := o.classifyFlow(subject, flow)

	if sealErr := o.sealEvidence(ctx, inv, findings); sealErr != nil {
		finalizeOutcome(inv, false, "")
		return inv, sealErr
	}

	o.fuseAndFinalize(inv, subject)
	finalizeOutcome(inv, false, "")
	return inv, nil
}

// classifyFlow derives per-hop pattern findings from a traced path. An
// empty path (no route found within maxDepth) yields no findings, not
// an error — the absence of a connection is itself the answer.
func (o *Orchestrator) classifyFlow(subject model.Subject, flow model.FundFlow) []model.Finding {
	if len(flow.Path) == 0 {
		return nil
	}

	now := time.Now().UTC()
	var findings []model.Finding
	var riskSum float64

	for i, hop := range flow.Path {
		hopRisk := 0.1
		if o.Registry != nil {
			if entry, ok := o.Registry.Classify(model.Address{ChainID: hop.ChainID, Value: hop.To}); ok {
				hopRisk = riskLevelScore(entry.RiskLevel)
				findings = append(findings, model.Finding{
					ID:         flow.FlowID + "-hop-" + uuid.New().String(),
					Subject:    subject,
					Kind:       model.FindingPattern,
					Severity:   severityForRisk(hopRisk),
					Confidence: 0.8,
					SourceID:   "fund-flow-tracer",
					Payload: map[string]interface{}{
						"hop_index":     i,
						"protocol":      entry.Name,
						"protocol_type": string(entry.Type),
						"tx_hash":       hop.Hash,
					},
					CreatedAt: now,
				})
			}
		}
		riskSum += hopRisk
	}

	avgRisk := riskSum / float64(len(flow.Path))
	findings = append(findings, model.Finding{
		ID:         flow.FlowID + "-summary",
		Subject:    subject,
		Kind:       model.FindingRiskScore,
		Severity:   severityForRisk(avgRisk),
		Confidence: 0.7,
		SourceID:   "fund-flow-tracer",
		Payload: map[string]interface{}{
			"hop_count":    flow.HopCount(),
			"total_amount": flow.TotalAmount(),
			"risk_score":   avgRisk,
			"chains":       flow.Blockchains(),
		},
		CreatedAt: now,
	})

	return findings
}

func riskLevelScore(level model.RiskLevel) float64 {
	switch level {
	case model.RiskCritical:
		return 0.95
	case model.RiskHigh:
		return 0.75
	case model.RiskMedium:
		return 0.45
	default:
		return 0.15
	}
}

func severityForRisk(score float64) model.Severity {
	switch {
	case score >= 0.8:
		return model.SeverityCritical
	case score >= 0.6:
		return model.SeverityHigh
	case score >= 0.3:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
