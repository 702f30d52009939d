package orchestrator

import (
	"context"

	engineerrors "github.com/chainsentinel/orchestrator/internal/errors"
	"github.com/chainsentinel/orchestrator/internal/engine"
	"github.com/chainsentinel/orchestrator/internal/logging"
	"github.com/chainsentinel/orchestrator/internal/model"
)

// RunTransactionScan drives the transaction-scan workflow (§4.6):
// Cross-Chain Tracer and Stablecoin Flow Tracker over the transaction's
// neighborhood, then Fusion, then Evidence sealing.
func (o *Orchestrator) RunTransactionScan(ctx context.Context, chainID, txHash string, neighborhood []model.Transaction) (*model.Investigation, error) {
	if txHash == "" || chainID == "" {
		return nil, engineerrors.InvalidInput("transaction", "chain and hash are required")
	}

	subject := model.TransactionSubject(txHash)
	inv := newInvestigation(model.WorkflowTransactionScan, txHash, model.TargetTransaction)
	inv.Status = model.InvestigationRunning

	runCtx, cancel := context.WithTimeout(ctx, o.Config.AddressDeepScanTimeout())
	defer cancel()
	runCtx = logging.WithInvestigationID(runCtx, inv.ID)

	target := engine.Target{Subject: subject, Transactions: neighborhood}

	var tasks []func(context.Context) ([]model.Finding, error)
	for _, e := range o.Engines {
		if e.ID() != "cross-chain-tracer" && e.ID() != "stablecoin-flow-tracker" {
			continue
		}
		idx := addStep(inv, "engine:"+e.ID(), e.ID(), true)
		tasks = append(tasks, o.guardedEngineTask(inv, idx, e, target))
	}

	sink := newFindingsSink(o.Config.FindingsChannelCapacity)
	runErr := o.runConcurrent(runCtx, sink, tasks)
	findings := sink.drain()

	if err := o.sealEvidence(ctx, inv, findings); err != nil {
		finalizeOutcome(inv, false, "")
		return inv, err
	}

	o.fuseAndFinalize(inv, subject)

	cancelled := runErr != nil
	reason := ""
	if cancelled {
		if runCtx.Err() == context.DeadlineExceeded {
			reason = "timeout"
		} else {
			reason = "cancelled"
		}
	}
	finalizeOutcome(inv, cancelled, reason)
	return inv, nil
}
