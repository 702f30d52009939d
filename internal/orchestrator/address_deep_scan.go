package orchestrator

import (
	"context"
	"time"

	engineerrors "github.com/chainsentinel/orchestrator/internal/errors"
	"github.com/chainsentinel/orchestrator/internal/engine"
	"github.com/chainsentinel/orchestrator/internal/logging"
	"github.com/chainsentinel/orchestrator/internal/model"
	"github.com/chainsentinel/orchestrator/internal/provideradapter"
)

// RunAddressDeepScan drives the address deep-scan workflow (§4.6):
// parallel Provider screens, parallel Engine analyses, Fusion, then
// Evidence sealing. All sub-tasks share the configured deadline
// (default 60s) and are cancelled cooperatively on expiry or explicit
// cancellation.
func (o *Orchestrator) RunAddressDeepScan(ctx context.Context, address model.Address) (*model.Investigation, error) {
	if address.Value == "" || address.ChainID == "" {
		return nil, engineerrors.InvalidInput("address", "chain and value are required")
	}

	subject := model.AddressSubject(address)
	inv := newInvestigation(model.WorkflowAddressDeepScan, subject.Address.Key(), model.TargetAddress)
	inv.Status = model.InvestigationRunning

	deadline := o.Config.AddressDeepScanTimeout()
	if deadline <= 0 {
		deadline = 60 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()
	runCtx = logging.WithInvestigationID(runCtx, inv.ID)

	txs, err := o.fetchWindow(runCtx, address)
	if err != nil {
		inv.Steps = append(inv.Steps, model.Step{
			StepID: inv.ID + "-fetch-window", Name: "fetch_window", Mandatory: true,
			Status: model.StepFailed, StartedAt: time.Now().UTC(), CompletedAt: time.Now().UTC(),
			ErrorKind: string(engineerrors.KindOf(err)), ErrorDetail: err.Error(),
		})
		finalizeOutcome(inv, false, "")
		return inv, err
	}

	sink := newFindingsSink(o.Config.FindingsChannelCapacity)
	var tasks []func(context.Context) ([]model.Finding, error)

	for _, p := range o.Providers {
		idx := addStep(inv, "provider:"+p.ID(), p.ID(), false)
		tasks = append(tasks, o.guardedProviderTask(inv, idx, p, subject))
	}

	target := engine.Target{Subject: subject, Transactions: txs}
	for _, e := range o.Engines {
		idx := addStep(inv, "engine:"+e.ID(), e.ID(), false)
		tasks = append(tasks, o.guardedEngineTask(inv, idx, e, target))
	}

	runErr := o.runConcurrent(runCtx, sink, tasks)
	findings := sink.drain()

	sealErr := o.sealEvidence(ctx, inv, findings)
	if sealErr != nil {
		finalizeOutcome(inv, false, "")
		return inv, sealErr
	}

	o.fuseAndFinalize(inv, subject)

	cancelled := runErr != nil
	reason := ""
	if cancelled {
		reason = string(engineerrors.KindOf(runErr))
		if runCtx.Err() != nil && runCtx.Err() == context.DeadlineExceeded {
			reason = "timeout"
		} else {
			reason = "cancelled"
		}
	}
	finalizeOutcome(inv, cancelled, reason)

	return inv, nil
}

// guardedProviderTask wraps a provider task with step bookkeeping so
// step status reflects the call's outcome even though the error never
// propagates past the task closure (§7).
func (o *Orchestrator) guardedProviderTask(inv *model.Investigation, stepIdx int, p provideradapter.Adapter, subject model.Subject) func(context.Context) ([]model.Finding, error) {
	return func(ctx context.Context) ([]model.Finding, error) {
		startStep(inv, stepIdx)
		findings, err := p.Query(ctx, subject)
		finishStep(inv, stepIdx, err)
		return findings, err
	}
}

func (o *Orchestrator) guardedEngineTask(inv *model.Investigation, stepIdx int, e engine.Engine, target engine.Target) func(context.Context) ([]model.Finding, error) {
	return func(ctx context.Context) ([]model.Finding, error) {
		startStep(inv, stepIdx)
		findings, err := e.Analyze(ctx, target, engine.Options{})
		finishStep(inv, stepIdx, err)
		return findings, err
	}
}
