// Package orchestrator implements the Investigation Orchestrator
// (§4.6): it drives the four required workflow templates, fanning out
// Provider and Engine calls with bounded concurrency, collecting
// Findings through a bounded channel, fusing them, and sealing Evidence.
package orchestrator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chainsentinel/orchestrator/internal/config"
	engineerrors "github.com/chainsentinel/orchestrator/internal/errors"
	"github.com/chainsentinel/orchestrator/internal/engine"
	"github.com/chainsentinel/orchestrator/internal/evidence"
	"github.com/chainsentinel/orchestrator/internal/fusion"
	"github.com/chainsentinel/orchestrator/internal/graphstore"
	"github.com/chainsentinel/orchestrator/internal/logging"
	"github.com/chainsentinel/orchestrator/internal/metrics"
	"github.com/chainsentinel/orchestrator/internal/model"
	"github.com/chainsentinel/orchestrator/internal/provideradapter"
	"github.com/chainsentinel/orchestrator/internal/registry"
	"github.com/google/uuid"
)

// Orchestrator is the composition point wiring Providers, Engines, the
// Protocol Registry, the graph store, and the Evidence Store into
// driveable workflows.
type Orchestrator struct {
	Providers  []provideradapter.Adapter
	Engines    []engine.Engine
	GraphStore graphstore.Store
	Evidence   evidence.Store
	Registry   *registry.Registry
	Fusion     fusion.Config
	Config     config.OrchestratorConfig
	Logger     *logging.Logger
}

// New constructs an Orchestrator. A nil Logger falls back to the
// package-level default.
func New(providers []provideradapter.Adapter, engines []engine.Engine, gs graphstore.Store, ev evidence.Store, reg *registry.Registry, fusionCfg fusion.Config, orchCfg config.OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		Providers:  providers,
		Engines:    engines,
		GraphStore: gs,
		Evidence:   ev,
		Registry:   reg,
		Fusion:     fusionCfg,
		Config:     orchCfg,
		Logger:     logging.Default(),
	}
}

// findingsSink collects Findings through a bounded channel with
// backpressure: producers that cannot enqueue within the per-step
// deadline drop their contribution rather than retry or block
// indefinitely (§5). offer returns a kind=dropped Finding in place of
// the one it could not enqueue; runConcurrent discards that return
// value, so a dropped contribution leaves no Finding behind.
type findingsSink struct {
	ch chan model.Finding
}

func newFindingsSink(capacity int) *findingsSink {
	if capacity <= 0 {
		capacity = 256
	}
	return &findingsSink{ch: make(chan model.Finding, capacity)}
}

func (s *findingsSink) offer(ctx context.Context, f model.Finding) model.Finding {
	select {
	case s.ch <- f:
		return model.Finding{}
	case <-ctx.Done():
		return droppedFinding(f.SourceID, f.Subject)
	default:
		select {
		case s.ch <- f:
			return model.Finding{}
		case <-time.After(50 * time.Millisecond):
			return droppedFinding(f.SourceID, f.Subject)
		}
	}
}

func droppedFinding(sourceID string, subject model.Subject) model.Finding {
	return model.Finding{
		ID:         sourceID + "-dropped-" + time.Now().UTC().Format(time.RFC3339Nano),
		Subject:    subject,
		Kind:       model.FindingDropped,
		Confidence: 0,
		SourceID:   sourceID,
		CreatedAt:  time.Now().UTC(),
	}
}

func (s *findingsSink) drain() []model.Finding {
	close(s.ch)
	findings := make([]model.Finding, 0, len(s.ch))
	for f := range s.ch {
		findings = append(findings, f)
	}
	return findings
}

// newInvestigation starts an Investigation in the `created` state.
func newInvestigation(workflow model.WorkflowTemplate, target string, targetType model.TargetType) *model.Investigation {
	return &model.Investigation{
		ID:         uuid.New().String(),
		Workflow:   workflow,
		Target:     target,
		TargetType: targetType,
		Status:     model.InvestigationCreated,
		CreatedAt:  time.Now().UTC(),
	}
}

// addStep appends a Step in `pending` state and returns its index.
func addStep(inv *model.Investigation, name, sourceID string, mandatory bool) int {
	inv.Steps = append(inv.Steps, model.Step{
		StepID: uuid.New().String(), Name: name, SourceID: sourceID,
		Mandatory: mandatory, Status: model.StepPending,
	})
	return len(inv.Steps) - 1
}

func startStep(inv *model.Investigation, idx int) {
	inv.Steps[idx].Status = model.StepRunning
	inv.Steps[idx].StartedAt = time.Now().UTC()
}

func finishStep(inv *model.Investigation, idx int, err error) {
	inv.Steps[idx].CompletedAt = time.Now().UTC()
	if err != nil {
		inv.Steps[idx].Status = model.StepFailed
		inv.Steps[idx].ErrorKind = string(engineerrors.KindOf(err))
		inv.Steps[idx].ErrorDetail = err.Error()
		return
	}
	inv.Steps[idx].Status = model.StepCompleted
}

// sealEvidence appends every Finding to the Evidence Store and attaches
// the resulting entries to the Investigation. A StoreUnavailable error
// on a mandatory investigation (all sealing is mandatory per §4.2) fails
// the Investigation as a whole.
func (o *Orchestrator) sealEvidence(ctx context.Context, inv *model.Investigation, findings []model.Finding) error {
	for _, f := range findings {
		ev, err := o.Evidence.Append(ctx, inv.ID, f)
		if err != nil {
			return engineerrors.StoreUnavailable("evidence", err)
		}
		inv.Evidence = append(inv.Evidence, ev)
		inv.Findings = append(inv.Findings, f)
		metrics.EvidenceAppendedTotal.Inc()
	}
	return nil
}

// runConcurrent fans out `tasks` with bounded concurrency (Config.MaxInFlight,
// default 16), feeding every successful Finding into the sink. It never
// returns an error from an individual task — a failed task contributes
// no Findings and its error is dropped here (task closures record it on
// their Step) — except for ctx cancellation, which is propagated so the
// caller can finalize the Investigation as cancelled.
func (o *Orchestrator) runConcurrent(ctx context.Context, sink *findingsSink, tasks []func(context.Context) ([]model.Finding, error)) error {
	maxInFlight := o.Config.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 16
	}

	group, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxInFlight)

	for _, task := range tasks {
		task := task
		sem <- struct{}{}
		group.Go(func() error {
			defer func() { <-sem }()

			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			findings, err := task(gctx)
			if err != nil {
				// Task-level errors never propagate as Investigation-fatal
				// unless they are context cancellation/deadline; the task
				// closures have already recorded the failure on their Step
				// (Provider Adapters fold their own failures into Findings
				// and do not return them as errors).
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return nil
			}
			for _, f := range findings {
				sink.offer(gctx, f)
			}
			return nil
		})
	}

	return group.Wait()
}

// providerTask wraps one Provider Adapter call as a task closure.
func (o *Orchestrator) providerTask(adapter provideradapter.Adapter, subject model.Subject) func(context.Context) ([]model.Finding, error) {
	return func(ctx context.Context) ([]model.Finding, error) {
		return adapter.Query(ctx, subject)
	}
}

// engineTask wraps one Analysis Engine call as a task closure.
func (o *Orchestrator) engineTask(eng engine.Engine, target engine.Target, opts engine.Options) func(context.Context) ([]model.Finding, error) {
	return func(ctx context.Context) ([]model.Finding, error) {
		return eng.Analyze(ctx, target, opts)
	}
}

// fetchWindow loads a subject's transaction history from the graph
// store. Failures here are StoreUnavailable (mandatory), per §7.
func (o *Orchestrator) fetchWindow(ctx context.Context, address model.Address) ([]model.Transaction, error) {
	if o.GraphStore == nil {
		return nil, nil
	}
	end := time.Now().UTC()
	start := end.Add(-24 * time.Hour)
	txs, err := o.GraphStore.TransactionsInWindow(ctx, address, start, end)
	if err != nil {
		return nil, engineerrors.StoreUnavailable("graphstore", err)
	}
	return txs, nil
}

// fuseAndFinalize runs attribution and risk fusion over the collected
// Findings and attaches the results to the Investigation.
func (o *Orchestrator) fuseAndFinalize(inv *model.Investigation, subject model.Subject) {
	cfg := o.Fusion
	if cfg.Reliability == nil {
		cfg.Reliability = fusion.DefaultReliability
	}
	attribution := fusion.FuseAttribution(subject, inv.Findings, cfg)
	scores := fusion.FeatureScoresFromFindings(inv.Findings)
	risk := fusion.FuseRisk(subject, scores, attribution.ConfidenceScore, "")

	inv.Attribution = &attribution
	inv.Risk = &risk
}

// finalizeOutcome sets the Investigation's terminal status based on
// whether any mandatory step failed, and records processing time.
func finalizeOutcome(inv *model.Investigation, cancelled bool, reason string) {
	inv.CompletedAt = time.Now().UTC()
	inv.ProcessingTime = inv.CompletedAt.Sub(inv.CreatedAt)

	anyMandatoryFailed := false
	for _, s := range inv.Steps {
		if s.Mandatory && s.Status == model.StepFailed {
			anyMandatoryFailed = true
		}
	}

	switch {
	case cancelled:
		inv.Status = model.InvestigationFailed
		inv.Partial = true
		inv.FailureReason = reason
	case anyMandatoryFailed:
		inv.Status = model.InvestigationFailed
		inv.Partial = true
		inv.FailureReason = "mandatory step failed"
	default:
		inv.Status = model.InvestigationCompleted
	}

	outcome := "completed"
	if inv.Status == model.InvestigationFailed {
		outcome = "failed"
	}
	metrics.ObserveInvestigation(string(inv.Workflow), outcome, inv.ProcessingTime)
}
