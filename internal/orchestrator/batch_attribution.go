package orchestrator

import (
	"context"
	"sort"

	engineerrors "github.com/chainsentinel/orchestrator/internal/errors"
	"github.com/chainsentinel/orchestrator/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchResult pairs one address with its deep-scan Investigation.
type BatchResult struct {
	Address       model.Address
	Investigation *model.Investigation
	Err           error
}

// ConfidenceDistribution counts a batch's per-address Attributions by
// the same ConfidenceLevel buckets a single Attribution reports.
type ConfidenceDistribution map[model.ConfidenceLevel]int

// RunBatchAttribution multiplexes the address deep-scan workflow over
// up to MaxBatchSize addresses, bounding concurrency the same way a
// single scan bounds its provider/engine fan-out, and collects an
// aggregate confidence distribution across the batch. A failure on one
// address never aborts the others.
func (o *Orchestrator) RunBatchAttribution(ctx context.Context, addresses []model.Address) ([]BatchResult, ConfidenceDistribution, error) {
	if len(addresses) == 0 {
		return nil, nil, engineerrors.InvalidInput("batch", "at least one address is required")
	}
	maxBatch := o.Config.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = 100
	}
	if len(addresses) > maxBatch {
		return nil, nil, engineerrors.InvalidInput("batch", "batch size exceeds the maximum of 100 addresses")
	}

	maxInFlight := o.Config.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 16
	}

	results := make([]BatchResult, len(addresses))
	sem := make(chan struct{}, maxInFlight)
	group, gctx := errgroup.WithContext(ctx)

	for i, addr := range addresses {
		i, addr := i, addr
		sem <- struct{}{}
		group.Go(func() error {
			defer func() { <-sem }()
			inv, err := o.RunAddressDeepScan(gctx, addr)
			results[i] = BatchResult{Address: addr, Investigation: inv, Err: err}
			return nil
		})
	}
	_ = group.Wait()

	sortByAddress(results)

	dist := ConfidenceDistribution{}
	for _, r := range results {
		if r.Investigation == nil || r.Investigation.Attribution == nil {
			dist[model.ConfidenceVeryLow]++
			continue
		}
		dist[r.Investigation.Attribution.ConfidenceLevel()]++
	}

	return results, dist, nil
}

// sortByAddress orders batch results deterministically for reporting.
func sortByAddress(results []BatchResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Address.Key() < results[j].Address.Key()
	})
}
