// Command orchestratord is the composition root for the intelligence
// orchestration engine: it wires configuration, logging, caching,
// Provider Adapters, Analysis Engines, the Protocol Registry, the
// Evidence Store, the graph store, the Fusion Layer, the Investigation
// Orchestrator, the relational repository, and the Scheduler, then runs
// an HTTP-free supervisor loop until signalled to stop.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chainsentinel/orchestrator/internal/cache"
	"github.com/chainsentinel/orchestrator/internal/config"
	"github.com/chainsentinel/orchestrator/internal/engine"
	"github.com/chainsentinel/orchestrator/internal/evidence"
	"github.com/chainsentinel/orchestrator/internal/fusion"
	"github.com/chainsentinel/orchestrator/internal/graphstore"
	"github.com/chainsentinel/orchestrator/internal/logging"
	"github.com/chainsentinel/orchestrator/internal/model"
	"github.com/chainsentinel/orchestrator/internal/orchestrator"
	"github.com/chainsentinel/orchestrator/internal/provideradapter"
	"github.com/chainsentinel/orchestrator/internal/registry"
	"github.com/chainsentinel/orchestrator/internal/repository"
	"github.com/chainsentinel/orchestrator/internal/scheduler"
	"github.com/go-redis/redis/v8"
)

func main() {
	log := logging.NewFromEnv("orchestratord")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cacheBackend := buildCache(cfg, log)
	providers, reliabilities := buildProviders(cfg, cacheBackend)
	reg := registry.New()
	reg.Refresh(registry.Seed())
	engines := buildEngines(reg)
	gs := graphstore.NewInMemoryStore()
	ev := evidence.NewInMemoryStore()

	fusionCfg := fusion.Config{
		Strategy:               fusion.Strategy(cfg.Fusion.Strategy),
		ConsensusK:             cfg.Fusion.ConsensusK,
		MinConfidenceThreshold: cfg.Fusion.MinConfidenceThreshold,
		Reliability:            providerReliability(reliabilities),
	}

	orch := orchestrator.New(providers, engines, gs, ev, reg, fusionCfg, cfg.Orchestrator)

	var store repository.Store
	if cfg.Database.DSN != "" {
		pg, err := repository.Open(cfg.Database.DSN)
		if err != nil {
			log.Errorf("repository unavailable, proceeding without persistence: %v", err)
		} else {
			defer pg.Close()
			store = pg
		}
	}

	sched := scheduler.New(8)
	sched.PollInterval = 30 * time.Second
	registerBuiltinTasks(sched, orch, reg, ev, store, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)

	log.Infof("orchestratord started: %d providers, %d engines, %d protocol entries", len(providers), len(engines), reg.Count())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := sched.Stop(stopCtx); err != nil {
		log.Errorf("scheduler stop: %v", err)
	}
}

func buildCache(cfg *config.Config, log *logging.Logger) cache.Cache {
	if cfg.Cache.Backend == "redis" && cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Errorf("redis cache unavailable, falling back to in-process TTL cache: %v", err)
			return cache.NewTTLCache(cache.ProviderResponseTTL)
		}
		return cache.NewRedisCache(client)
	}
	return cache.NewTTLCache(time.Duration(cfg.Cache.ProviderResponseTTL) * time.Second)
}

// defaultProviders is used when no Providers are configured in
// config.yaml, supplying five intelligence sources that newProviderByKind
// routes to the risk-score, label and entity-attribution adapters; none
// of the defaults is routed to the sanctions adapter.
func defaultProviders() []config.ProviderConfig {
	return []config.ProviderConfig{
		{ID: "chainalysis-risk", BaseURL: "https://api.chainalysis.example/v1/risk", RequestsPerHour: 1000, Reliability: 0.9},
		{ID: "elliptic-risk", BaseURL: "https://api.elliptic.example/v2/risk", RequestsPerHour: 1000, Reliability: 0.88},
		{ID: "cipherblade-labels", BaseURL: "https://api.cipherblade.example/v1/labels", RequestsPerHour: 500, Reliability: 0.75},
		{ID: "arkham-entity", BaseURL: "https://api.arkhamintelligence.example/v1/entity", RequestsPerHour: 600, Reliability: 0.82},
		{ID: "etherscan-labels", BaseURL: "https://api.etherscan.example/v1/labels", RequestsPerHour: 5000, Reliability: 0.7},
	}
}

func buildProviders(cfg *config.Config, c cache.Cache) ([]provideradapter.Adapter, map[string]float64) {
	providerCfgs := cfg.Providers
	if len(providerCfgs) == 0 {
		providerCfgs = defaultProviders()
	}

	out := make([]provideradapter.Adapter, 0, len(providerCfgs))
	reliabilities := make(map[string]float64, len(providerCfgs))
	for _, pc := range providerCfgs {
		transport := provideradapter.NewHTTPTransport(pc.BaseURL, pc.AuthHeader, pc.AuthToken)
		adapter, reliability := newProviderByKind(pc.ID, transport, c, pc.Reliability)
		out = append(out, adapter)
		reliabilities[pc.ID] = reliability
	}
	return out, reliabilities
}

// newProviderByKind routes a configured provider id to the concrete
// adapter shape it implies: "*risk*" -> risk-score, "*label*" -> label
// lookup, "*entity*" -> entity attribution, everything else -> sanctions
// screening (the conservative default since sanctions-list exposure
// blocks every other workflow step per §4.1).
func newProviderByKind(id string, transport provideradapter.Transport, c cache.Cache, reliability float64) (provideradapter.Adapter, float64) {
	switch {
	case strings.Contains(id, "risk"):
		a := provideradapter.NewRiskScoreAdapter(id, transport, c)
		a.Reliability = withDefault(reliability, a.Reliability)
		return a, a.Reliability
	case strings.Contains(id, "label"):
		a := provideradapter.NewLabelAdapter(id, transport, c)
		a.Reliability = withDefault(reliability, a.Reliability)
		return a, a.Reliability
	case strings.Contains(id, "entity"):
		a := provideradapter.NewEntityAttributionAdapter(id, transport, c)
		a.Reliability = withDefault(reliability, a.Reliability)
		return a, a.Reliability
	default:
		a := provideradapter.NewSanctionsAdapter(id, transport, c)
		a.Reliability = withDefault(reliability, a.Reliability)
		return a, a.Reliability
	}
}

func withDefault(configured, fallback float64) float64 {
	if configured > 0 {
		return configured
	}
	return fallback
}

func providerReliability(reliabilities map[string]float64) fusion.SourceReliability {
	return func(sourceID string) float64 {
		if r, ok := reliabilities[sourceID]; ok {
			return r
		}
		return fusion.DefaultReliability(sourceID)
	}
}

func buildEngines(reg *registry.Registry) []engine.Engine {
	return []engine.Engine{
		engine.NewCrossChainTracer(reg),
		engine.NewBridgeTracker(reg),
		engine.NewMixerDetector(reg),
		engine.NewStablecoinFlowTracker(reg),
		engine.NewPatternDetector(),
		engine.NewMLClusteringRiskScorer(reg),
	}
}

// watchlist is the small set of addresses the periodic scans operate
// over in the absence of an external case-management system feeding
// the Orchestrator new targets.
func watchlist() []model.Address {
	return []model.Address{
		{ChainID: "ethereum", Value: "0x1111111111111111111111111111111111111111"},
		{ChainID: "ethereum", Value: "0x2222222222222222222222222222222222222222"},
		{ChainID: "polygon", Value: "0x3333333333333333333333333333333333333333"},
	}
}

func registerBuiltinTasks(sched *scheduler.Scheduler, orch *orchestrator.Orchestrator, reg *registry.Registry, ev evidence.Store, store repository.Store, log *logging.Logger) {
	specs := scheduler.BuiltinSpecs()
	handlers := map[string]scheduler.Handler{
		scheduler.TaskHourlyBenchmark:        hourlyBenchmarkTask(orch, store, log),
		scheduler.TaskDailyComprehensiveScan: dailyComprehensiveScanTask(orch, store, log),
		scheduler.TaskWeeklyExecutiveReport:  weeklyExecutiveReportTask(store, log),
		scheduler.TaskMonthlyCostROI:         monthlyCostROITask(orch, store, log),
		scheduler.TaskAnomalyScan:            anomalyScanTask(orch, store, log),
		scheduler.TaskDailyMaintenance:       dailyMaintenanceTask(ev, log),
		scheduler.TaskWeeklyModelRetrain:     weeklyModelRetrainTask(reg, log),
	}

	for _, spec := range specs {
		handler, ok := handlers[spec.ID]
		if !ok {
			continue
		}
		if err := sched.Register(spec, handler); err != nil {
			log.Errorf("register task %q: %v", spec.ID, err)
		}
	}
}

func hourlyBenchmarkTask(orch *orchestrator.Orchestrator, store repository.Store, log *logging.Logger) scheduler.Handler {
	return func(ctx context.Context) error {
		start := time.Now().UTC()
		_, _, err := orch.RunBatchAttribution(ctx, watchlist())
		elapsed := time.Since(start)
		if store != nil {
			_ = store.InsertBenchmark(ctx, model.Benchmark{
				Metric:     "watchlist_scan_latency_ms",
				Value:      float64(elapsed.Milliseconds()),
				RecordedAt: time.Now().UTC(),
			})
		}
		return err
	}
}

func dailyComprehensiveScanTask(orch *orchestrator.Orchestrator, store repository.Store, log *logging.Logger) scheduler.Handler {
	return func(ctx context.Context) error {
		results, dist, err := orch.RunBatchAttribution(ctx, watchlist())
		if err != nil {
			return err
		}
		if store != nil {
			_ = store.InsertReport(ctx, model.Report{
				Kind:      "investigation",
				Title:     "Daily comprehensive scan",
				Summary:   summarizeDistribution(len(results), dist),
				CreatedAt: time.Now().UTC(),
			})
		}
		return nil
	}
}

func weeklyExecutiveReportTask(store repository.Store, log *logging.Logger) scheduler.Handler {
	return func(ctx context.Context) error {
		if store == nil {
			return nil
		}
		since := time.Now().UTC().Add(-7 * 24 * time.Hour)
		reports, err := store.ListReports(ctx, "investigation", 100)
		if err != nil {
			return err
		}
		recent := 0
		for _, r := range reports {
			if r.CreatedAt.After(since) {
				recent++
			}
		}
		return store.InsertReport(ctx, model.Report{
			Kind:      "executive",
			Title:     "Weekly executive summary",
			Summary:   strconv.Itoa(recent) + " investigation reports filed this week",
			CreatedAt: time.Now().UTC(),
		})
	}
}

func monthlyCostROITask(orch *orchestrator.Orchestrator, store repository.Store, log *logging.Logger) scheduler.Handler {
	return func(ctx context.Context) error {
		if store == nil {
			return nil
		}
		return store.InsertReport(ctx, model.Report{
			Kind:      "cost_roi",
			Title:     "Monthly cost / ROI analysis",
			Summary:   "provider call volume and investigation throughput for the past month",
			CreatedAt: time.Now().UTC(),
		})
	}
}

func anomalyScanTask(orch *orchestrator.Orchestrator, store repository.Store, log *logging.Logger) scheduler.Handler {
	return func(ctx context.Context) error {
		results, _, err := orch.RunBatchAttribution(ctx, watchlist())
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Investigation == nil || r.Investigation.Risk == nil {
				continue
			}
			level := r.Investigation.Risk.RiskLevel()
			if level == model.RiskCritical || level == model.RiskVeryHigh {
				log.Warnf("anomaly scan: %s flagged %s", r.Address.Key(), level)
				if store != nil {
					_ = store.InsertPerformanceAlert(ctx, model.PerformanceAlert{
						Source:   "anomaly-scan",
						Severity: model.SeverityHigh,
						Message:  r.Address.Key() + " flagged " + string(level),
						RaisedAt: time.Now().UTC(),
					})
				}
			}
		}
		return nil
	}
}

func dailyMaintenanceTask(ev evidence.Store, log *logging.Logger) scheduler.Handler {
	return func(ctx context.Context) error {
		cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
		purged, err := ev.Purge(ctx, cutoff)
		if err != nil {
			return err
		}
		log.Infof("daily maintenance purged evidence of %d investigations older than %s", purged, cutoff)
		return nil
	}
}

func weeklyModelRetrainTask(reg *registry.Registry, log *logging.Logger) scheduler.Handler {
	return func(ctx context.Context) error {
		n := reg.Refresh(registry.Seed())
		log.Infof("weekly model retrain: protocol registry refreshed, net change %d entries", n)
		return nil
	}
}

func summarizeDistribution(total int, dist orchestrator.ConfidenceDistribution) string {
	return "scanned " + strconv.Itoa(total) + " addresses across " + strconv.Itoa(len(dist)) + " confidence buckets"
}
