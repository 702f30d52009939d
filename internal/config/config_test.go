package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDocumentedDefaults(t *testing.T) {
	cfg := New()
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 16, cfg.Orchestrator.MaxInFlight)
	assert.Equal(t, "weighted_average", cfg.Fusion.Strategy)
	assert.Equal(t, 60, cfg.Scheduler.ManualRunCooldownSeconds)
}

func TestNormalizeRestoresZeroedDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.normalize()

	assert.Equal(t, 16, cfg.Orchestrator.MaxInFlight)
	assert.Equal(t, 256, cfg.Orchestrator.FindingsChannelCapacity)
	assert.Equal(t, 100, cfg.Orchestrator.MaxBatchSize)
	assert.Equal(t, 60, cfg.Scheduler.ManualRunCooldownSeconds)
	assert.Equal(t, "weighted_average", cfg.Fusion.Strategy)
}

func TestLoadFromFileParsesYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\nfusion:\n  strategy: consensus\n"), 0o600))

	cfg := New()
	require.NoError(t, loadFromFile(path, cfg))

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "consensus", cfg.Fusion.Strategy)
}

func TestLoadFromFileTreatsMissingFileAsNoOp(t *testing.T) {
	cfg := New()
	require.NoError(t, loadFromFile(filepath.Join(t.TempDir(), "absent.yaml"), cfg))
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestOrchestratorTimeoutHelpers(t *testing.T) {
	c := OrchestratorConfig{AddressDeepScanTimeoutMS: 60_000, FlowTraceTimeoutMS: 120_000}
	assert.Equal(t, 60*time.Second, c.AddressDeepScanTimeout())
	assert.Equal(t, 120*time.Second, c.FlowTraceTimeout())
}

func TestSchedulerCooldownHelper(t *testing.T) {
	s := SchedulerConfig{ManualRunCooldownSeconds: 45}
	assert.Equal(t, 45*time.Second, s.ManualRunCooldown())
}
