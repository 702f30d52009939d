package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultsToInfoOnInvalidLevel(t *testing.T) {
	l := New("orchestrator", "not-a-level", "json")
	assert.Equal(t, "info", l.GetLevel().String())
}

func TestNewSelectsTextFormatterWhenNotJSON(t *testing.T) {
	l := New("scheduler", "debug", "text")
	assert.Equal(t, "debug", l.GetLevel().String())
}

func TestContextCorrelationRoundTrips(t *testing.T) {
	ctx := context.Background()
	ctx = WithInvestigationID(ctx, "inv-1")
	ctx = WithTaskID(ctx, "task-1")

	assert.Equal(t, "inv-1", InvestigationID(ctx))
	assert.Equal(t, "task-1", TaskID(ctx))
}

func TestInvestigationIDEmptyWhenUnset(t *testing.T) {
	assert.Equal(t, "", InvestigationID(context.Background()))
	assert.Equal(t, "", TaskID(context.Background()))
}

func TestDefaultLazilyInitializes(t *testing.T) {
	assert.NotNil(t, Default())
}
