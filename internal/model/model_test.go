package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBucketConfidence(t *testing.T) {
	cases := []struct {
		score float64
		want  ConfidenceLevel
	}{
		{0.0, ConfidenceVeryLow},
		{0.19, ConfidenceVeryLow},
		{0.2, ConfidenceLow},
		{0.39, ConfidenceLow},
		{0.4, ConfidenceMedium},
		{0.59, ConfidenceMedium},
		{0.6, ConfidenceHigh},
		{0.79, ConfidenceHigh},
		{0.8, ConfidenceVeryHigh},
		{0.94, ConfidenceVeryHigh},
		{0.95, ConfidenceDefinitive},
		{1.0, ConfidenceDefinitive},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, BucketConfidence(c.score), "score=%v", c.score)
	}
}

func TestBucketRisk(t *testing.T) {
	cases := []struct {
		score float64
		want  RiskLevel
	}{
		{0.0, RiskVeryLow},
		{0.19, RiskVeryLow},
		{0.2, RiskLow},
		{0.39, RiskLow},
		{0.4, RiskMedium},
		{0.59, RiskMedium},
		{0.6, RiskHigh},
		{0.79, RiskHigh},
		{0.8, RiskVeryHigh},
		{0.89, RiskVeryHigh},
		{0.9, RiskCritical},
		{1.0, RiskCritical},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, BucketRisk(c.score), "score=%v", c.score)
	}
}

func TestFundFlowTotalAmountIsMaxNotSum(t *testing.T) {
	flow := FundFlow{
		Path: []Transaction{
			{ChainID: "ethereum", Value: 100, Timestamp: 1000},
			{ChainID: "polygon", Value: 450, Timestamp: 1180},
			{ChainID: "ethereum", Value: 50, Timestamp: 1300},
		},
	}
	assert.Equal(t, 450.0, flow.TotalAmount())
	assert.Equal(t, 3, flow.HopCount())
	assert.ElementsMatch(t, []string{"ethereum", "polygon"}, flow.Blockchains())
	assert.Equal(t, 300*time.Second, flow.Duration())
}

func TestScheduledTaskCooldown(t *testing.T) {
	now := time.Now()
	task := ScheduledTask{
		LastSuccess: now.Add(-10 * time.Second),
		Cooldown:    60 * time.Second,
	}
	assert.False(t, task.CooldownElapsed(now))
	assert.True(t, task.CooldownElapsed(now.Add(51*time.Second)))
}

func TestAddressCanonicalization(t *testing.T) {
	a := Address{ChainID: "ethereum", Value: "0xDEAD0000beef"}
	c := a.Canonical()
	assert.Equal(t, "0xdead0000beef", c.Value)
	assert.Equal(t, "ethereum:0xdead0000beef", a.Key())
}

func TestRecommendedActionsFor(t *testing.T) {
	assert.Contains(t, RecommendedActionsFor(RiskCritical), ActionBlockAllActivities)
	assert.Contains(t, RecommendedActionsFor(RiskCritical), ActionReportToCompliance)
	assert.Equal(t, []RecommendedAction{ActionNoActionRequired}, RecommendedActionsFor(RiskVeryLow))
}
