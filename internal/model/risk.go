package model

// RiskLevel is the bucketed label derived from a risk score.
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "very_low"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
	RiskCritical RiskLevel = "critical"
)

// BucketRisk derives the RiskLevel from a score per §3: very_low<0.2,
// low<0.4, medium<0.6, high<0.8, very_high<0.9, critical>=0.9. Note the
// very_high/critical boundary differs from ConfidenceLevel's
// (0.9 here vs 0.95 for confidence) — this is intentional per spec.
func BucketRisk(score float64) RiskLevel {
	switch {
	case score < 0.2:
		return RiskVeryLow
	case score < 0.4:
		return RiskLow
	case score < 0.6:
		return RiskMedium
	case score < 0.8:
		return RiskHigh
	case score < 0.9:
		return RiskVeryHigh
	default:
		return RiskCritical
	}
}

// RiskFactor is one enumerated feature contributing to a RiskAssessment.
type RiskFactor string

const (
	FactorTransactionFrequency RiskFactor = "transaction_frequency"
	FactorAmountVariance       RiskFactor = "amount_variance"
	FactorCounterpartyDiversity RiskFactor = "counterparty_diversity"
	FactorTemporalPatterns     RiskFactor = "temporal_patterns"
	FactorMixerUsage           RiskFactor = "mixer_usage"
	FactorPrivacyToolUsage     RiskFactor = "privacy_tool_usage"
	FactorCrossChainActivity   RiskFactor = "cross_chain_activity"
	FactorLargeAmounts         RiskFactor = "large_amounts"
)

// RecommendedAction is drawn from the fixed catalog looked up by
// risk-level in the Fusion Layer (§4.5).
type RecommendedAction string

const (
	ActionBlockAllActivities  RecommendedAction = "block_all_activities"
	ActionReportToCompliance  RecommendedAction = "report_to_compliance"
	ActionEnhancedDueDiligence RecommendedAction = "enhanced_due_diligence"
	ActionManualReview        RecommendedAction = "manual_review"
	ActionContinuousMonitoring RecommendedAction = "continuous_monitoring"
	ActionNoActionRequired    RecommendedAction = "no_action_required"
)

// RiskAssessment is the consolidated risk verdict for an Address.
type RiskAssessment struct {
	Subject             Subject             `json:"subject"`
	RiskScore           float64             `json:"risk_score"`
	Confidence          float64             `json:"confidence"`
	PrimaryFactors      []RiskFactor        `json:"primary_factors"`
	SecondaryFactors    []RiskFactor        `json:"secondary_factors"`
	ClusterAffiliation  string              `json:"cluster_affiliation,omitempty"`
	RecommendedActions  []RecommendedAction `json:"recommended_actions"`
}

// RiskLevel derives the bucketed label from RiskScore.
func (r RiskAssessment) RiskLevel() RiskLevel {
	return BucketRisk(r.RiskScore)
}

// RecommendedActionsFor looks up the fixed action catalog by risk level
// (§4.5: "recommended-actions is derived from risk-level by a fixed
// lookup").
func RecommendedActionsFor(level RiskLevel) []RecommendedAction {
	switch level {
	case RiskCritical:
		return []RecommendedAction{ActionBlockAllActivities, ActionReportToCompliance}
	case RiskVeryHigh:
		return []RecommendedAction{ActionReportToCompliance, ActionEnhancedDueDiligence}
	case RiskHigh:
		return []RecommendedAction{ActionEnhancedDueDiligence, ActionManualReview}
	case RiskMedium:
		return []RecommendedAction{ActionManualReview, ActionContinuousMonitoring}
	case RiskLow:
		return []RecommendedAction{ActionContinuousMonitoring}
	default:
		return []RecommendedAction{ActionNoActionRequired}
	}
}
