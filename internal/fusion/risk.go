package fusion

import (
	"sort"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// riskWeights is the fixed weight table §4.5 specifies for risk fusion.
var riskWeights = map[model.RiskFactor]float64{
	model.FactorTransactionFrequency:   0.15,
	model.FactorAmountVariance:         0.12,
	model.FactorCounterpartyDiversity:  0.10,
	model.FactorTemporalPatterns:       0.08,
	model.FactorMixerUsage:             0.20,
	model.FactorPrivacyToolUsage:       0.15,
	model.FactorCrossChainActivity:     0.10,
	model.FactorLargeAmounts:           0.10,
}

// FeatureScores maps each risk factor to a score in [0,1], derived by
// the caller from engine Findings before calling FuseRisk.
type FeatureScores map[model.RiskFactor]float64

// FuseRisk combines a feature-weighted score vector into a
// RiskAssessment using the fixed weight table (§4.5). primary-factors
// are features with score > 0.7 and weight > 0.15; secondary-factors
// are the remaining features with score > 0.7.
func FuseRisk(subject model.Subject, scores FeatureScores, confidence float64, clusterAffiliation string) model.RiskAssessment {
	var riskScore float64
	var primary, secondary []model.RiskFactor

	factors := sortedFactors(scores)
	for _, factor := range factors {
		score := scores[factor]
		weight := riskWeights[factor]
		riskScore += weight * score

		if score > 0.7 {
			if weight > 0.15 {
				primary = append(primary, factor)
			} else {
				secondary = append(secondary, factor)
			}
		}
	}
	riskScore = clamp01(riskScore)

	assessment := model.RiskAssessment{
		Subject:            subject,
		RiskScore:          riskScore,
		Confidence:         clamp01(confidence),
		PrimaryFactors:     primary,
		SecondaryFactors:   secondary,
		ClusterAffiliation: clusterAffiliation,
	}
	assessment.RecommendedActions = model.RecommendedActionsFor(assessment.RiskLevel())
	return assessment
}

func sortedFactors(scores FeatureScores) []model.RiskFactor {
	factors := make([]model.RiskFactor, 0, len(scores))
	for f := range scores {
		factors = append(factors, f)
	}
	sort.Slice(factors, func(i, j int) bool { return factors[i] < factors[j] })
	return factors
}

// FeatureScoresFromFindings derives a FeatureScores vector from a set of
// engine Findings by inspecting their payloads for the structural
// signals each engine reports (mixer/privacy-tool use, large amounts,
// cross-chain activity). This is the seam between polymorphic Engine
// output and the fixed feature vector Risk fusion expects.
func FeatureScoresFromFindings(findings []model.Finding) FeatureScores {
	scores := FeatureScores{}
	chains := map[string]bool{}
	mixerHits, privacyHits, largeHits := 0, 0, 0
	total := 0

	for _, f := range findings {
		total++
		switch f.Kind {
		case model.FindingMixerUse:
			mixerHits++
		case model.FindingPrivacyToolUse:
			privacyHits++
		}
		if pattern, ok := f.Payload["pattern"].(string); ok {
			switch model.PatternType(pattern) {
			case model.PatternMixerUsage, model.PatternMixerUse:
				mixerHits++
			case model.PatternPrivacyToolUsage, model.PatternPrivacyTool:
				privacyHits++
			case model.PatternLargeAmount:
				largeHits++
			}
		}
		if chain, ok := f.Payload["counterpart_chain"].(string); ok && chain != "" {
			chains[chain] = true
		}
	}

	if total == 0 {
		return scores
	}

	scores[model.FactorMixerUsage] = ratioScore(mixerHits, total)
	scores[model.FactorPrivacyToolUsage] = ratioScore(privacyHits, total)
	scores[model.FactorLargeAmounts] = ratioScore(largeHits, total)
	scores[model.FactorCrossChainActivity] = ratioScore(len(chains), 3)
	scores[model.FactorTransactionFrequency] = ratioScore(total, 20)
	scores[model.FactorAmountVariance] = 0
	scores[model.FactorCounterpartyDiversity] = 0
	scores[model.FactorTemporalPatterns] = 0
	return scores
}

func ratioScore(count, scale int) float64 {
	if scale <= 0 {
		return 0
	}
	return clamp01(float64(count) / float64(scale))
}
