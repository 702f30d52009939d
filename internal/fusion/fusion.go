// Package fusion implements the Fusion Layer (§4.5): the deterministic,
// order-independent combination of concurrent Findings into one
// Attribution and one RiskAssessment.
package fusion

import (
	"math"
	"sort"
	"time"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// Strategy selects the attribution-fusion algorithm.
type Strategy string

const (
	StrategyWeightedAverage   Strategy = "weighted_average"
	StrategyHighestConfidence Strategy = "highest_confidence"
	StrategyConsensus         Strategy = "consensus"
)

// SourceReliability looks up the declared reliability of a Finding's
// source. Callers typically back this with the Provider Adapter
// registry's configured reliabilities; engines are treated as
// reliability 1.0 by DefaultReliability unless the caller overrides it.
type SourceReliability func(sourceID string) float64

// DefaultReliability returns 1.0 for any source, used when the caller
// has no per-source reliability table.
func DefaultReliability(string) float64 { return 1.0 }

// Config controls fusion behaviour (§4.5, §9: consensus_k defaults to
// ceil(n/2)+1 when unset).
type Config struct {
	Strategy               Strategy
	ConsensusK             int
	MinConfidenceThreshold float64
	Reliability            SourceReliability
}

// DefaultConfig matches the documented defaults.
func DefaultConfig() Config {
	return Config{
		Strategy:               StrategyWeightedAverage,
		MinConfidenceThreshold: 0.3,
		Reliability:            DefaultReliability,
	}
}

// Disagreement records two sources whose claimed entity-labels differ.
type Disagreement struct {
	SourceA, LabelA string
	SourceB, LabelB string
}

// FuseAttribution combines Findings carrying an entity-label claim
// (labels, attributions, sanctions hits) into one Attribution. Findings
// below MinConfidenceThreshold are discarded before fusion, per §4.5.
// Fusion is commutative/associative by construction: the result depends
// only on the input multiset, never on arrival order (§8).
func FuseAttribution(subject model.Subject, findings []model.Finding, cfg Config) model.Attribution {
	if cfg.Reliability == nil {
		cfg.Reliability = DefaultReliability
	}
	if cfg.MinConfidenceThreshold <= 0 {
		cfg.MinConfidenceThreshold = 0.3
	}

	claims := filterLabelClaims(findings, cfg.MinConfidenceThreshold)
	attribution := model.Attribution{
		Subject:             subject,
		EntityType:          model.EntityUnknown,
		ContributingSources: sourceIDs(claims),
		SourceDetails:       sourceDetails(claims, cfg.Reliability),
		VerificationStatus:  model.VerificationUnverified,
		CreatedAt:           time.Now().UTC(),
		LastUpdated:         time.Now().UTC(),
	}

	if len(claims) == 0 {
		return attribution
	}

	switch cfg.Strategy {
	case StrategyHighestConfidence:
		fuseHighestConfidence(&attribution, claims)
	case StrategyConsensus:
		fuseConsensus(&attribution, claims, cfg)
	default:
		fuseWeightedAverage(&attribution, claims, cfg.Reliability)
	}

	return attribution
}

func filterLabelClaims(findings []model.Finding, threshold float64) []model.Finding {
	var claims []model.Finding
	for _, f := range findings {
		if f.Confidence < threshold {
			continue
		}
		switch f.Kind {
		case model.FindingLabel, model.FindingAttribution, model.FindingSanctionsHit:
			claims = append(claims, f)
		}
	}
	// Deterministic order: stable-sort by (source_id, id) so fusion output
	// (e.g. plurality tie-breaks) is reproducible across runs.
	sort.SliceStable(claims, func(i, j int) bool {
		if claims[i].SourceID != claims[j].SourceID {
			return claims[i].SourceID < claims[j].SourceID
		}
		return claims[i].ID < claims[j].ID
	})
	return claims
}

func labelOf(f model.Finding) string {
	if f.Kind == model.FindingSanctionsHit {
		if program, ok := f.Payload["program"].(string); ok && program != "" {
			return "sanctioned:" + program
		}
		return "sanctioned"
	}
	if label, ok := f.Payload["label"].(string); ok {
		return label
	}
	if label, ok := f.Payload["entity_label"].(string); ok {
		return label
	}
	return ""
}

func entityTypeOf(f model.Finding) model.EntityType {
	raw, _ := f.Payload["entity_type"].(string)
	switch raw {
	case string(model.EntityExchange):
		return model.EntityExchange
	case string(model.EntityMixer):
		return model.EntityMixer
	case string(model.EntityPrivacyTool):
		return model.EntityPrivacyTool
	case string(model.EntityInstitutional):
		return model.EntityInstitutional
	case string(model.EntityRetail):
		return model.EntityRetail
	case string(model.EntityWhale):
		return model.EntityWhale
	case string(model.EntityScam):
		return model.EntityScam
	case string(model.EntityGambling):
		return model.EntityGambling
	case string(model.EntityDeFi):
		return model.EntityDeFi
	case string(model.EntityMining):
		return model.EntityMining
	case string(model.EntityBridge):
		return model.EntityBridge
	default:
		if f.Kind == model.FindingSanctionsHit {
			return model.EntityScam
		}
		return model.EntityUnknown
	}
}

func fuseWeightedAverage(a *model.Attribution, claims []model.Finding, reliability SourceReliability) {
	var weightedConfidence, totalReliability float64
	labelWeight := map[string]float64{}
	labelEntityType := map[string]model.EntityType{}

	for _, f := range claims {
		r := reliability(f.SourceID)
		weightedConfidence += r * f.Confidence
		totalReliability += r

		label := labelOf(f)
		labelWeight[label] += r
		if _, ok := labelEntityType[label]; !ok {
			labelEntityType[label] = entityTypeOf(f)
		}
	}

	if totalReliability > 0 {
		a.ConfidenceScore = clamp01(weightedConfidence / totalReliability)
	}

	chosenLabel := plurality(labelWeight)
	a.EntityLabel = chosenLabel
	a.EntityType = labelEntityType[chosenLabel]
	a.VerificationStatus = model.VerificationUnverified
}

func fuseHighestConfidence(a *model.Attribution, claims []model.Finding) {
	best := claims[0]
	for _, f := range claims[1:] {
		if f.Confidence > best.Confidence {
			best = f
		}
	}
	a.ConfidenceScore = clamp01(best.Confidence)
	a.EntityLabel = labelOf(best)
	a.EntityType = entityTypeOf(best)
}

func fuseConsensus(a *model.Attribution, claims []model.Finding, cfg Config) {
	k := cfg.ConsensusK
	if k <= 0 {
		k = (len(claims)+1)/2 + 1
	}

	labelCounts := map[string]int{}
	labelEntityType := map[string]model.EntityType{}
	for _, f := range claims {
		label := labelOf(f)
		labelCounts[label]++
		if _, ok := labelEntityType[label]; !ok {
			labelEntityType[label] = entityTypeOf(f)
		}
	}

	winner := ""
	winnerCount := 0
	for label, count := range labelCounts {
		if count > winnerCount || (count == winnerCount && label < winner) {
			winner, winnerCount = label, count
		}
	}

	if winnerCount >= k {
		a.EntityLabel = winner
		a.EntityType = labelEntityType[winner]
		a.ConfidenceScore = clamp01(float64(winnerCount) / float64(len(claims)))
		a.VerificationStatus = model.VerificationVerified
	} else {
		a.EntityLabel = ""
		a.ConfidenceScore = clamp01(float64(winnerCount) / float64(len(claims)))
		a.VerificationStatus = model.VerificationUnverified
	}
}

func plurality(weights map[string]float64) string {
	winner := ""
	best := -1.0
	labels := make([]string, 0, len(weights))
	for l := range weights {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		if weights[l] > best {
			winner, best = l, weights[l]
		}
	}
	return winner
}

func sourceIDs(claims []model.Finding) []string {
	seen := map[string]bool{}
	var ids []string
	for _, f := range claims {
		if !seen[f.SourceID] {
			seen[f.SourceID] = true
			ids = append(ids, f.SourceID)
		}
	}
	return ids
}

func sourceDetails(claims []model.Finding, reliability SourceReliability) map[string]model.SourceDetail {
	details := make(map[string]model.SourceDetail, len(claims))
	for _, f := range claims {
		details[f.SourceID] = model.SourceDetail{
			Confidence:  f.Confidence,
			Reliability: reliability(f.SourceID),
			Coverage:    1.0,
		}
	}
	return details
}

// Disagreements returns every pair of sources whose claimed labels
// differ, for audit.
func Disagreements(claims []model.Finding) []Disagreement {
	var out []Disagreement
	for i := 0; i < len(claims); i++ {
		for j := i + 1; j < len(claims); j++ {
			li, lj := labelOf(claims[i]), labelOf(claims[j])
			if li != lj {
				out = append(out, Disagreement{
					SourceA: claims[i].SourceID, LabelA: li,
					SourceB: claims[j].SourceID, LabelB: lj,
				})
			}
		}
	}
	return out
}

// SourceAgreement is the fraction of claims whose label equals the
// chosen label, per §4.5.
func SourceAgreement(claims []model.Finding, chosenLabel string) float64 {
	if len(claims) == 0 {
		return 0
	}
	agree := 0
	for _, f := range claims {
		if labelOf(f) == chosenLabel {
			agree++
		}
	}
	return float64(agree) / float64(len(claims))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
