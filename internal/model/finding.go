package model

import "time"

// FindingKind is the closed set of observation kinds a Provider Adapter
// or Analysis Engine can emit.
type FindingKind string

const (
	FindingSanctionsHit      FindingKind = "sanctions_hit"
	FindingRiskScore         FindingKind = "risk_score"
	FindingLabel             FindingKind = "label"
	FindingPattern           FindingKind = "pattern"
	FindingBridgeTransfer    FindingKind = "bridge_transfer"
	FindingMixerUse          FindingKind = "mixer_use"
	FindingPrivacyToolUse    FindingKind = "privacy_tool_use"
	FindingClusterMembership FindingKind = "cluster_membership"
	FindingAttribution       FindingKind = "attribution"
	// FindingError and FindingRateLimited are never thrown across an
	// adapter boundary as an exception — they are ordinary Findings with
	// confidence 0, per §4.1 and §7.
	FindingError       FindingKind = "error"
	FindingRateLimited FindingKind = "rate_limited"
	FindingDropped     FindingKind = "dropped"
)

// Severity is monotone in impact.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Subject is the tagged union a Finding/FundFlow attaches to: an
// Address, a Transaction, or a Flow (identified by flow id).
type Subject struct {
	Kind        string  `json:"kind"` // "address" | "transaction" | "flow"
	Address     Address `json:"address,omitempty"`
	Transaction string  `json:"transaction_hash,omitempty"`
	FlowID      string  `json:"flow_id,omitempty"`
}

// AddressSubject builds a Subject wrapping an Address.
func AddressSubject(a Address) Subject {
	return Subject{Kind: "address", Address: a.Canonical()}
}

// TransactionSubject builds a Subject wrapping a transaction hash.
func TransactionSubject(hash string) Subject {
	return Subject{Kind: "transaction", Transaction: hash}
}

// FlowSubject builds a Subject wrapping a flow id.
func FlowSubject(flowID string) Subject {
	return Subject{Kind: "flow", FlowID: flowID}
}

// Finding is one discrete observation from one source — the atomic
// unit Fusion consumes.
type Finding struct {
	ID         string                 `json:"id"`
	Subject    Subject                `json:"subject"`
	Kind       FindingKind            `json:"kind"`
	Severity   Severity               `json:"severity"`
	Confidence float64                `json:"confidence"` // invariant: in [0,1]
	SourceID   string                 `json:"source_id"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Valid reports whether the Finding satisfies its invariants:
// confidence in [0,1] and a non-empty source id. Severity monotonicity
// and source-id registration are checked by the caller holding the
// Protocol/Provider registries, not by the Finding itself.
func (f Finding) Valid() bool {
	return f.Confidence >= 0 && f.Confidence <= 1 && f.SourceID != ""
}
