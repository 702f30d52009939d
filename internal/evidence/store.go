// Package evidence implements the append-only, tamper-evident Evidence
// Store (§4.2): every Finding stamped into an Investigation is recorded
// with a content hash computed over a canonical serialization, a
// strictly increasing per-investigation sequence number, and never
// rewritten. Purge operates at investigation granularity only.
package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// Store is the append(...) / list(...) / purge(...) contract from §4.2.
type Store interface {
	Append(ctx context.Context, investigationID string, finding model.Finding) (model.Evidence, error)
	List(ctx context.Context, investigationID string) ([]model.Evidence, error)
	Purge(ctx context.Context, before time.Time) (int, error)
	Verify(ctx context.Context, e model.Evidence) bool
}

// InMemoryStore is the default Store: safe for concurrent use, holds
// evidence grouped by investigation with a monotonic per-investigation
// sequence counter.
type InMemoryStore struct {
	mu       sync.Mutex
	byInv    map[string][]model.Evidence
	sequence map[string]int64
	created  map[string]time.Time // first-append time per investigation, for Purge
}

// NewInMemoryStore creates an empty Evidence Store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byInv:    make(map[string][]model.Evidence),
		sequence: make(map[string]int64),
		created:  make(map[string]time.Time),
	}
}

// Append seals one Finding into the store, computing its content hash
// over a canonical encoding and assigning the next sequence number for
// this investigation.
func (s *InMemoryStore) Append(ctx context.Context, investigationID string, finding model.Finding) (model.Evidence, error) {
	select {
	case <-ctx.Done():
		return model.Evidence{}, ctx.Err()
	default:
	}

	hash, err := ContentHash(finding)
	if err != nil {
		return model.Evidence{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequence[investigationID]++
	seq := s.sequence[investigationID]

	now := time.Now().UTC()
	if _, ok := s.created[investigationID]; !ok {
		s.created[investigationID] = now
	}

	f := finding
	ev := model.Evidence{
		ID:              uuid.New().String(),
		InvestigationID: investigationID,
		Sequence:        seq,
		FindingID:       finding.ID,
		Finding:         &f,
		Source:          finding.SourceID,
		Timestamp:       now,
		ContentHash:     hash,
	}
	s.byInv[investigationID] = append(s.byInv[investigationID], ev)
	return ev, nil
}

// List returns an investigation's Evidence in append (sequence) order.
func (s *InMemoryStore) List(ctx context.Context, investigationID string) ([]model.Evidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append([]model.Evidence(nil), s.byInv[investigationID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Sequence < entries[j].Sequence })
	return entries, nil
}

// Purge removes whole investigations whose first evidence predates
// `before`, returning the number of investigations removed.
func (s *InMemoryStore) Purge(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, createdAt := range s.created {
		if createdAt.Before(before) {
			delete(s.byInv, id)
			delete(s.sequence, id)
			delete(s.created, id)
			removed++
		}
	}
	return removed, nil
}

// Verify recomputes the content hash from the stored payload and
// compares it to the stored hash — the invariant every consumer of a
// sealed report must be able to check (§8).
func (s *InMemoryStore) Verify(ctx context.Context, e model.Evidence) bool {
	if e.Finding == nil {
		return false
	}
	hash, err := ContentHash(*e.Finding)
	if err != nil {
		return false
	}
	return hash == e.ContentHash
}

// canonicalFinding is the stable-key-ordered, fixed-decimal,
// UTC-ISO-8601 encoding §4.2 requires content hashes to be computed
// over. Using a struct with explicit field order (rather than
// json.Marshal on a map) gives deterministic key ordering without
// needing a custom encoder.
type canonicalFinding struct {
	ID         string  `json:"id"`
	SubjectKind string `json:"subject_kind"`
	Subject    string  `json:"subject"`
	Kind       string  `json:"kind"`
	Severity   string  `json:"severity"`
	Confidence string  `json:"confidence"` // fixed decimal form
	SourceID   string  `json:"source_id"`
	CreatedAt  string  `json:"created_at"` // UTC ISO-8601
}

// ContentHash computes the canonical SHA-256 content hash of a Finding.
func ContentHash(f model.Finding) (string, error) {
	subject := f.Subject.Address.Key()
	if f.Subject.Kind == "transaction" {
		subject = f.Subject.Transaction
	} else if f.Subject.Kind == "flow" {
		subject = f.Subject.FlowID
	}

	canon := canonicalFinding{
		ID:          f.ID,
		SubjectKind: f.Subject.Kind,
		Subject:     subject,
		Kind:        string(f.Kind),
		Severity:    string(f.Severity),
		Confidence:  formatDecimal(f.Confidence),
		SourceID:    f.SourceID,
		CreatedAt:   f.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	raw, err := json.Marshal(canon)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// formatDecimal renders a float in a fixed decimal form so that
// serialization does not vary across platforms/encoders. Six decimal
// places is enough precision for confidence/risk scores, always in
// [0,1].
func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
