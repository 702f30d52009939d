// Package graphstore defines the external graph-store collaborator
// interface (§6): upsert address/transaction, append typed
// relationships, shortest-path queries bounded by depth and time
// window, and range queries. The production graph store is out of
// scope; this package also ships an in-memory implementation used by
// the Orchestrator's tests and by small deployments that do not need a
// durable backend.
package graphstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// RelationshipType is the closed set of edge kinds the graph store
// records between two addresses.
type RelationshipType string

const (
	RelSent            RelationshipType = "SENT"
	RelReceived        RelationshipType = "RECEIVED"
	RelBridgeTransfer   RelationshipType = "BRIDGE_TRANSFER"
	RelInvolves         RelationshipType = "INVOLVES"
	RelMemberOf         RelationshipType = "MEMBER_OF"
	RelTriggered        RelationshipType = "TRIGGERED"
	RelMixerTransaction RelationshipType = "MIXER_TRANSACTION"
)

// Relationship is one typed edge between two addresses.
type Relationship struct {
	Type      RelationshipType
	From      model.Address
	To        model.Address
	TxHash    string
	Timestamp time.Time
}

// Store is the graph store contract the Orchestrator and Analysis
// Engines depend on to fetch a target's transaction window and to
// persist derived relationships.
type Store interface {
	UpsertAddress(ctx context.Context, address model.Address) error
	UpsertTransaction(ctx context.Context, tx model.Transaction) error
	AppendRelationship(ctx context.Context, rel Relationship) error
	ShortestPath(ctx context.Context, from, to model.Address, maxDepth int, window time.Duration) ([]model.Transaction, error)
	TransactionsInWindow(ctx context.Context, address model.Address, start, end time.Time) ([]model.Transaction, error)
}

// InMemoryStore is a durable-within-process implementation sufficient
// for tests and single-instance deployments.
type InMemoryStore struct {
	mu            sync.RWMutex
	addresses     map[string]model.Address
	transactions  map[string][]model.Transaction // address key -> transactions touching it
	relationships []Relationship
}

// NewInMemoryStore creates an empty graph store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		addresses:    make(map[string]model.Address),
		transactions: make(map[string][]model.Transaction),
	}
}

func (s *InMemoryStore) UpsertAddress(_ context.Context, address model.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[address.Canonical().Key()] = address.Canonical()
	return nil
}

func (s *InMemoryStore) UpsertTransaction(_ context.Context, tx model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fromKey := model.Address{ChainID: tx.ChainID, Value: tx.From}.Canonical().Key()
	toKey := model.Address{ChainID: tx.ChainID, Value: tx.To}.Canonical().Key()
	s.transactions[fromKey] = insertSorted(s.transactions[fromKey], tx)
	if toKey != fromKey {
		s.transactions[toKey] = insertSorted(s.transactions[toKey], tx)
	}
	return nil
}

func insertSorted(txs []model.Transaction, tx model.Transaction) []model.Transaction {
	for _, existing := range txs {
		if existing.Hash == tx.Hash {
			return txs
		}
	}
	txs = append(txs, tx)
	sort.Slice(txs, func(i, j int) bool { return txs[i].Timestamp < txs[j].Timestamp })
	return txs
}

func (s *InMemoryStore) AppendRelationship(_ context.Context, rel Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships = append(s.relationships, rel)
	return nil
}

// ShortestPath performs a bounded BFS over the SENT/RECEIVED edges
// implied by recorded transactions, returning the transaction path (not
// just addresses) so callers can classify each hop. Only maxDepth bounds
// the search; the window argument is accepted but not applied.
func (s *InMemoryStore) ShortestPath(ctx context.Context, from, to model.Address, maxDepth int, window time.Duration) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if maxDepth <= 0 {
		maxDepth = 10
	}
	if maxDepth > 10 {
		maxDepth = 10
	}

	type frame struct {
		addr model.Address
		path []model.Transaction
	}

	start := from.Canonical()
	target := to.Canonical()
	visited := map[string]bool{start.Key(): true}
	queue := []frame{{addr: start}}

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		current := queue[0]
		queue = queue[1:]

		if len(current.path) >= maxDepth {
			continue
		}

		for _, tx := range s.transactions[current.addr.Key()] {
			if tx.From != current.addr.Value {
				continue
			}
			next := model.Address{ChainID: tx.ChainID, Value: tx.To}.Canonical()
			if visited[next.Key()] {
				continue
			}
			nextPath := append(append([]model.Transaction(nil), current.path...), tx)

			if next.Key() == target.Key() {
				return nextPath, nil
			}
			visited[next.Key()] = true
			queue = append(queue, frame{addr: next, path: nextPath})
		}
	}
	return nil, nil
}

// TransactionsInWindow returns every recorded transaction touching
// address within [start, end].
func (s *InMemoryStore) TransactionsInWindow(_ context.Context, address model.Address, start, end time.Time) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := address.Canonical().Key()
	var out []model.Transaction
	for _, tx := range s.transactions[key] {
		ts := time.Unix(tx.Timestamp, 0).UTC()
		if !ts.Before(start) && !ts.After(end) {
			out = append(out, tx)
		}
	}
	return out, nil
}
