// Package registry implements the Protocol Registry (§4.3): an
// in-memory index mapping (chain, lowercased-address) keys to known
// protocols, consulted by Analysis Engines and the Fusion Layer. Refresh
// builds a new snapshot and installs it with a single atomic pointer
// swap, so readers never observe a partial load (§5).
package registry

import (
	"sync/atomic"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// snapshot is one immutable view of the registry.
type snapshot struct {
	byKey    map[string]*model.ProtocolEntry // "chain:address" -> entry
	agnostic map[string]*model.ProtocolEntry // "address" -> entry, chain-agnostic fallback
	byType   map[model.ProtocolType][]*model.ProtocolEntry
}

func newSnapshot() *snapshot {
	return &snapshot{
		byKey:    make(map[string]*model.ProtocolEntry),
		agnostic: make(map[string]*model.ProtocolEntry),
		byType:   make(map[model.ProtocolType][]*model.ProtocolEntry),
	}
}

// Registry is safe for concurrent use: Classify/ByType/Count read an
// atomically-loaded snapshot; Refresh builds a new one and swaps it in.
type Registry struct {
	current atomic.Pointer[snapshot]
}

// New creates an empty Registry.
func New() *Registry {
	r := &Registry{}
	r.current.Store(newSnapshot())
	return r
}

// Classify looks up an address, trying the chain-qualified index first
// and falling back to the chain-agnostic index for unknown chains.
func (r *Registry) Classify(address model.Address) (*model.ProtocolEntry, bool) {
	snap := r.current.Load()
	canon := address.Canonical()

	if entry, ok := snap.byKey[canon.Key()]; ok {
		return entry, true
	}
	if entry, ok := snap.agnostic[canon.Value]; ok {
		return entry, true
	}
	return nil, false
}

// ByType returns every known entry of the given protocol type.
func (r *Registry) ByType(t model.ProtocolType) []*model.ProtocolEntry {
	snap := r.current.Load()
	return append([]*model.ProtocolEntry(nil), snap.byType[t]...)
}

// Count reports the number of distinct (chain, address) index entries.
func (r *Registry) Count() int {
	snap := r.current.Load()
	return len(snap.byKey)
}

// Refresh loads `entries` into a new shadow index and swaps it in
// atomically on success, returning the net change in entry count.
func (r *Registry) Refresh(entries []model.ProtocolEntry) int {
	before := r.Count()

	next := newSnapshot()
	seenByType := make(map[model.ProtocolType]bool)
	for i := range entries {
		entry := entries[i]
		for chain, addrs := range entry.Addresses {
			for _, addr := range addrs {
				lowered := lower(addr)
				key := chain + ":" + lowered
				next.byKey[key] = &entry
				next.agnostic[lowered] = &entry
			}
		}
		if !seenByType[entry.Type] {
			seenByType[entry.Type] = true
		}
		next.byType[entry.Type] = append(next.byType[entry.Type], &entry)
	}

	r.current.Store(next)
	return len(next.byKey) - before
}

func lower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
