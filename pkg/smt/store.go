package smt

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// CanonicalStore is the hash-consing table of one session. It maps the structural
// description (op, sort, child identities, name, literal, leaf flags) of a
// term to the single canonical Term with that description.
//
// Children are compared by identity, which is sound because every child
// handed to the store is itself canonical. Lookup is therefore O(arity).
// Entries live until Clear.
type CanonicalStore struct {
	buckets map[uint64][]*Term
	size    int
	nextID  uint64
	hits    uint64
	misses  uint64
}

// StoreStats summarizes CanonicalStore activity.
type StoreStats struct {
	Size   int
	Hits   uint64
	Misses uint64
	NextID uint64
}

// NewCanonicalStore returns an empty store. Identity numbers start at 1.
func NewCanonicalStore() *CanonicalStore {
	return &CanonicalStore{buckets: make(map[uint64][]*Term), nextID: 1}
}

// NextID returns the tentative identity number for the next candidate. It is
// consumed only when LookupOrInsert reports the candidate as new.
func (s *CanonicalStore) NextID() uint64 {
	return s.nextID
}

// LookupOrInsert returns the canonical term structurally equal to candidate.
//
// Parameters:
//
//	candidate *Term: Freshly built term carrying the tentative identity NextID().
//
// Returns:
//
//	*Term: The canonical term (candidate itself when new).
//	bool: True when candidate was inserted.
func (s *CanonicalStore) LookupOrInsert(candidate *Term) (*Term, bool) {
	h := fingerprint(candidate)
	for _, t := range s.buckets[h] {
		if shallowEqual(t, candidate) {
			s.hits++
			return t, false
		}
	}
	candidate.id = s.nextID
	s.nextID++
	s.buckets[h] = append(s.buckets[h], candidate)
	s.size++
	s.misses++
	return candidate, true
}

// Contains reports whether t is a canonical term of this store.
func (s *CanonicalStore) Contains(t *Term) bool {
	if t == nil {
		return false
	}
	for _, c := range s.buckets[fingerprint(t)] {
		if c == t {
			return true
		}
	}
	return false
}

// Len returns the number of canonical terms.
func (s *CanonicalStore) Len() int {
	return s.size
}

// Clear drops every entry. Identity numbers keep increasing so that terms from
// before and after the clear are never confused.
func (s *CanonicalStore) Clear() {
	s.buckets = make(map[uint64][]*Term)
	s.size = 0
}

func (s *CanonicalStore) Stats() StoreStats {
	return StoreStats{Size: s.size, Hits: s.hits, Misses: s.misses, NextID: s.nextID}
}

func fingerprint(t *Term) uint64 {
	d := xxhash.New()
	var buf [8]byte
	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	putU64(uint64(t.op.Prim))
	putU64(uint64(t.op.NumIdx))
	putU64(t.op.Idx0)
	putU64(t.op.Idx1)
	if t.sort != nil {
		_, _ = d.WriteString(t.sort.key)
	}
	_, _ = d.Write([]byte{0, flags(t)})
	_, _ = d.WriteString(t.name)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(t.literal)
	for _, c := range t.children {
		putU64(c.id)
	}
	return d.Sum64()
}

func flags(t *Term) byte {
	var f byte
	if t.symbol {
		f |= 1
	}
	if t.param {
		f |= 2
	}
	return f
}

func shallowEqual(a, b *Term) bool {
	if a.op != b.op || a.symbol != b.symbol || a.param != b.param ||
		a.name != b.name || a.literal != b.literal || len(a.children) != len(b.children) {
		return false
	}
	if !a.sort.Equal(b.sort) {
		return false
	}
	for i := range a.children {
		if a.children[i] != b.children[i] {
			return false
		}
	}
	return true
}
