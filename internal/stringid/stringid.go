// Package stringid implements the interning map described in spec.md §4.2:
// byte keys are interned into monotonically increasing ids 1, 2, 3, ...; the
// empty key is reserved and always maps to id 0 without being stored.
//
// Two internal tracks are kept, grounded on the collision-aware lookup idiom
// of mebo/internal/collision.Tracker (hash first, compare bytes on a hit,
// escalate only on a genuine collision):
//
//   - short keys (length <= 7) are packed into an 8-byte word of
//     (length | bytes) and looked up in an ordered-integer map from word to id.
//   - long keys (length >= 8) are looked up by a 64-bit xxHash64 of the key
//     (github.com/cespare/xxhash/v2, the same hash mebo/internal/hash wraps
//     for metric-name ids); on a hash hit the stored key bytes are compared,
//     and on a genuine collision the hash is perturbed by folding in a retry
//     counter (cespare/xxhash/v2 fixes its seed, so perturbation is done by
//     rehashing key||counter rather than by varying a seed parameter) and
//     lookup retries up to maxCollisionRetries times.
package stringid

import (
	"github.com/cespare/xxhash/v2"

	"github.com/trailcask/trailcask/errs"
)

// maxCollisionRetries bounds how many times a long-key hash collision may be
// perturbed and retried before insert gives up.
const maxCollisionRetries = 16

// shortKeyMaxLen is the largest key length eligible for the packed-word
// short track; longer keys use the hashed long track.
const shortKeyMaxLen = 7

// Map interns byte keys into dense ids. The zero Map is not usable; use New.
type Map struct {
	short map[uint64]uint64 // packed word -> id
	long  map[uint64]uint64 // perturbed hash -> id

	// keys holds the original bytes for every non-empty interned key,
	// indexed by id-1, so insertion order (== id order) is always
	// recoverable regardless of which track a key landed in. This backs
	// both Value-by-id lookups and Lexicon's id-ordered payload emission.
	keys [][]byte

	// longOrder holds the ids assigned to long keys, in insertion order,
	// for Fold's "insertion-order-on-long" contract.
	longOrder []uint64

	nextID uint64
}

// New returns an empty Map.
func New() *Map {
	return &Map{
		short:  make(map[uint64]uint64),
		long:   make(map[uint64]uint64),
		nextID: 1,
	}
}

// packShort packs a key of length <= 7 into a single word: the low byte is
// the length, the remaining bytes hold the key, zero-padded.
func packShort(key []byte) uint64 {
	var word uint64
	for i, b := range key {
		word |= uint64(b) << (8 * (i + 1))
	}
	word |= uint64(len(key))

	return word
}

// Insert interns key and returns its id, which is idempotent: inserting the
// same bytes again returns the same id. The empty key always returns 0
// without being stored. Returns 0 on allocation failure (never silently
// drops — callers must treat a 0 result from a non-empty key as
// errs.ErrOutOfMemory).
func (m *Map) Insert(key []byte) (id uint64, err error) {
	if len(key) == 0 {
		return 0, nil
	}

	if len(key) <= shortKeyMaxLen {
		word := packShort(key)
		if id, ok := m.short[word]; ok {
			return id, nil
		}

		id := m.nextID
		m.short[word] = id
		m.appendKey(key)
		m.nextID++

		return id, nil
	}

	return m.insertLong(key)
}

func (m *Map) insertLong(key []byte) (uint64, error) {
	h := xxhash.Sum64(key)

	for attempt := 0; attempt < maxCollisionRetries; attempt++ {
		existingID, ok := m.long[h]
		if !ok {
			id := m.nextID
			m.long[h] = id
			m.longOrder = append(m.longOrder, id)
			m.appendKey(key)
			m.nextID++

			return id, nil
		}

		if bytesEqual(m.keys[existingID-1], key) {
			return existingID, nil
		}

		// Genuine collision: perturb by folding the attempt counter into
		// the hashed bytes and retry.
		h = perturb(key, attempt)
	}

	return 0, errs.ErrOutOfMemory
}

func perturb(key []byte, attempt int) uint64 {
	d := xxhash.New()
	_, _ = d.Write(key)
	_, _ = d.Write([]byte{byte(attempt + 1)})

	return d.Sum64()
}

func (m *Map) appendKey(key []byte) {
	dup := make([]byte, len(key))
	copy(dup, key)
	m.keys = append(m.keys, dup)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// Get returns the id for key, or 0 if key has never been inserted (or is
// empty).
func (m *Map) Get(key []byte) uint64 {
	if len(key) == 0 {
		return 0
	}

	if len(key) <= shortKeyMaxLen {
		return m.short[packShort(key)]
	}

	h := xxhash.Sum64(key)
	for attempt := 0; attempt < maxCollisionRetries; attempt++ {
		id, ok := m.long[h]
		if !ok {
			return 0
		}
		if bytesEqual(m.keys[id-1], key) {
			return id
		}
		h = perturb(key, attempt)
	}

	return 0
}

// Value returns the original bytes for id, or nil if id is 0 or unassigned.
// The returned slice must not be modified by the caller.
func (m *Map) Value(id uint64) []byte {
	if id == 0 || id > uint64(len(m.keys)) {
		return nil
	}

	return m.keys[id-1]
}

// Len returns the number of distinct non-empty keys interned so far.
func (m *Map) Len() int {
	return len(m.keys)
}

// Fold iterates every interned key in short-track id-ascending order first,
// followed by the long track in insertion order, calling fn(id, key) for
// each. This matches the order spec.md §4.2 documents for the generic
// string-id map; it is NOT the order Lexicon uses to assign val ids (which
// is always global id-ascending, recovered via Value/Len) — Fold exists for
// diagnostic/debug iteration only.
func (m *Map) Fold(fn func(id uint64, key []byte)) {
	shortIDs := make([]uint64, 0, len(m.short))
	for _, id := range m.short {
		shortIDs = append(shortIDs, id)
	}
	sortUint64s(shortIDs)

	for _, id := range shortIDs {
		fn(id, m.keys[id-1])
	}

	for _, id := range m.longOrder {
		fn(id, m.keys[id-1])
	}
}

func sortUint64s(s []uint64) {
	// Small helper kept local to avoid importing slices/sort for a handful
	// of ids per field; simple insertion sort is adequate at this scale
	// since Fold runs only for diagnostics, never on the hot path.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
