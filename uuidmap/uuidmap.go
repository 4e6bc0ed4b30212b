// Package uuidmap implements the bijection between 128-bit UUIDs and dense
// trail ids described in spec.md §4.5. During build, UUIDs are grouped in
// first-seen order (the order the encoder happens to observe them in,
// needed so it can key its per-trail event buffers before the final sort);
// Finalize assigns the stable, build-order-independent trail_id as the
// UUID's position in ascending lexicographic order and returns the
// remapping from first-seen group id to that final trail_id.
//
// UUID itself is github.com/google/uuid.UUID (a [16]byte array whose
// canonical RFC 4122 byte layout already sorts in the byte-lexicographic
// order spec.md §3 requires), the same dependency SnellerInc-sneller uses
// for its entity identifiers.
package uuidmap

import (
	"bytes"
	"sort"

	"github.com/google/uuid"

	"github.com/trailcask/trailcask/errs"
)

// UUID is the 128-bit entity identifier.
type UUID = uuid.UUID

// Builder assigns a dense, first-seen-order group id to each distinct UUID
// observed during ingest.
type Builder struct {
	groupIDs map[UUID]uint64
	order    []UUID
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{groupIDs: make(map[UUID]uint64)}
}

// GroupID returns u's group id, assigning the next one if u has not been
// seen before.
func (b *Builder) GroupID(u UUID) uint64 {
	if id, ok := b.groupIDs[u]; ok {
		return id
	}

	id := uint64(len(b.order))
	b.groupIDs[u] = id
	b.order = append(b.order, u)

	return id
}

// NumGroups returns the number of distinct UUIDs seen so far.
func (b *Builder) NumGroups() int {
	return len(b.order)
}

// Finalized is the result of sorting every observed UUID into its final
// trail_id order.
type Finalized struct {
	// SortedUUIDs is every UUID in ascending lexicographic order; its index
	// is the trail's final id.
	SortedUUIDs []UUID
	// GroupToTrailID maps a Builder group id (assigned in first-seen order)
	// to the final trail_id assigned here.
	GroupToTrailID []uint64
}

// Finalize sorts every observed UUID lexicographically and returns the
// sorted list plus the group-id -> trail-id remapping.
func (b *Builder) Finalize() Finalized {
	n := len(b.order)

	sortedUUIDs := make([]UUID, n)
	copy(sortedUUIDs, b.order)
	sort.Slice(sortedUUIDs, func(i, j int) bool {
		return bytes.Compare(sortedUUIDs[i][:], sortedUUIDs[j][:]) < 0
	})

	trailIDByUUID := make(map[UUID]uint64, n)
	for trailID, u := range sortedUUIDs {
		trailIDByUUID[u] = uint64(trailID)
	}

	groupToTrailID := make([]uint64, n)
	for groupID, u := range b.order {
		groupToTrailID[groupID] = trailIDByUUID[u]
	}

	return Finalized{SortedUUIDs: sortedUUIDs, GroupToTrailID: groupToTrailID}
}

// Bytes serialises sorted UUIDs to the on-disk "uuids" section: 16 bytes
// per UUID, in ascending order.
func (f Finalized) Bytes() []byte {
	out := make([]byte, 16*len(f.SortedUUIDs))
	for i, u := range f.SortedUUIDs {
		copy(out[16*i:16*i+16], u[:])
	}

	return out
}

// Reader provides O(log T) get_trail_id and O(1) get_uuid over a finalised
// "uuids" section.
type Reader struct {
	raw []byte // 16*T bytes, sorted ascending
	n   int
}

// Open parses a finalised "uuids" section.
func Open(raw []byte) (*Reader, error) {
	if len(raw)%16 != 0 {
		return nil, errs.ErrCorruptSection
	}

	return &Reader{raw: raw, n: len(raw) / 16}, nil
}

// NumTrails returns the number of UUIDs (== num_trails).
func (r *Reader) NumTrails() int {
	return r.n
}

func (r *Reader) at(i int) UUID {
	var u UUID
	copy(u[:], r.raw[16*i:16*i+16])

	return u
}

// GetTrailID returns u's dense trail id via binary search, or
// errs.ErrUnknownUUID if u is absent.
func (r *Reader) GetTrailID(u UUID) (uint64, error) {
	lo, hi := 0, r.n
	for lo < hi {
		mid := (lo + hi) / 2
		c := bytes.Compare(r.raw[16*mid:16*mid+16], u[:])
		switch {
		case c == 0:
			return uint64(mid), nil
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}

	return 0, errs.ErrUnknownUUID
}

// GetUUID returns the UUID for trailID in O(1), or errs.ErrTrailIDOutOfRange
// if trailID is outside [0, NumTrails()).
func (r *Reader) GetUUID(trailID uint64) (UUID, error) {
	if trailID >= uint64(r.n) {
		return UUID{}, errs.ErrTrailIDOutOfRange
	}

	return r.at(int(trailID)), nil
}
