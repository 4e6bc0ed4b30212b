// Package trail implements the encoder, reader, and query primitives for a
// compressed, immutable store of per-entity event trails (spec.md §3-§4.6,
// §4.7, §4.8, §4.10): two-pass Huffman-coded ingest, a memory-mapped
// read-only reader, single- and multi-trail cursors, and CNF event
// filtering.
package trail

import "github.com/trailcask/trailcask/item"

// Event is one decoded (or pre-encode) event: an absolute timestamp and its
// ordered (field, val) items. Items never include the sentinel; Encoder and
// Reader append/strip it at the wire layer.
type Event struct {
	Timestamp uint64
	Items     []item.Item
}
