// Package trailcask provides a compressed, immutable, columnar store for
// per-entity event trails: UUID-keyed, time-ordered sequences of (field,
// value) events.
//
// # Overview
//
// An entity (a user, a session, a device — anything addressable by a UUID)
// accumulates events over time. trailcask groups events by entity into
// "trails", assigns each a dense trail id via a UUID bijection, and encodes
// every trail's event stream with a store-wide Huffman+bigram model trained
// over the whole corpus, so repeated (field, value) pairs across different
// entities compress together rather than per-trail.
//
// # Building a store
//
//	enc, err := trail.NewEncoder(trail.WithLayout(format.LayoutPackage))
//	if err != nil { ... }
//	err = enc.AddEvent(entityUUID, timestamp, map[string][]byte{
//	    "action": []byte("login"),
//	    "ip":     []byte("10.0.0.1"),
//	})
//	built, err := enc.Finalize(ctx)
//	err = built.WritePackage(w)
//
// # Querying a store
//
//	r, err := trail.OpenPackage(path)
//	defer r.Close()
//	tid, err := r.GetTrailID(entityUUID)
//	cur, err := r.NewCursor(tid)
//	for {
//	    ev, err := cur.Next()
//	    if err == io.EOF { break }
//	    ...
//	}
//
// Package trail implements encoding, reading, cursors, multi-trail
// time-ordered merge, and CNF event filtering. Package index implements the
// page-level bitmap index used to narrow a CNF query to a candidate set of
// pages before running the exact per-event Filter. Package huffman, item,
// lexicon, and uuidmap implement the lower-level codecs the trail package
// composes; format and errs hold the shared on-disk constants and sentinel
// errors; compress provides the optional codecs for low-entropy sections.
//
// # Non-goals
//
// See SPEC_FULL.md for the complete list of explicit non-goals carried over
// from this store's specification (e.g. no in-place mutation: a store is
// written once by Encoder.Finalize and is read-only thereafter; updates are
// expressed as a new store built by Appender.Unify).
package trailcask
