package trail

import (
	"context"
	"io"
	"sort"

	"github.com/google/uuid"

	"github.com/trailcask/trailcask/compress"
	"github.com/trailcask/trailcask/errs"
	"github.com/trailcask/trailcask/format"
	"github.com/trailcask/trailcask/huffman"
	"github.com/trailcask/trailcask/index"
	"github.com/trailcask/trailcask/internal/bitio"
	"github.com/trailcask/trailcask/internal/options"
	"github.com/trailcask/trailcask/item"
	"github.com/trailcask/trailcask/lexicon"
	"github.com/trailcask/trailcask/section"
	"github.com/trailcask/trailcask/uuidmap"
)

// rawEvent is one ingested event, still keyed to its first-seen group id
// and carrying the insertion sequence used to break stable-sort ties
// (spec.md §4.6, "events append in arrival order; equal timestamps preserve
// arrival order").
type rawEvent struct {
	timestamp uint64
	seq       int
	items     []item.Item
}

// Encoder accumulates events for many trails and, on Finalize, trains a
// shared Huffman model and emits the complete store in two passes (spec.md
// §4.6): Pass 1 observes every trail's item sequence to build the model;
// Pass 2 re-walks every trail, emitting its bit-packed stream against that
// model. Grounded on mebo's NumericEncoder/TextEncoder two-phase
// accumulate-then-Finalize shape.
type Encoder struct {
	cfg EncoderConfig

	fieldIndex map[string]int
	fieldNames []string // 1-based; fieldNames[0] is unused
	lexicons   []*lexicon.Builder

	uuids  *uuidmap.Builder
	trails map[uint64][]rawEvent
	nextSeq int

	finalized bool
}

// NewEncoder returns an empty Encoder. If cfg.declaredFields is non-empty
// (set via WithFields), those field names are assigned ids up front, in the
// given order, mirroring spec.md §4.6's "open(path, field_names[0..F])"
// which "validates names" before any event is ingested; a field name never
// declared this way is still created lazily on first use by AddEvent.
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	cfg := defaultEncoderConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	e := &Encoder{
		cfg:        cfg,
		fieldIndex: make(map[string]int),
		fieldNames: []string{""},
		lexicons:   []*lexicon.Builder{nil},
		uuids:      uuidmap.NewBuilder(),
		trails:     make(map[uint64][]rawEvent),
	}

	for _, name := range cfg.declaredFields {
		if _, err := e.fieldID(name); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// validateFieldName enforces spec.md §3's field-name grammar: non-empty, at
// most format.MaxFieldNameLen bytes, drawn from [A-Za-z0-9_], and never the
// reserved name "time" (the implicit field 0's name).
func validateFieldName(name string) error {
	if len(name) == 0 || len(name) > format.MaxFieldNameLen {
		return errs.ErrInvalidFieldName
	}
	if name == format.TimeFieldName {
		return errs.ErrInvalidFieldName
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return errs.ErrInvalidFieldName
		}
	}

	return nil
}

func (e *Encoder) fieldID(name string) (int, error) {
	if id, ok := e.fieldIndex[name]; ok {
		return id, nil
	}
	if err := validateFieldName(name); err != nil {
		return 0, err
	}
	if len(e.fieldNames) > format.MaxFields {
		return 0, errs.ErrTooManyFields
	}

	id := len(e.fieldNames)
	e.fieldNames = append(e.fieldNames, name)
	e.fieldIndex[name] = id
	e.lexicons = append(e.lexicons, lexicon.NewBuilder())

	return id, nil
}

// AddEvent records one event for entity u at the given timestamp. fields
// maps field name to its raw value bytes; a field seen for the first time
// on any call is assigned the next field id, up to format.MaxFields.
func (e *Encoder) AddEvent(u uuid.UUID, timestamp uint64, fields map[string][]byte) error {
	if e.finalized {
		return errs.ErrEncoderFinalized
	}

	// Go randomizes map iteration order, so field names are visited in
	// sorted order here before any first-seen name gets a new field id
	// (fieldID) — otherwise which of two field names introduced by the
	// same AddEvent call claims the lower id would vary call to call,
	// breaking the "two builds from the same input are bit-identical"
	// property (spec.md §8 "Stability").
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	type fv struct {
		field int
		val   uint64
	}
	pairs := make([]fv, 0, len(names))
	for _, name := range names {
		idx, err := e.fieldID(name)
		if err != nil {
			return err
		}
		val, err := e.lexicons[idx].Intern(fields[name])
		if err != nil {
			return err
		}
		pairs = append(pairs, fv{field: idx, val: val})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].field < pairs[j].field })

	items := make([]item.Item, len(pairs))
	for i, p := range pairs {
		items[i] = item.Make(p.field, p.val)
	}

	group := e.uuids.GroupID(u)
	e.trails[group] = append(e.trails[group], rawEvent{timestamp: timestamp, seq: e.nextSeq, items: items})
	e.nextSeq++

	return nil
}

// Append re-emits every event from reader through AddEvent (spec.md §4.6),
// remapping its items through this encoder's own lexicons rather than
// copying reader's val ids directly, since this encoder's lexicons may
// already hold a different set of interned values (e.g. from a prior
// AddEvent or an earlier Append). Field names not yet seen by this encoder
// are created on demand, same as AddEvent.
func (e *Encoder) Append(reader *Reader) error {
	if e.finalized {
		return errs.ErrEncoderFinalized
	}

	for tid := uint64(0); tid < uint64(reader.NumTrails()); tid++ {
		u, err := reader.GetUUID(tid)
		if err != nil {
			return err
		}
		cur, err := reader.NewCursor(tid)
		if err != nil {
			return err
		}
		for {
			ev, err := cur.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}

			fields := make(map[string][]byte, len(ev.Items))
			for _, it := range ev.Items {
				name, err := reader.FieldName(it.Field())
				if err != nil {
					return err
				}
				raw, err := reader.Value(it.Field(), it.Val())
				if err != nil {
					return err
				}
				fields[name] = raw
			}

			if err := e.AddEvent(u, ev.Timestamp, fields); err != nil {
				return err
			}
		}
	}

	return nil
}

// Stats summarises a finalized store, returned by Finalize alongside the
// built sections (spec.md's supplemented "build stats" feature, see
// SPEC_FULL.md).
type Stats struct {
	NumTrails    int
	NumEvents    int
	NumFields    int
	MinTimestamp uint64
	MaxTimestamp uint64

	// Compression reports, for every lexicon section and the page index
	// section, the codec used and the bytes/time it cost (spec.md's
	// supplemented "compression stats" feature). A section written
	// uncompressed still has an entry, with Algorithm format.CompressionNone
	// and zero CompressionTimeNs.
	Compression map[string]compress.CompressionStats
}

// Built holds every section of a finalized store, keyed by section name,
// ready for WriteDirectory or WritePackage. Layout records which of those
// two the Encoder was configured for (WithLayout), so Write can dispatch to
// the right one without the caller re-stating the choice.
type Built struct {
	Sections map[string][]byte
	Stats    Stats
	Layout   format.Layout
}

// Finalize trains the Huffman model over every accumulated trail, encodes
// every trail's event stream against it, builds the page index, and
// returns the complete set of on-disk sections. The Encoder must not be
// used again afterwards.
func (e *Encoder) Finalize(ctx context.Context) (*Built, error) {
	if e.finalized {
		return nil, errs.ErrEncoderFinalized
	}
	e.finalized = true

	fin := e.uuids.Finalize()
	numTrails := len(fin.SortedUUIDs)

	trailEvents := make([][]rawEvent, numTrails)
	for group, events := range e.trails {
		tid := fin.GroupToTrailID[group]
		trailEvents[tid] = events
	}
	for _, events := range trailEvents {
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].timestamp != events[j].timestamp {
				return events[i].timestamp < events[j].timestamp
			}

			return events[i].seq < events[j].seq
		})
	}

	trainer := huffman.NewTrainer(numTrails)
	for tid, events := range trailEvents {
		seqs := make([][]item.Item, len(events))
		for i, ev := range events {
			seqs[i] = append(append([]item.Item{}, ev.items...), item.Sentinel)
		}
		trainer.ObserveTrail(uint64(tid), seqs)
	}
	model := trainer.Build()

	w := bitio.NewWriter(1 << 16)
	offsets := make([]uint64, numTrails+1)
	var numEvents int
	var minTS, maxTS uint64
	haveTS := false

	for tid, events := range trailEvents {
		offsets[tid] = w.BitLen()
		var prevTS uint64
		for i, ev := range events {
			if i == 0 {
				w.PutUvarint(ev.timestamp)
			} else {
				delta := ev.timestamp - prevTS
				if delta > format.TDBMaxTimeDelta {
					return nil, errs.ErrTimestampTooLarge
				}
				w.PutVarint(int64(ev.timestamp) - int64(prevTS))
			}
			prevTS = ev.timestamp
			encodeEventItems(w, model, ev.items)

			numEvents++
			if !haveTS {
				minTS, maxTS = ev.timestamp, ev.timestamp
				haveTS = true
			} else {
				if ev.timestamp < minTS {
					minTS = ev.timestamp
				}
				if ev.timestamp > maxTS {
					maxTS = ev.timestamp
				}
			}
		}
	}
	offsets[numTrails] = w.BitLen()

	numFields := len(e.fieldNames) - 1
	info := section.Info{
		Version:       format.Version,
		NumTrails:     uint64(numTrails),
		NumEvents:     uint64(numEvents),
		NumFields:     uint64(numFields),
		MinTimestamp:  minTS,
		MaxTimestamp:  maxTS,
		TrailsPerPage: uint64(index.DefaultConfig(numTrails).TrailsPerPage),
	}
	for f := 1; f <= numFields; f++ {
		if e.lexicons[f].HasOverflow() {
			info.SetFieldOverflow(f)
		}
	}

	sections := make(map[string][]byte)
	sections[format.SectionInfo] = info.Bytes()
	sections[format.SectionFields] = section.Fields{Names: e.fieldNames[1:]}.Bytes()
	sections[format.SectionUUIDs] = fin.Bytes()
	sections[format.SectionCodebook] = model.ToSection().Bytes()
	sections[format.SectionTOC] = section.NewTOC(offsets).Bytes()
	sections[format.SectionTrails] = w.Bytes()

	compressionStats := make(map[string]compress.CompressionStats)
	for f := 1; f <= numFields; f++ {
		raw := e.lexicons[f].Finalize()
		name := format.LexiconSectionName(f)
		var stats compress.CompressionStats
		sections[name], stats = compress.TagCompress(raw, e.cfg.sectionCompression)
		compressionStats[name] = stats
	}

	flatItems := make([][]item.Item, numTrails)
	for tid, events := range trailEvents {
		seen := make(map[item.Item]struct{})
		var flat []item.Item
		for _, ev := range events {
			for _, it := range ev.items {
				if _, ok := seen[it]; !ok {
					seen[it] = struct{}{}
					flat = append(flat, it)
				}
			}
		}
		flatItems[tid] = flat
	}
	pageIdx, err := index.Build(ctx, numTrails, index.DefaultConfig(numTrails), indexSourceFromInfo(info), func(tid int) []item.Item {
		return flatItems[tid]
	})
	if err != nil {
		return nil, err
	}
	var idxStats compress.CompressionStats
	sections[format.SectionIndex], idxStats = compress.TagCompress(pageIdx.Bytes(), e.cfg.pageIndexCompression)
	compressionStats[format.SectionIndex] = idxStats

	return &Built{
		Sections: sections,
		Layout:   e.cfg.layout,
		Stats: Stats{
			NumTrails:    numTrails,
			NumEvents:    numEvents,
			NumFields:    numFields,
			MinTimestamp: minTS,
			Compression:  compressionStats,
			MaxTimestamp: maxTS,
		},
	}, nil
}

// encodeEventItems writes one event's items followed by the terminating
// sentinel, greedily pairing adjacent items (including the final
// real-item/sentinel pair) into a trained bigram codeword where available
// and falling back to per-item encoding otherwise. This mirrors exactly
// what Trainer.ObserveTrail was shown during Pass 1 (items with the
// sentinel appended), so every bigram the model trained on is reachable.
func encodeEventItems(w *bitio.Writer, model *huffman.Model, items []item.Item) {
	withSentinel := append(append([]item.Item{}, items...), item.Sentinel)

	i := 0
	for i < len(withSentinel) {
		if i+1 < len(withSentinel) && model.HasBigram(withSentinel[i], withSentinel[i+1]) {
			model.TryEncodeBigram(w, withSentinel[i], withSentinel[i+1])
			i += 2

			continue
		}
		model.EncodeItem(w, withSentinel[i])
		i++
	}
}
