package trail

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"golang.org/x/exp/mmap"

	"github.com/trailcask/trailcask/compress"
	"github.com/trailcask/trailcask/errs"
	"github.com/trailcask/trailcask/format"
	"github.com/trailcask/trailcask/huffman"
	"github.com/trailcask/trailcask/index"
	"github.com/trailcask/trailcask/internal/bitio"
	"github.com/trailcask/trailcask/item"
	"github.com/trailcask/trailcask/lexicon"
	"github.com/trailcask/trailcask/section"
	"github.com/trailcask/trailcask/uuidmap"
)

// Reader provides read-only access to a finalized store (spec.md §4.7).
// OpenPackage memory-maps the package file; OpenDirectory reads a directory
// store's section files into memory and maps nothing. It is safe for
// concurrent use by multiple goroutines; each Cursor it opens is not.
type Reader struct {
	ra       readerAt
	info     section.Info
	fields   section.Fields
	uuids    *uuidmap.Reader
	model    *huffman.Model
	toc      section.TOC
	lexicons []*lexicon.Reader // 1-based; [0] is nil
	pageIdx  *index.Index

	trailsBase uint64 // byte offset of the trails section within ra
	sections   []SectionInfo
}

// SectionInfo names one section of a store and its byte length, and, for a
// package-file store, its offset within the file (SPEC_FULL.md's
// supplemented "package-file directory listing" feature: a packaging
// collaborator can learn what it is archiving without re-deriving offsets).
type SectionInfo struct {
	Name   string
	Offset uint64
	Length uint64
}

// Sections returns the store's section directory in on-disk order. For a
// directory-layout store Offset is always 0 (each section is its own file).
func (r *Reader) Sections() []SectionInfo {
	out := make([]SectionInfo, len(r.sections))
	copy(out, r.sections)

	return out
}

// readerAt is the minimal surface this package needs from a mapped file; it
// is satisfied by *mmap.ReaderAt and also by memReaderAt, which holds a
// directory-layout store's trails section after it is read fully into
// memory.
type readerAt interface {
	ReadAt(p []byte, off int64) (int, error)
	Len() int
}

// OpenPackage memory-maps a single package file produced by WritePackage.
func OpenPackage(path string) (*Reader, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, errs.ErrIOOpen
	}

	footer := make([]byte, 12)
	if _, err := ra.ReadAt(footer, int64(ra.Len()-12)); err != nil {
		return nil, errs.ErrIORead
	}
	tocLen := binary.LittleEndian.Uint32(footer[0:4])
	magic := binary.LittleEndian.Uint64(footer[4:12])
	if magic != format.Magic {
		return nil, errs.ErrCorruptSection
	}

	tocBytes := make([]byte, tocLen)
	if _, err := ra.ReadAt(tocBytes, int64(ra.Len()-12-int(tocLen))); err != nil {
		return nil, errs.ErrIORead
	}
	toc, err := section.ParsePackageTOC(tocBytes)
	if err != nil {
		return nil, err
	}

	sections := make(map[string][]byte, len(toc.Entries))
	for _, e := range toc.Entries {
		buf := make([]byte, e.Length)
		if _, err := ra.ReadAt(buf, int64(e.Offset)); err != nil {
			return nil, errs.ErrIORead
		}
		sections[e.Name] = buf
	}

	trailsEntry, ok := toc.Find(format.SectionTrails)
	if !ok {
		return nil, errs.ErrCorruptSection
	}

	r, err := openFromSections(ra, sections, trailsEntry.Offset)
	if err != nil {
		return nil, err
	}
	r.sections = make([]SectionInfo, len(toc.Entries))
	for i, e := range toc.Entries {
		r.sections[i] = SectionInfo{Name: e.Name, Offset: e.Offset, Length: e.Length}
	}

	return r, nil
}

// OpenDirectory opens a directory-layout store: every section read fully
// into memory (directory stores are expected to be small-to-medium; package
// stores are the mmap-friendly form for large corpora).
func OpenDirectory(dir string) (*Reader, error) {
	names := []string{
		format.SectionInfo, format.SectionFields, format.SectionUUIDs,
		format.SectionCodebook, format.SectionTOC, format.SectionTrails, format.SectionIndex,
	}
	sections := make(map[string][]byte)
	var trailsData []byte
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, errs.ErrIOOpen
		}
		sections[name] = data
		if name == format.SectionTrails {
			trailsData = data
		}
	}

	infoParsed, err := section.ParseInfo(sections[format.SectionInfo])
	if err != nil {
		return nil, err
	}
	for f := 1; f <= int(infoParsed.NumFields); f++ {
		name := format.LexiconSectionName(f)
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, errs.ErrIOOpen
		}
		sections[name] = data
	}

	r, err := openFromSections(&memReaderAt{buf: trailsData}, sections, 0)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		r.sections = append(r.sections, SectionInfo{Name: name, Length: uint64(len(sections[name]))})
	}
	for f := 1; f <= int(infoParsed.NumFields); f++ {
		name := format.LexiconSectionName(f)
		r.sections = append(r.sections, SectionInfo{Name: name, Length: uint64(len(sections[name]))})
	}

	return r, nil
}

// indexSourceFromInfo derives the index.Source a page index must check
// (or be built against) from a store's info section (spec.md §4.11).
func indexSourceFromInfo(info section.Info) index.Source {
	return index.Source{
		NumTrails:    int(info.NumTrails),
		NumEvents:    int(info.NumEvents),
		NumFields:    int(info.NumFields),
		MinTimestamp: info.MinTimestamp,
		MaxTimestamp: info.MaxTimestamp,
		Version:      info.Version,
	}
}

type memReaderAt struct{ buf []byte }

func (m *memReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, m.buf[off:])

	return n, nil
}
func (m *memReaderAt) Len() int { return len(m.buf) }

func openFromSections(ra readerAt, sections map[string][]byte, trailsOffset uint64) (*Reader, error) {
	info, err := section.ParseInfo(sections[format.SectionInfo])
	if err != nil {
		return nil, err
	}
	fields, err := section.ParseFields(sections[format.SectionFields])
	if err != nil {
		return nil, err
	}
	uuidsReader, err := uuidmap.Open(sections[format.SectionUUIDs])
	if err != nil {
		return nil, err
	}
	codebook, err := section.ParseCodebook(sections[format.SectionCodebook])
	if err != nil {
		return nil, err
	}
	toc, err := section.ParseTOC(sections[format.SectionTOC])
	if err != nil {
		return nil, err
	}

	lexicons := make([]*lexicon.Reader, int(info.NumFields)+1)
	for f := 1; f <= int(info.NumFields); f++ {
		raw, ok := sections[format.LexiconSectionName(f)]
		if !ok {
			return nil, errs.ErrCorruptSection
		}
		raw, err = compress.TagDecompress(raw)
		if err != nil {
			return nil, errs.ErrCorruptSection
		}
		lr, err := lexicon.Open(raw)
		if err != nil {
			return nil, err
		}
		lexicons[f] = lr
	}

	var pageIdx *index.Index
	if raw, ok := sections[format.SectionIndex]; ok && len(raw) > 0 {
		raw, err = compress.TagDecompress(raw)
		if err != nil {
			return nil, errs.ErrCorruptSection
		}
		pageIdx, err = index.Open(raw, indexSourceFromInfo(info))
		if err != nil {
			return nil, err
		}
	}

	return &Reader{
		ra:         ra,
		info:       info,
		fields:     fields,
		uuids:      uuidsReader,
		model:      huffman.FromSection(codebook),
		toc:        toc,
		lexicons:   lexicons,
		pageIdx:    pageIdx,
		trailsBase: trailsOffset,
	}, nil
}

// Close releases the reader's mapped memory, if any.
func (r *Reader) Close() error {
	if m, ok := r.ra.(*mmap.ReaderAt); ok {
		return m.Close()
	}

	return nil
}

// NumTrails returns the number of trails in the store.
func (r *Reader) NumTrails() int { return int(r.info.NumTrails) }

// NumEvents returns the total number of events across every trail.
func (r *Reader) NumEvents() int { return int(r.info.NumEvents) }

// NumFields returns the number of user fields (field 0, time, is implicit
// and not counted).
func (r *Reader) NumFields() int { return int(r.info.NumFields) }

// FieldName returns the name of user field f (1-based).
func (r *Reader) FieldName(f int) (string, error) {
	if f < 1 || f > len(r.fields.Names) {
		return "", errs.ErrUnknownField
	}

	return r.fields.Names[f-1], nil
}

// GetField returns the 1-based field id for name, or an error if unknown.
// "time", the reserved name of the implicit field 0, always resolves to 0
// (spec.md §3; spec.md §4.6 "the literal name `time` is reserved").
func (r *Reader) GetField(name string) (int, error) {
	if name == format.TimeFieldName {
		return 0, nil
	}
	for i, n := range r.fields.Names {
		if n == name {
			return i + 1, nil
		}
	}

	return 0, errs.ErrUnknownField
}

// FieldHasOverflowVals reports whether field f (1-based) exceeded its narrow
// 24-bit value domain during build, so GetItem may return an
// item.MakeOverflow sentinel for values absent from f's lexicon (spec.md §8
// end-to-end scenario 6, "Overflow").
func (r *Reader) FieldHasOverflowVals(f int) bool {
	return r.info.FieldHasOverflow(f)
}

// MinMaxTimestamp returns the minimum and maximum event timestamps in the store.
func (r *Reader) MinMaxTimestamp() (min, max uint64) {
	return r.info.MinTimestamp, r.info.MaxTimestamp
}

// LexiconSize returns the number of addressable val ids for field f
// (including val=0, the empty string).
func (r *Reader) LexiconSize(f int) (int, error) {
	if f < 1 || f > len(r.lexicons)-1 {
		return 0, errs.ErrUnknownField
	}

	return r.lexicons[f].Size(), nil
}

// Value returns the interned bytes for (field f, val val).
func (r *Reader) Value(f int, val uint64) ([]byte, error) {
	if f < 1 || f > len(r.lexicons)-1 {
		return nil, errs.ErrUnknownField
	}

	return r.lexicons[f].Value(val)
}

// GetItem returns the item for (field f, raw value bytes), suitable for use
// as a Filter term (spec.md §4.7, "get_item"). An unknown value yields the
// narrow-layout overflow sentinel item (item.MakeOverflow), not item.Make
// with the raw overflow val id: a field that has legitimately overflowed
// past its narrow id space can have a real wide item whose val equals
// format.Narrow32Overflow, and item.Make would silently promote that val to
// the wide layout, colliding an "unknown value" term with that real item.
func (r *Reader) GetItem(f int, value []byte) (item.Item, error) {
	if f < 1 || f > len(r.lexicons)-1 {
		return 0, errs.ErrUnknownField
	}
	val := r.lexicons[f].GetItem(value)
	if val == uint64(format.Narrow32Overflow) {
		return item.MakeOverflow(f), nil
	}

	return item.Make(f, val), nil
}

// GetTrailID returns the dense trail id for a UUID.
func (r *Reader) GetTrailID(u uuidmap.UUID) (uint64, error) {
	return r.uuids.GetTrailID(u)
}

// GetUUID returns the UUID for a dense trail id.
func (r *Reader) GetUUID(trailID uint64) (uuidmap.UUID, error) {
	return r.uuids.GetUUID(trailID)
}

// PageIndex exposes the store's page index for query planning; nil if the
// store was written without one.
func (r *Reader) PageIndex() *index.Index { return r.pageIdx }

// trailBitRange returns the [start, end) bit range of trailID's stream
// within the shared trails section.
func (r *Reader) trailBitRange(trailID uint64) (start, end uint64, err error) {
	return r.toc.Range(trailID)
}

// readTrailBytes returns the raw bytes backing trailID's bit-packed stream,
// including bitio's required tail guard.
func (r *Reader) readTrailBytes(startBit, endBit uint64) ([]byte, error) {
	startByte := startBit / 8
	endByte := (endBit + 7) / 8
	realLen := int(endByte - startByte)
	need := realLen + bitio.TailGuard
	buf := make([]byte, need)
	n, err := r.ra.ReadAt(buf, int64(r.trailsBase+startByte))
	// Tail guard bytes may legitimately run past EOF for the last trail in
	// a package file; only a short read of the real bit range is an error.
	if n < realLen && err != nil {
		return nil, errs.ErrIORead
	}

	return buf, nil
}
