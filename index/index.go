// Package index builds and evaluates the page-level coarse bitmap index
// described in spec.md §4.9: trails are partitioned into fixed-size pages,
// and for every (field, val) item observed anywhere in a page, the page's
// id is recorded in that item's posting list. A CNF query first resolves to
// a candidate set of pages via postings, which callers narrow further by
// running trail.Filter against the actual per-trail item data; the index
// never claims precision finer than "this page might contain a match".
//
// Posting-list storage follows a small/large split grounded on Google
// Codesearch's posting-list index (see other_examples grounding notes in
// DESIGN.md): an item touching few pages
// stores an inline sorted page-id list; one touching many pages spills to a
// dense bitmap. Building shards work across page ranges with
// golang.org/x/sync/errgroup, the concurrency primitive this module's
// pack uses for the same "N independent chunks, join at the end" shape.
package index

import (
	"context"
	"encoding/binary"
	"runtime"
	"sort"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/trailcask/trailcask/errs"
	"github.com/trailcask/trailcask/format"
	"github.com/trailcask/trailcask/internal/pool"
	"github.com/trailcask/trailcask/item"
)

// inlineThreshold is the largest inline page-id list a posting may carry
// before switching to the dense bitmap representation.
const inlineThreshold = 4

// Config holds page-index build parameters.
type Config struct {
	TrailsPerPage int
	Shards        int
}

// DefaultConfig returns sane page-index build parameters for numTrails.
func DefaultConfig(numTrails int) Config {
	const targetPages = 4096
	perPage := numTrails / targetPages
	if perPage < 1 {
		perPage = 1
	}

	return Config{TrailsPerPage: perPage, Shards: 8}
}

// TrailItems returns every distinct item present anywhere in trailID's
// events; callers supply this so the index package stays agnostic of how
// trail data is stored.
type TrailItems func(trailID int) []item.Item

// Source captures the identity of the store a page index was built from
// (spec.md §4.11: "a 64-bit checksum derived from the source's (num_trails,
// num_events, num_fields, min_ts, max_ts, version)"). Build binds this into
// the index's on-disk checksum; Open is handed the store's own Source (read
// from its info section) and fails with errs.ErrIndexChecksumMismatch if it
// does not match what the index was built against.
type Source struct {
	NumTrails    int
	NumEvents    int
	NumFields    int
	MinTimestamp uint64
	MaxTimestamp uint64
	Version      uint64
}

// checksum derives the 64-bit value stored in the index section's header.
func (s Source) checksum() uint64 {
	var buf [48]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(s.NumTrails))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(s.NumEvents))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(s.NumFields))
	binary.LittleEndian.PutUint64(buf[24:32], s.MinTimestamp)
	binary.LittleEndian.PutUint64(buf[32:40], s.MaxTimestamp)
	binary.LittleEndian.PutUint64(buf[40:48], s.Version)

	return xxhash.Sum64(buf[:])
}

// Index is the built, queryable page index.
type Index struct {
	numTrails     int
	trailsPerPage int
	numPages      int
	checksum      uint64
	postings      map[item.Item]posting
}

// Checksum returns the 64-bit value binding this index to the store it was
// built from (spec.md §4.11).
func (idx *Index) Checksum() uint64 { return idx.checksum }

type posting struct {
	inline []uint32 // sorted page ids, used when len(inline) <= inlineThreshold
	bitmap []uint64 // one bit per page, used otherwise
}

func (p posting) pages(numPages int) []uint32 {
	if p.bitmap == nil {
		return p.inline
	}
	out := make([]uint32, 0, numPages)
	for pg := 0; pg < numPages; pg++ {
		if p.bitmap[pg/64]&(1<<uint(pg%64)) != 0 {
			out = append(out, uint32(pg))
		}
	}

	return out
}

// Build partitions numTrails trails into pages of cfg.TrailsPerPage trails
// each and constructs the posting list for every item, sharding the scan
// across cfg.Shards page-range shards, of which at most
// min(runtime.NumCPU()/2, shards) (and at least one) run at once. src binds the returned
// Index's checksum to the store it was built from (spec.md §4.11).
func Build(ctx context.Context, numTrails int, cfg Config, src Source, items TrailItems) (*Index, error) {
	if cfg.TrailsPerPage < 1 {
		cfg.TrailsPerPage = 1
	}
	numPages := (numTrails + cfg.TrailsPerPage - 1) / cfg.TrailsPerPage
	if numPages == 0 {
		numPages = 1
	}
	if numPages > format.MaxPages {
		return nil, errs.ErrTooManyValues
	}

	shards := cfg.Shards
	if shards < 1 {
		shards = 1
	}
	if shards > numPages {
		shards = numPages
	}

	shardResults := make([]map[item.Item]map[uint32]struct{}, shards)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(runtime.NumCPU()/2, shards)))
	pagesPerShard := (numPages + shards - 1) / shards
	for s := 0; s < shards; s++ {
		s := s
		startPage := s * pagesPerShard
		endPage := startPage + pagesPerShard
		if endPage > numPages {
			endPage = numPages
		}
		g.Go(func() error {
			local := make(map[item.Item]map[uint32]struct{})
			for pg := startPage; pg < endPage; pg++ {
				startTrail := pg * cfg.TrailsPerPage
				endTrail := startTrail + cfg.TrailsPerPage
				if endTrail > numTrails {
					endTrail = numTrails
				}
				for tid := startTrail; tid < endTrail; tid++ {
					for _, it := range items(tid) {
						set, ok := local[it]
						if !ok {
							set = make(map[uint32]struct{})
							local[it] = set
						}
						set[uint32(pg)] = struct{}{}
					}
				}
			}
			shardResults[s] = local

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[item.Item]map[uint32]struct{})
	for _, local := range shardResults {
		for it, pages := range local {
			set, ok := merged[it]
			if !ok {
				set = make(map[uint32]struct{})
				merged[it] = set
			}
			for pg := range pages {
				set[pg] = struct{}{}
			}
		}
	}

	postings := make(map[item.Item]posting, len(merged))
	for it, set := range merged {
		pages := make([]uint32, 0, len(set))
		for pg := range set {
			pages = append(pages, pg)
		}
		sort.Slice(pages, func(i, j int) bool { return pages[i] < pages[j] })

		if len(pages) <= inlineThreshold {
			postings[it] = posting{inline: pages}
			continue
		}

		bitmap := make([]uint64, (numPages+63)/64)
		for _, pg := range pages {
			bitmap[pg/64] |= 1 << uint(pg%64)
		}
		postings[it] = posting{bitmap: bitmap}
	}

	return &Index{
		numTrails:     numTrails,
		trailsPerPage: cfg.TrailsPerPage,
		numPages:      numPages,
		checksum:      src.checksum(),
		postings:      postings,
	}, nil
}

// NumPages returns the number of pages the index partitions trails into.
func (idx *Index) NumPages() int { return idx.numPages }

// TrailsPerPage returns the page size used at build time.
func (idx *Index) TrailsPerPage() int { return idx.trailsPerPage }

// PageOf returns the page id containing trailID.
func (idx *Index) PageOf(trailID int) int { return trailID / idx.trailsPerPage }

// PagesFor returns the sorted page ids where it was observed at least once.
func (idx *Index) PagesFor(it item.Item) []uint32 {
	p, ok := idx.postings[it]
	if !ok {
		return nil
	}

	return p.pages(idx.numPages)
}

// Bytes serialises the index to its on-disk section form: a header
// (num_pages, trails_per_page, num_trails, num_postings, checksum) followed by, per
// posting, the item, a flag byte, and either an inline page-id list or a
// dense bitmap. The checksum is spec.md §4.11's store-identity binding,
// checked by Open.
func (idx *Index) Bytes() []byte {
	items := make([]item.Item, 0, len(idx.postings))
	for it := range idx.postings {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })

	bb := pool.GetBuffer()
	defer pool.PutBuffer(bb)

	var hdr [24]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(idx.numPages))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(idx.trailsPerPage))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(idx.numTrails))
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(len(items)))
	binary.LittleEndian.PutUint64(hdr[16:24], idx.checksum)
	bb.MustWrite(hdr[:])

	bitmapWords := (idx.numPages + 63) / 64
	for _, it := range items {
		p := idx.postings[it]
		var itemBuf [8]byte
		binary.LittleEndian.PutUint64(itemBuf[:], uint64(it))
		bb.MustWrite(itemBuf[:])

		if p.bitmap == nil {
			bb.MustWrite([]byte{0}) // inline flag
			var n [4]byte
			binary.LittleEndian.PutUint32(n[:], uint32(len(p.inline)))
			bb.MustWrite(n[:])
			for _, pg := range p.inline {
				var b [4]byte
				binary.LittleEndian.PutUint32(b[:], pg)
				bb.MustWrite(b[:])
			}
			continue
		}

		bb.MustWrite([]byte{1}) // bitmap flag
		for _, w := range p.bitmap[:bitmapWords] {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], w)
			bb.MustWrite(b[:])
		}
	}

	// bb is returned to the pool by the deferred Put above, so the caller
	// gets its own copy rather than a slice aliasing pooled memory.
	out := make([]byte, bb.Len())
	copy(out, bb.Bytes())

	return out
}

// Open parses an index section written by Bytes and checks its checksum
// against src, the identity of the store it is being opened for (spec.md
// §4.11: "opening the index against a store with a different checksum is a
// fatal error").
func Open(raw []byte, src Source) (*Index, error) {
	if len(raw) < 24 {
		return nil, errs.ErrCorruptSection
	}
	numPages := int(binary.LittleEndian.Uint32(raw[0:4]))
	trailsPerPage := int(binary.LittleEndian.Uint32(raw[4:8]))
	numTrails := int(binary.LittleEndian.Uint32(raw[8:12]))
	numPostings := int(binary.LittleEndian.Uint32(raw[12:16]))
	checksum := binary.LittleEndian.Uint64(raw[16:24])
	if checksum != src.checksum() {
		return nil, errs.ErrIndexChecksumMismatch
	}

	bitmapWords := (numPages + 63) / 64
	postings := make(map[item.Item]posting, numPostings)
	pos := 24
	for i := 0; i < numPostings; i++ {
		if pos+9 > len(raw) {
			return nil, errs.ErrCorruptSection
		}
		it := item.Item(binary.LittleEndian.Uint64(raw[pos : pos+8]))
		flag := raw[pos+8]
		pos += 9

		if flag == 0 {
			if pos+4 > len(raw) {
				return nil, errs.ErrCorruptSection
			}
			n := int(binary.LittleEndian.Uint32(raw[pos : pos+4]))
			pos += 4
			if pos+4*n > len(raw) {
				return nil, errs.ErrCorruptSection
			}
			inline := make([]uint32, n)
			for j := 0; j < n; j++ {
				inline[j] = binary.LittleEndian.Uint32(raw[pos : pos+4])
				pos += 4
			}
			postings[it] = posting{inline: inline}

			continue
		}

		if pos+8*bitmapWords > len(raw) {
			return nil, errs.ErrCorruptSection
		}
		bitmap := make([]uint64, bitmapWords)
		for j := 0; j < bitmapWords; j++ {
			bitmap[j] = binary.LittleEndian.Uint64(raw[pos : pos+8])
			pos += 8
		}
		postings[it] = posting{bitmap: bitmap}
		pos += 0
	}

	return &Index{
		numTrails:     numTrails,
		trailsPerPage: trailsPerPage,
		numPages:      numPages,
		checksum:      checksum,
		postings:      postings,
	}, nil
}
