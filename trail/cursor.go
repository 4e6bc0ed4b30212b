package trail

import (
	"io"

	"github.com/trailcask/trailcask/errs"
	"github.com/trailcask/trailcask/huffman"
	"github.com/trailcask/trailcask/internal/bitio"
	"github.com/trailcask/trailcask/item"
)

// Cursor iterates one trail's decoded events in timestamp order. A Cursor
// is single-owner: it borrows its Reader and must not be used from more
// than one goroutine concurrently, matching mebo's blob decoder iterators.
type Cursor struct {
	model      *huffman.Model
	r          *bitio.Reader
	trailID    uint64
	lastTS     uint64
	haveFirst  bool
	filter     *Filter
	peeked     *Event
	peekedErr  error
	havePeeked bool
}

// SetFilter attaches an event filter to the cursor (spec.md §4.8): Next and
// Peek only yield events that match it, skipping rejected events without
// exposing them. Pass nil to clear a previously attached filter. Must not
// be called while a Peek result is pending.
func (c *Cursor) SetFilter(f *Filter) {
	c.filter = f
}

// NewCursor opens a Cursor over trailID.
func (rd *Reader) NewCursor(trailID uint64) (*Cursor, error) {
	start, end, err := rd.trailBitRange(trailID)
	if err != nil {
		return nil, err
	}
	buf, err := rd.readTrailBytes(start, end)
	if err != nil {
		return nil, err
	}

	// readTrailBytes returns a buffer that starts at the trail's byte-aligned
	// start; rebase the bit reader's offsets accordingly.
	byteAlignedStart := (start / 8) * 8
	return &Cursor{
		model:   rd.model,
		r:       bitio.NewReader(buf, start-byteAlignedStart, end-byteAlignedStart),
		trailID: trailID,
	}, nil
}

// Next decodes and returns the next event matching the attached filter (if
// any), or io.EOF once the trail is exhausted. Events rejected by the
// filter are decoded and discarded internally, never returned.
func (c *Cursor) Next() (Event, error) {
	if c.havePeeked {
		c.havePeeked = false

		return *c.peeked, c.peekedErr
	}

	return c.nextMatching()
}

// Peek returns the next matching event without consuming it; a subsequent
// Next returns the same event. Peek is the "would next() yield anything"
// read-ahead spec.md §4.8 describes for skipping fully-filtered trails: if
// Peek returns io.EOF, no event in the remainder of the trail matches.
func (c *Cursor) Peek() (Event, error) {
	if !c.havePeeked {
		ev, err := c.nextMatching()
		c.peeked = &ev
		c.peekedErr = err
		c.havePeeked = true
	}

	return *c.peeked, c.peekedErr
}

// nextMatching decodes events until one satisfies the attached filter (or
// there is no filter) or the trail is exhausted.
func (c *Cursor) nextMatching() (Event, error) {
	for {
		ev, err := c.decodeNext()
		if err != nil {
			return Event{}, err
		}
		if c.filter == nil || c.filter.Matches(ev) {
			return ev, nil
		}
	}
}

func (c *Cursor) decodeNext() (Event, error) {
	if c.r.Done() {
		return Event{}, io.EOF
	}

	var ts uint64
	if !c.haveFirst {
		ts = c.r.GetUvarint()
		c.haveFirst = true
	} else {
		ts = uint64(int64(c.lastTS) + c.r.GetVarint())
	}
	c.lastTS = ts

	var items []item.Item
	for {
		sym, err := c.model.Decode(c.r)
		if err != nil {
			return Event{}, err
		}
		if sym.A == item.Sentinel {
			break
		}
		items = append(items, sym.A)
		if sym.Kind == huffman.KindBigram {
			if sym.B == item.Sentinel {
				break
			}
			items = append(items, sym.B)
		}
	}

	return Event{Timestamp: ts, Items: items}, nil
}
