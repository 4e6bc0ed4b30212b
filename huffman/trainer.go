package huffman

import (
	"fmt"

	"github.com/trailcask/trailcask/internal/hash"
	"github.com/trailcask/trailcask/item"
)

// sampleTarget bounds how many trails Trainer observes at full resolution
// before it starts subsampling; mirrors axiomhq-fsst's escalating-fraction
// sampling (train.go's frac loop), but driven by trail count rather than
// byte count since our unit of corpus is trails, not strings.
const sampleTarget = 1 << 20

// Trainer accumulates item and bigram frequencies over a corpus of trails,
// sampling at a fixed rate once the corpus is large enough that sampling
// all trails would be wasteful (spec.md §4.6 Pass 1).
type Trainer struct {
	itemFreq   map[item.Item]uint64
	bigramFreq map[[2]item.Item]uint64

	totalTrails int
	sampleEvery uint64 // observe 1 in sampleEvery trails; 1 means no sampling
}

// NewTrainer returns a Trainer configured for a corpus expected to contain
// approximately totalTrails trails.
func NewTrainer(totalTrails int) *Trainer {
	sampleEvery := uint64(1)
	if totalTrails > sampleTarget {
		sampleEvery = uint64(totalTrails) / sampleTarget
		if sampleEvery < 1 {
			sampleEvery = 1
		}
	}

	return &Trainer{
		itemFreq:    make(map[item.Item]uint64),
		bigramFreq:  make(map[[2]item.Item]uint64),
		totalTrails: totalTrails,
		sampleEvery: sampleEvery,
	}
}

// sampled deterministically decides whether trailID is part of the sample,
// using the same xxHash64 (github.com/cespare/xxhash/v2, wrapped by this
// module's internal/hash) that internal/stringid hashes long keys with, so
// no second hash family is introduced solely for sampling.
func (tr *Trainer) sampled(trailID uint64) bool {
	if tr.sampleEvery <= 1 {
		return true
	}

	return hash.ID(fmt.Sprintf("trail-sample-%d", trailID))%tr.sampleEvery == 0
}

// ObserveTrail folds one trail's per-event item sequences into the running
// frequency tables, unless trailID falls outside this run's sample.
func (tr *Trainer) ObserveTrail(trailID uint64, events [][]item.Item) {
	if !tr.sampled(trailID) {
		return
	}

	for _, items := range events {
		var prev item.Item
		havePrev := false
		for _, it := range items {
			tr.itemFreq[it]++
			if havePrev {
				tr.bigramFreq[[2]item.Item{prev, it}]++
			}
			prev = it
			havePrev = true
		}
	}
}
