// Package napp's query engine.
//
// Every search follows the same skeleton: rank the pivots for the query
// object, encode the query's tuple ids over the numPrefixSearch prefix,
// accumulate per-object overlap across the matching posting lists with
// the configured algorithm, and hand every object whose overlap clears
// the threshold to the query's CheckAndAddToResult for the real
// distance evaluation.
//
// THE SCALED THRESHOLD:
// minTimes keeps its classic NAPP meaning of "approximately this many
// shared close pivots". Because an object indexed under pairs (or
// triples) of its L closest pivots generates C(L,2) (or C(L,3)) tuples
// instead of L, the user-specified minTimes is scaled by the ratio of
// tuples to pivots before comparison:
//
//	c=1: thresh = minTimes
//	c=2: thresh = minTimes * (L-1) / 2
//	c=3: thresh = minTimes * (L-1)(L-2) / 6
//
// using the build prefix L (not the query prefix). Every matching
// posting entry contributes skipVal to an object's overlap, so the
// threshold arithmetic is independent of the skip filter.
//
// ALGORITHM CHOICE:
//   - scan: counter array over the whole dataset; O(dataset) memory,
//     best with many short posting lists.
//   - sort: concatenate touched lists, radix sort, scan runs; memory
//     proportional to postings touched.
//   - merge: repeated sorted union into (id, count) pairs; best for
//     few lists.
//   - pqueue: document-at-a-time over a cursor min-heap; best for
//     skewed list lengths.
//
// All four produce identical candidate sets for the same configuration
// whenever the scaled threshold is positive; only their cost profiles
// differ. With a threshold of 0, scan also emits objects that share no
// tuple with the query (every counter is >= 0), while the other three
// emit only objects found in a touched posting list.
package napp

import (
	"fmt"
	"time"
)

// scaledThreshold converts the user-level minTimes into the effective
// posting-overlap threshold for the build configuration.
func scaledThreshold(minTimes int, p IndexParams) int {
	switch p.PivotCombQty {
	case 2:
		return minTimes * (p.NumPrefix - 1) / 2
	case 3:
		return minTimes * (p.NumPrefix - 1) * (p.NumPrefix - 2) / 6
	}
	return minTimes
}

// Search runs a query against the index: candidates sharing at least
// the scaled threshold of tuples with the query object are delivered to
// q.CheckAndAddToResult (unless skipChecking is set). The query object
// accumulates the result set; Search itself returns only failures.
func (ix *NAPPIndex) Search(q Query) error {
	return ix.search(q, nil)
}

// SearchWithFilter runs a query like Search but delivers only
// candidates admitted by the filter. A nil filter admits everything.
func (ix *NAPPIndex) SearchWithFilter(q Query, filter *CandidateFilter) error {
	return ix.search(q, filter)
}

func (ix *NAPPIndex) search(q Query, filter *CandidateFilter) error {
	if !ix.built {
		return ErrIndexNotBuilt
	}
	ix.mu.RLock()
	qp := ix.qp
	ix.mu.RUnlock()

	var t IndexStats
	searchStart := time.Now()

	pivotStart := time.Now()
	dists, err := ix.pivotIndex.ComputePivotDistancesQueryTime(q.Object(), nil)
	if err != nil {
		return err
	}
	perm := permutationFromDistances(dists)
	t.DistPivotCompTime = time.Since(pivotStart)

	idsStart := time.Now()
	combIDs := ix.combIDPool.loan()
	combIDs = genPivotCombIDs(combIDs, perm, qp.NumPrefixSearch, ix.params.PivotCombQty, ix.params.SkipVal)
	t.IDsGenTime = time.Since(idsStart)

	for _, cid := range combIDs {
		if int(cid) >= len(ix.postingLists) {
			return fmt.Errorf("bug: comb id %d >= posting space size %d", cid, len(ix.postingLists))
		}
	}

	thresh := scaledThreshold(qp.MinTimes, ix.params)
	cands := ix.candPool.loan()
	var postQty uint64

	switch qp.Alg {
	case AlgScan:
		cands, postQty = ix.procScan(combIDs, thresh, cands)
	case AlgStoreSort:
		cands, postQty = ix.procStoreSort(combIDs, thresh, cands, &t)
	case AlgMerge:
		cands, postQty = ix.procMerge(combIDs, thresh, cands)
	case AlgPriorQueue:
		cands, postQty = ix.procPriorQueue(combIDs, thresh, cands)
	default:
		return fmt.Errorf("bug: unknown inverted file processing algorithm %v", qp.Alg)
	}
	t.PostQty = postQty

	if !qp.SkipChecking {
		checkStart := time.Now()
		for _, pos := range cands {
			if filter.IsEligible(pos) {
				q.CheckAndAddToResult(ix.data[pos])
			}
		}
		t.DistCompTime = time.Since(checkStart)
	}

	ix.candPool.release(cands)
	ix.combIDPool.release(combIDs)

	t.SearchTime = time.Since(searchStart)
	t.ProcQueryQty = 1
	ix.statMu.Lock()
	ix.stats.add(t)
	ix.statMu.Unlock()
	return nil
}

// procScan accumulates overlap in a dataset-sized counter array and
// emits every position whose count clears the threshold.
func (ix *NAPPIndex) procScan(combIDs []uint32, thresh int, cands []uint32) ([]uint32, uint64) {
	counter := ix.counterPool.loan()
	if cap(counter) < len(ix.data) {
		counter = make([]uint32, len(ix.data))
	} else {
		counter = counter[:len(ix.data)]
		clear(counter)
	}

	skip := uint32(ix.params.SkipVal)
	var postQty uint64
	for _, cid := range combIDs {
		post := ix.postingLists[cid]
		postQty += uint64(len(post))
		for _, pos := range post {
			counter[pos] += skip
		}
	}

	for pos, cnt := range counter {
		if int(cnt) >= thresh {
			cands = append(cands, uint32(pos))
		}
	}

	ix.counterPool.release(counter)
	return cands, postQty
}

// procStoreSort concatenates the touched posting lists, radix-sorts the
// copy, and emits every run of equal positions long enough to clear the
// threshold.
func (ix *NAPPIndex) procStoreSort(combIDs []uint32, thresh int, cands []uint32, t *IndexStats) ([]uint32, uint64) {
	tmpRes := ix.tmpResPool.loan()

	copyStart := time.Now()
	var postQty uint64
	for _, cid := range combIDs {
		post := ix.postingLists[cid]
		postQty += uint64(len(post))
		tmpRes = append(tmpRes, post...)
	}
	t.CopyPostTime = time.Since(copyStart)

	sortStart := time.Now()
	radixSortUint32(tmpRes)
	t.SortCompTime = time.Since(sortStart)

	scanStart := time.Now()
	skip := ix.params.SkipVal
	start := 0
	for start < len(tmpRes) {
		pos := tmpRes[start]
		next := start + 1
		for next < len(tmpRes) && tmpRes[next] == pos {
			next++
		}
		if skip*(next-start) >= thresh {
			cands = append(cands, pos)
		}
		start = next
	}
	t.ScanSortedTime = time.Since(scanStart)

	ix.tmpResPool.release(tmpRes)
	return cands, postQty
}

// procMerge folds the touched posting lists into a sorted (id, count)
// accumulator with repeated linear unions, alternating two buffers.
func (ix *NAPPIndex) procMerge(combIDs []uint32, thresh int, cands []uint32) ([]uint32, uint64) {
	var tmpRes [2][]idCount
	prev := 0

	var postQty uint64
	for _, cid := range combIDs {
		post := ix.postingLists[cid]
		postQty += uint64(len(post))
		tmpRes[1-prev] = postListUnion(tmpRes[prev], post, tmpRes[1-prev], uint32(ix.params.SkipVal))
		prev = 1 - prev
	}

	for _, entry := range tmpRes[prev] {
		if int(entry.qty) >= thresh {
			cands = append(cands, entry.id)
		}
	}
	return cands, postQty
}

// procPriorQueue traverses all touched posting lists document-at-a-time
// behind a min-heap of per-list cursors: all cursors sharing the
// current minimum position are advanced together while the object's
// overlap accumulates.
func (ix *NAPPIndex) procPriorQueue(combIDs []uint32, thresh int, cands []uint32) ([]uint32, uint64) {
	var (
		h         postingHeap
		lists     [][]uint32
		positions []int
		postQty   uint64
	)

	for _, cid := range combIDs {
		post := ix.postingLists[cid]
		if len(post) == 0 {
			continue
		}
		qsi := uint32(len(lists))
		lists = append(lists, post)
		positions = append(positions, 0)
		h.Push(post[0], qsi)
	}

	skip := ix.params.SkipVal
	accum := 0

	for !h.Empty() {
		minPos := h.TopKey()

		// Drain every cursor currently at minPos, accumulating the
		// object's overlap.
		for !h.Empty() && h.TopKey() == minPos {
			qsi := h.TopData()
			positions[qsi]++
			accum += skip
			postQty++

			if positions[qsi] < len(lists[qsi]) {
				h.ReplaceTopKey(lists[qsi][positions[qsi]])
			} else {
				h.Pop()
			}
		}

		if accum >= thresh {
			cands = append(cands, minPos)
		}
		accum = 0
	}
	return cands, postQty
}

// Search builder. The fluent surface mirrors the rest of the search
// stack: configure, then Execute.

// Search is a fluent builder over the index's query path. Zero or one
// of WithRadius selects range semantics; otherwise the search is
// k-nearest-neighbor with a default k of 10.
type Search struct {
	ix              *NAPPIndex
	object          *Object
	k               int
	radius          float32
	useRadius       bool
	filterPositions []uint32
}

// NewSearch creates a search builder for this index.
func (ix *NAPPIndex) NewSearch() *Search {
	return &Search{
		ix: ix,
		k:  10, // Default k
	}
}

// WithObject sets the query object.
func (s *Search) WithObject(obj *Object) *Search {
	s.object = obj
	return s
}

// WithK sets the number of nearest neighbors to return. Defaults to 10.
func (s *Search) WithK(k int) *Search {
	s.k = k
	return s
}

// WithRadius switches the search to range semantics: every candidate
// within the radius is returned.
func (s *Search) WithRadius(radius float32) *Search {
	s.radius = radius
	s.useRadius = true
	return s
}

// WithFilter restricts delivered candidates to the given dataset
// positions. An empty list means no filtering.
func (s *Search) WithFilter(positions ...uint32) *Search {
	s.filterPositions = positions
	return s
}

// Execute runs the search and returns results sorted by ascending
// distance.
func (s *Search) Execute() ([]SearchResult, error) {
	if s.object == nil {
		return nil, fmt.Errorf("must specify a query object")
	}
	if !s.useRadius && s.k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", s.k)
	}

	filter := NewCandidateFilter(s.filterPositions)
	defer ReturnCandidateFilter(filter)

	var q Query
	if s.useRadius {
		q = NewRangeQuery(s.ix.space, s.object, s.radius)
	} else {
		q = NewKNNQuery(s.ix.space, s.object, s.k)
	}

	if err := s.ix.search(q, filter); err != nil {
		return nil, err
	}

	results := q.Results()
	if !s.useRadius {
		results = limitResults(results, s.k)
	}
	return results, nil
}
