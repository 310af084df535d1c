// Package napp's core type: a batch-built, read-mostly inverted index
// over higher-order pivot neighborhoods.
//
// BUILD PIPELINE:
// The dataset is partitioned into contiguous ranges, one per worker.
// Each worker ranks the pivots for its objects, encodes the tuple ids
// of the top-numPrefix ranking, and appends object positions to
// thread-local scratch posting lists. Scratch is flushed into the
// shared posting array under per-posting-list mutexes whenever a worker
// has buffered maxTmpPostingDocs objects, and once more when the worker
// finishes. A final parallel pass radix-sorts every posting list
// ascending, which is the only post-build ordering invariant.
//
// MEMORY:
// Per worker, the scratch array holds one (mostly empty) slice per
// posting id, bounding flush-free buffering to maxTmpPostingDocs
// objects. Shared posting lists are reserved at 1.2x their expected
// average size to keep append-driven reallocation rare.
//
// CONCURRENCY INVARIANTS:
// Workers flush distinct lists in parallel; a given list is mutated by
// at most one worker at a time. Readers are not supported during build.
// After CreateIndex returns, posting lists are immutable and queries
// read them without locks.
package napp

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// maxTmpPostingDocs is the number of objects a worker may buffer in its
// thread-local scratch before flushing to the shared posting lists.
const maxTmpPostingDocs = 4096 * 32

// ErrIndexNotBuilt is returned by operations that need a built index.
var ErrIndexNotBuilt = errors.New("index has not been built")

// ErrIndexAlreadyBuilt is returned when CreateIndex or LoadIndex is
// called on an index that already holds posting lists.
var ErrIndexAlreadyBuilt = errors.New("index has already been built")

// NAPPIndex is a higher-order neighborhood approximation index: an
// inverted file keyed by unordered tuples of close pivots. It is built
// once over a fixed dataset and read-only afterwards; see the package
// documentation for the algorithm.
//
// Thread-safety: CreateIndex and LoadIndex must complete before any
// other method is called. After that, Search and the query-time
// parameter setters are safe for concurrent use.
type NAPPIndex struct {
	// space provides the distance function; data is the indexed
	// dataset. Posting lists store positions into data.
	space Space
	data  []*Object

	// params is the immutable build-time configuration.
	params IndexParams

	// pivots are the reference objects; pivotPos holds their dataset
	// positions when they were sampled (empty for file-loaded pivots).
	pivots   []*Object
	pivotPos []uint32

	// pivotIndex is the pivot-distance oracle.
	pivotIndex PivotIndex

	// maxPostQty is the posting-space size M; the expected-size figures
	// drive posting-list reservations and pool capacities.
	maxPostQty      int
	expAvgPostSize  int
	expPostPerQuery int

	// postingLists[p] is the ascending list of dataset positions
	// indexed under posting id p. postMu[p] guards it during build.
	postingLists [][]uint32
	postMu       []sync.Mutex

	// Build-only scratch: tmpPostingLists[worker][p] buffers appends,
	// tmpPostDocQty[worker] counts objects since the last flush.
	tmpPostingLists [][][]uint32
	tmpPostDocQty   []int

	// Query scratch pools.
	combIDPool  *uint32SlicePool
	candPool    *uint32SlicePool
	tmpResPool  *uint32SlicePool
	counterPool *uint32SlicePool

	// mu guards the mutable query-time parameters. The built flag is
	// set once by CreateIndex or LoadIndex and read without locking.
	mu    sync.RWMutex
	qp    QueryTimeParams
	built bool

	// statMu guards stats; updated once per completed search.
	statMu sync.Mutex
	stats  IndexStats
}

// New creates an unbuilt index over a dataset. The dataset is borrowed,
// not copied, and must not change for the lifetime of the index.
// CreateIndex or LoadIndex must be called before searching.
func New(space Space, data []*Object) *NAPPIndex {
	return &NAPPIndex{
		space: space,
		data:  data,
	}
}

// CreateIndex validates the build configuration, selects or loads the
// pivot set, and bulk-builds the posting lists. The build is
// all-or-nothing: any failure leaves the index unbuilt.
//
// See Params and IndexParams for the accepted keys; unknown keys are
// rejected.
func (ix *NAPPIndex) CreateIndex(params Params) error {
	if ix.built {
		return ErrIndexAlreadyBuilt
	}

	p, err := parseIndexParams(params)
	if err != nil {
		return err
	}

	if p.PivotFile == "" {
		ix.pivots, ix.pivotPos, err = samplePivots(ix.data, p.NumPivot)
	} else {
		ix.pivots, err = loadPivots(ix.space, p.PivotFile, p.NumPivot)
		ix.pivotPos = nil
	}
	if err != nil {
		return err
	}

	if err := ix.initDerived(p); err != nil {
		return err
	}

	// Build-only scratch, one posting array per worker.
	workers := p.IndexThreadQty
	ix.tmpPostingLists = make([][][]uint32, workers)
	ix.tmpPostDocQty = make([]int, workers)
	for w := 0; w < workers; w++ {
		ix.tmpPostingLists[w] = make([][]uint32, ix.maxPostQty)
	}

	if err := parallelFor(len(ix.data), workers, ix.buildObject); err != nil {
		return err
	}

	for w := 0; w < workers; w++ {
		ix.flushTmpPost(w)
	}

	// Sorting is essential for the merging algorithms; it also makes
	// the build deterministic regardless of worker count.
	err = parallelFor(ix.maxPostQty, workers, func(pid, _ int) error {
		radixSortUint32(ix.postingLists[pid])
		return nil
	})
	if err != nil {
		return err
	}

	ix.tmpPostingLists = nil
	ix.tmpPostDocQty = nil

	ix.qp = defaultQueryTimeParams(p)
	ix.built = true
	return nil
}

// initDerived installs the build configuration and everything computed
// from it: the pivot-distance oracle, posting-space size, expected-size
// accounting, posting array, and the scratch pools.
func (ix *NAPPIndex) initDerived(p IndexParams) error {
	raw := rawCombSpace(p.NumPivot, p.PivotCombQty)
	if raw == 0 {
		return fmt.Errorf("numPivot (%d) is too small to form %d-pivot combinations", p.NumPivot, p.PivotCombQty)
	}
	if uint64(raw) > math.MaxUint32 {
		return fmt.Errorf("posting space overflow: %d pivots with pivotCombQty=%d need %d raw tuple ids", p.NumPivot, p.PivotCombQty, raw)
	}

	ix.params = p
	ix.pivotIndex = newPivotIndex(ix.space, ix.pivots, p.DisablePivotIndex, p.HashTrickDim)
	ix.maxPostQty = postingSpaceSize(p.NumPivot, p.PivotCombQty, p.SkipVal)

	combPerObject := combsPerObject(p.NumPrefix, p.PivotCombQty)
	ix.expAvgPostSize = len(ix.data) * combPerObject / (p.SkipVal * ix.maxPostQty)
	ix.expPostPerQuery = ix.expAvgPostSize * combPerObject / p.SkipVal

	ix.combIDPool = newUint32SlicePool(combPerObject)
	ix.candPool = newUint32SlicePool(2 * ix.expPostPerQuery)
	ix.tmpResPool = newUint32SlicePool(2 * ix.expPostPerQuery)
	ix.counterPool = newUint32SlicePool(len(ix.data))

	ix.postingLists = make([][]uint32, ix.maxPostQty)
	ix.postMu = make([]sync.Mutex, ix.maxPostQty)
	if reserve := ix.expAvgPostSize * 12 / 10; reserve > 0 {
		for i := range ix.postingLists {
			ix.postingLists[i] = make([]uint32, 0, reserve)
		}
	}
	return nil
}

// buildObject indexes a single object: permutation, tuple ids, and
// thread-local posting appends, flushing scratch when the buffered
// object count reaches maxTmpPostingDocs.
func (ix *NAPPIndex) buildObject(id, worker int) error {
	dists, err := ix.pivotIndex.ComputePivotDistancesIndexTime(ix.data[id], nil)
	if err != nil {
		return err
	}
	perm := permutationFromDistances(dists)

	combIDs := ix.combIDPool.loan()
	combIDs = genPivotCombIDs(combIDs, perm, ix.params.NumPrefix, ix.params.PivotCombQty, ix.params.SkipVal)

	scratch := ix.tmpPostingLists[worker]
	for _, cid := range combIDs {
		if int(cid) >= ix.maxPostQty {
			return fmt.Errorf("bug: comb id %d >= posting space size %d", cid, ix.maxPostQty)
		}
		scratch[cid] = append(scratch[cid], uint32(id))
	}
	ix.combIDPool.release(combIDs)

	ix.tmpPostDocQty[worker]++
	if ix.tmpPostDocQty[worker] >= maxTmpPostingDocs {
		ix.flushTmpPost(worker)
	}
	return nil
}

// flushTmpPost appends a worker's nonempty scratch lists to the shared
// posting lists under per-list locks and resets the scratch.
func (ix *NAPPIndex) flushTmpPost(worker int) {
	scratch := ix.tmpPostingLists[worker]
	for cid, entries := range scratch {
		if len(entries) == 0 {
			continue
		}
		ix.postMu[cid].Lock()
		ix.postingLists[cid] = append(ix.postingLists[cid], entries...)
		ix.postMu[cid].Unlock()
		scratch[cid] = entries[:0]
	}
	ix.tmpPostDocQty[worker] = 0
}

// SetQueryTimeParams validates and installs the query-time
// configuration. It is idempotent: installing the same parameters twice
// is a no-op. Unknown keys are rejected and nothing is installed on
// error.
func (ix *NAPPIndex) SetQueryTimeParams(params Params) error {
	if !ix.built {
		return ErrIndexNotBuilt
	}
	qp, err := parseQueryTimeParams(params, ix.params)
	if err != nil {
		return err
	}
	ix.mu.Lock()
	ix.qp = qp
	ix.mu.Unlock()
	return nil
}

// QueryTimeParams returns the currently installed query-time
// configuration.
func (ix *NAPPIndex) QueryTimeParams() QueryTimeParams {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.qp
}

// IndexParams returns the build-time configuration. Only meaningful
// after a successful CreateIndex or LoadIndex.
func (ix *NAPPIndex) IndexParams() IndexParams {
	return ix.params
}

// Pivots returns the pivot set borrowed by the index.
func (ix *NAPPIndex) Pivots() []*Object {
	return ix.pivots
}

// Stats returns a snapshot of the cumulative search diagnostics.
func (ix *NAPPIndex) Stats() IndexStats {
	ix.statMu.Lock()
	defer ix.statMu.Unlock()
	return ix.stats
}
