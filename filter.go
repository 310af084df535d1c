package napp

import (
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// CandidateFilter restricts which candidates a search may deliver to
// its query. It uses a roaring bitmap over dataset positions for fast
// membership testing, so a caller that has already narrowed the
// eligible set some other way (a metadata query, an access check) can
// run the index search only over that subset.
//
// Filtering happens between candidate selection and the final distance
// check: ineligible candidates are dropped before any distance is
// computed.
type CandidateFilter struct {
	bitmap *roaring.Bitmap
}

// candidateFilterPool reuses CandidateFilter allocations across
// searches.
var candidateFilterPool = sync.Pool{
	New: func() interface{} {
		return &CandidateFilter{
			bitmap: roaring.New(),
		}
	},
}

// NewCandidateFilter creates a filter admitting exactly the given
// dataset positions. An empty position list returns nil, which admits
// everything. The filter should be handed back via
// ReturnCandidateFilter when the search is done.
func NewCandidateFilter(positions []uint32) *CandidateFilter {
	if len(positions) == 0 {
		return nil
	}

	filter := candidateFilterPool.Get().(*CandidateFilter)
	filter.bitmap.Clear()
	filter.bitmap.AddMany(positions)
	return filter
}

// ReturnCandidateFilter returns a filter to the pool for reuse. Safe to
// call with nil. Do not use the filter afterwards.
func ReturnCandidateFilter(filter *CandidateFilter) {
	if filter != nil {
		candidateFilterPool.Put(filter)
	}
}

// IsEligible reports whether a dataset position may be delivered. A nil
// filter admits everything.
func (f *CandidateFilter) IsEligible(position uint32) bool {
	if f == nil {
		return true
	}
	return f.bitmap.Contains(position)
}
