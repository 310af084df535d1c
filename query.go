package napp

import (
	"container/heap"
	"sort"
)

// SearchResult is a scored dataset object.
type SearchResult struct {
	Object   *Object // the dataset object
	Distance float32 // real distance from the query object
}

// Query is the result-maintenance contract between the index and a
// search. The index selects candidates and hands each one to
// CheckAndAddToResult; the query computes the real distance and decides
// what to keep. Candidate order is algorithm-dependent, so
// implementations must be order-insensitive.
//
// A Query is single-use state for one search; it is not safe for
// concurrent use.
type Query interface {
	// Object returns the query object.
	Object() *Object

	// CheckAndAddToResult evaluates the real distance to a candidate
	// and updates the result set.
	CheckAndAddToResult(obj *Object)

	// Results returns the accumulated result set sorted by ascending
	// distance.
	Results() []SearchResult
}

// Compile-time checks that both query types implement Query.
var (
	_ Query = (*KNNQuery)(nil)
	_ Query = (*RangeQuery)(nil)
)

// resultHeap is a max-heap of SearchResults ordered by distance: the
// worst kept result sits at the root so KNN eviction is O(log k).
type resultHeap []SearchResult

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return h[i].Distance > h[j].Distance }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x interface{}) { *h = append(*h, x.(SearchResult)) }
func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// KNNQuery keeps the k nearest candidates seen so far in a bounded
// max-heap.
type KNNQuery struct {
	space   Space
	query   *Object
	k       int
	results resultHeap
}

// NewKNNQuery creates a k-nearest-neighbor query over the given space.
// k must be positive.
func NewKNNQuery(space Space, query *Object, k int) *KNNQuery {
	return &KNNQuery{
		space:   space,
		query:   query,
		k:       k,
		results: make(resultHeap, 0, k),
	}
}

// Object returns the query object.
func (q *KNNQuery) Object() *Object {
	return q.query
}

// K returns the requested neighbor count.
func (q *KNNQuery) K() int {
	return q.k
}

// Radius returns the distance of the current k-th nearest result, or
// +Inf semantics via ok=false while fewer than k results are held.
func (q *KNNQuery) Radius() (float32, bool) {
	if len(q.results) < q.k {
		return 0, false
	}
	return q.results[0].Distance, true
}

// CheckAndAddToResult computes the real distance to a candidate and
// keeps it when it improves the current k nearest.
func (q *KNNQuery) CheckAndAddToResult(obj *Object) {
	d := q.space.Distance(q.query, obj)
	if len(q.results) < q.k {
		heap.Push(&q.results, SearchResult{Object: obj, Distance: d})
		return
	}
	if d >= q.results[0].Distance {
		return
	}
	q.results[0] = SearchResult{Object: obj, Distance: d}
	heap.Fix(&q.results, 0)
}

// Results returns the kept neighbors sorted by ascending distance.
func (q *KNNQuery) Results() []SearchResult {
	out := make([]SearchResult, len(q.results))
	copy(out, q.results)
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

// RangeQuery keeps every candidate within a fixed radius of the query
// object.
type RangeQuery struct {
	space   Space
	query   *Object
	radius  float32
	results []SearchResult
}

// NewRangeQuery creates a range query over the given space: candidates
// at distance <= radius are kept.
func NewRangeQuery(space Space, query *Object, radius float32) *RangeQuery {
	return &RangeQuery{
		space:  space,
		query:  query,
		radius: radius,
	}
}

// Object returns the query object.
func (q *RangeQuery) Object() *Object {
	return q.query
}

// Radius returns the query radius.
func (q *RangeQuery) Radius() float32 {
	return q.radius
}

// CheckAndAddToResult computes the real distance to a candidate and
// keeps it when it falls inside the radius.
func (q *RangeQuery) CheckAndAddToResult(obj *Object) {
	d := q.space.Distance(q.query, obj)
	if d <= q.radius {
		q.results = append(q.results, SearchResult{Object: obj, Distance: d})
	}
}

// Results returns the in-range objects sorted by ascending distance.
func (q *RangeQuery) Results() []SearchResult {
	out := make([]SearchResult, len(q.results))
	copy(out, q.results)
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}
