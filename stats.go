package napp

import "time"

// IndexStats holds cumulative query-path diagnostics. Every search
// updates the index's stats exactly once, at completion, under a single
// mutex; Stats() returns a snapshot. The counters are diagnostics only
// and never part of a search result.
type IndexStats struct {
	// SearchTime is the total wall-clock time spent inside searches.
	SearchTime time.Duration

	// DistPivotCompTime is the time spent computing query-to-pivot
	// distances (the permutation input).
	DistPivotCompTime time.Duration

	// IDsGenTime is the time spent enumerating query tuple ids.
	IDsGenTime time.Duration

	// CopyPostTime is the time the store-sort algorithm spent copying
	// posting lists into its scratch buffer.
	CopyPostTime time.Duration

	// SortCompTime is the time the store-sort algorithm spent sorting
	// the copied postings.
	SortCompTime time.Duration

	// ScanSortedTime is the time the store-sort algorithm spent
	// scanning runs of the sorted copy.
	ScanSortedTime time.Duration

	// DistCompTime is the time spent in the final candidate distance
	// checks.
	DistCompTime time.Duration

	// ProcQueryQty is the number of completed searches.
	ProcQueryQty uint64

	// PostQty is the total number of posting-list entries touched
	// across all searches.
	PostQty uint64
}

// add folds one search's timings into the cumulative counters. The
// caller holds the stats mutex.
func (s *IndexStats) add(other IndexStats) {
	s.SearchTime += other.SearchTime
	s.DistPivotCompTime += other.DistPivotCompTime
	s.IDsGenTime += other.IDsGenTime
	s.CopyPostTime += other.CopyPostTime
	s.SortCompTime += other.SortCompTime
	s.ScanSortedTime += other.ScanSortedTime
	s.DistCompTime += other.DistCompTime
	s.ProcQueryQty += other.ProcQueryQty
	s.PostQty += other.PostQty
}
