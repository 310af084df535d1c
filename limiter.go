package napp

// sanitizeK ensures k is within valid bounds [1, maxResults].
//
// If k is <= 0 or exceeds maxResults, it returns maxResults. This
// provides a consistent way to handle k values across search surfaces.
func sanitizeK(k, maxResults int) int {
	if k <= 0 || k > maxResults {
		return maxResults
	}
	return k
}

// limitResults applies k-limiting to a result slice.
//
// This is a convenience wrapper around sanitizeK that both sanitizes k
// and returns the sliced results in one call. Results are assumed to be
// sorted best-first already.
func limitResults(results []SearchResult, k int) []SearchResult {
	k = sanitizeK(k, len(results))
	return results[:k]
}
