// Package napp implements a higher-order neighborhood approximation
// (NAPP) index for approximate nearest-neighbor search over arbitrary,
// possibly non-metric, distance spaces.
//
// WHAT IS NAPP?
// NAPP (Neighborhood APProximation) indexes each object by its closest
// reference points ("pivots"): two objects are likely close to each
// other if they rank the same pivots near the top. The higher-order
// variant implemented here indexes unordered *tuples* of close pivots
// (single pivots, pairs, or triples drawn from the top of each object's
// pivot ranking) instead of individual pivots, which sharpens the
// signal at the cost of a larger posting space.
//
// HOW IT WORKS:
// Build Phase:
//  1. Pick numPivot reference objects (sampled from the dataset or
//     loaded from a file).
//  2. For each object, rank all pivots by ascending distance (the
//     object's "permutation").
//  3. Enumerate every unordered pivotCombQty-subset of the top
//     numPrefix pivots, encode each subset into a dense integer
//     posting id, and append the object's dataset position to that
//     posting list.
//  4. Sort every posting list ascending by dataset position.
//
// Search Phase:
//  1. Compute the query's permutation and posting ids the same way.
//  2. Intersect the matching posting lists with one of four selectable
//     algorithms (scan, sort, merge, pqueue); objects sharing at least
//     a threshold number of tuples with the query become candidates.
//  3. Score candidates with the real distance function and keep the
//     k nearest (or all within a radius).
//
// THE SKIP FILTER:
// skipVal > 1 keeps only every skipVal-th tuple id, shrinking the
// posting array proportionally at the cost of recall. Each surviving
// posting entry then counts skipVal toward the overlap threshold.
//
// ACCURACY VS SPEED TRADEOFF:
//   - minTimes: higher values demand more shared tuples per candidate,
//     cutting the candidate pool (and recall) while speeding up the
//     final distance checks.
//   - numPrefixSearch: fewer query-side pivots touch fewer posting
//     lists; more pivots widen the candidate pool.
//   - invProcAlg: scan favors many short lists, sort favors bulk
//     copying, merge favors few lists, pqueue favors skewed lists.
//
// WHEN TO USE:
// Use this index when:
//  1. The distance is expensive or non-metric (no triangle inequality
//     to exploit), e.g. text similarity or learned distances.
//  2. The dataset is static: the index is batch-built and read-only.
//  3. Approximate answers are acceptable.
//
// DON'T use it when:
//  1. You need exact nearest neighbors - scan the dataset instead.
//  2. The dataset changes continuously - rebuilding is the only way to
//     incorporate updates.
//
// Example:
//
//	space, _ := napp.NewVectorSpace(napp.Euclidean)
//	idx := napp.New(space, data)
//	err := idx.CreateIndex(napp.Params{
//		"numPivot":     "128",
//		"numPrefix":    "16",
//		"pivotCombQty": "2",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	results, err := idx.NewSearch().WithObject(query).WithK(10).Execute()
package napp
