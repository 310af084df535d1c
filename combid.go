package napp

import "fmt"

// Tuple-id encoding.
//
// Every unordered combination of 1, 2, or 3 distinct pivot ids maps to
// a dense integer "raw index" via the canonical lexicographic rank:
//
//	single {a}            -> a
//	pair   {a,b}, a > b   -> a(a-1)/2 + b
//	triple {a,b,c}, a>b>c -> C(a,3) + C(b,2) + c
//
// Both ranks are bijections between unordered tuples over [0, numPivot)
// and a contiguous integer range, and both are symmetric in their
// arguments (the arguments are ordered internally). The builder and the
// query engine share this encoding; nothing else about it matters.
//
// The skip filter then keeps only raw indices divisible by skipVal and
// emits rawIndex / skipVal, compressing the posting space by a factor
// of skipVal at the cost of recall.

// pairRank returns the lexicographic rank of the unordered pair {a, b}.
// The arguments must be distinct.
func pairRank(a, b uint32) uint32 {
	if a < b {
		a, b = b, a
	}
	return uint32(uint64(a)*uint64(a-1)/2) + b
}

// tripleRank returns the lexicographic rank of the unordered triple
// {a, b, c}. The arguments must be pairwise distinct.
func tripleRank(a, b, c uint32) uint32 {
	// Order a > b > c with a three-element sorting network.
	if a < b {
		a, b = b, a
	}
	if b < c {
		b, c = c, b
	}
	if a < b {
		a, b = b, a
	}
	A, B := uint64(a), uint64(b)
	return uint32(A*(A-1)*(A-2)/6 + B*(B-1)/2 + uint64(c))
}

// rawCombSpace returns the size of the raw tuple-index space for a
// given pivot count and combination size.
func rawCombSpace(numPivot, combQty int) int {
	p := numPivot
	switch combQty {
	case 1:
		return p
	case 2:
		return p * (p - 1) / 2
	case 3:
		return p * (p - 1) * (p - 2) / 6
	}
	panic(fmt.Sprintf("illegal pivot combination size %d", combQty))
}

// postingSpaceSize returns the number of posting lists for a
// configuration: the raw tuple space divided by the skip value,
// rounded up.
func postingSpaceSize(numPivot, combQty, skipVal int) int {
	raw := rawCombSpace(numPivot, combQty)
	return (raw + skipVal - 1) / skipVal
}

// combsPerObject returns how many raw tuples a single object generates
// from a prefix of the given length, before skip filtering: C(prefix, combQty).
func combsPerObject(prefix, combQty int) int {
	return rawCombSpace(prefix, combQty)
}

// genPivotCombIDs enumerates the posting ids for every unordered
// combQty-subset of the first prefixSize entries of perm, applying the
// skip filter. Results are appended to ids[:0] and the filled slice is
// returned, so callers can reuse pooled buffers. The output order is
// deterministic but not meaningful.
//
// For combQty == 1 the raw index is the pivot id itself (perm[i]), so
// the posting space is indexed by pivot identity just like the pair and
// triple cases.
func genPivotCombIDs(ids []uint32, perm Permutation, prefixSize, combQty, skipVal int) []uint32 {
	ids = ids[:0]
	skip := uint32(skipVal)

	switch combQty {
	case 1:
		for i := 0; i < prefixSize; i++ {
			index := perm[i]
			if index%skip == 0 {
				ids = append(ids, index/skip)
			}
		}
	case 2:
		for j := 1; j < prefixSize; j++ {
			for k := 0; k < j; k++ {
				index := pairRank(perm[j], perm[k])
				if index%skip == 0 {
					ids = append(ids, index/skip)
				}
			}
		}
	case 3:
		for j := 2; j < prefixSize; j++ {
			for k := 1; k < j; k++ {
				for l := 0; l < k; l++ {
					index := tripleRank(perm[j], perm[k], perm[l])
					if index%skip == 0 {
						ids = append(ids, index/skip)
					}
				}
			}
		}
	default:
		panic(fmt.Sprintf("illegal pivot combination size %d", combQty))
	}

	return ids
}
