package napp

import "sort"

// Permutation is a ranking of pivot ids by ascending distance from some
// object: perm[0] is the closest pivot, perm[1] the second closest, and
// so on. A permutation always contains every pivot id in [0, numPivot)
// exactly once.
type Permutation []uint32

// permutationFromDistances converts a pivot-distance vector into a
// permutation. Ties are broken by ascending pivot id, which makes the
// ranking total and deterministic.
func permutationFromDistances(dists []float32) Permutation {
	type distPair struct {
		dist float32
		id   uint32
	}

	pairs := make([]distPair, len(dists))
	for i, d := range dists {
		pairs[i] = distPair{dist: d, id: uint32(i)}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].dist != pairs[j].dist {
			return pairs[i].dist < pairs[j].dist
		}
		return pairs[i].id < pairs[j].id
	})

	perm := make(Permutation, len(pairs))
	for i, p := range pairs {
		perm[i] = p.id
	}
	return perm
}
