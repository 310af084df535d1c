package napp

import (
	"fmt"
	"math/rand"
)

// samplePivots draws qty distinct objects uniformly at random from the
// dataset. It returns the sampled objects and their dataset positions;
// the positions are persisted by SaveIndex so a reloaded index can
// re-borrow the same pivots.
func samplePivots(data []*Object, qty int) ([]*Object, []uint32, error) {
	if qty <= 0 {
		return nil, nil, fmt.Errorf("pivot quantity must be positive, got %d", qty)
	}
	if qty > len(data) {
		return nil, nil, fmt.Errorf("cannot sample %d pivots from %d objects", qty, len(data))
	}

	// A random permutation of all positions; its first qty entries are
	// the sampled pivots.
	positions := rand.Perm(len(data))[:qty]

	pivots := make([]*Object, qty)
	pivotPos := make([]uint32, qty)
	for i, pos := range positions {
		pivots[i] = data[pos]
		pivotPos[i] = uint32(pos)
	}
	return pivots, pivotPos, nil
}

// loadPivots reads qty pivot objects from an external file via the
// space. Pivots loaded this way are owned by the index rather than the
// dataset.
func loadPivots(space Space, path string, qty int) ([]*Object, error) {
	pivots, _, err := space.ReadDataset(path, qty)
	if err != nil {
		return nil, err
	}
	if len(pivots) < qty {
		return nil, fmt.Errorf("not enough pivots in %q: want %d, got %d", path, qty, len(pivots))
	}
	return pivots[:qty], nil
}
