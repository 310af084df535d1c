package napp

import (
	"github.com/x448/float16"
)

// PivotIndex is the pivot-distance oracle: given an object or a query,
// it fills a vector of distances to every pivot. The index consults it
// on the build path (index-time) and on the query path (query-time);
// the two entry points exist so that accelerated implementations can
// treat the directions differently.
//
// Implementations must be safe for concurrent use: the build pipeline
// calls ComputePivotDistancesIndexTime from multiple goroutines.
type PivotIndex interface {
	// ComputePivotDistancesIndexTime computes distances from a dataset
	// object to every pivot, reusing dst when it has sufficient
	// capacity. Failures propagate unchanged to the build.
	ComputePivotDistancesIndexTime(obj *Object, dst []float32) ([]float32, error)

	// ComputePivotDistancesQueryTime computes distances from a query
	// object to every pivot, reusing dst when it has sufficient
	// capacity. Failures propagate unchanged to the search.
	ComputePivotDistancesQueryTime(query *Object, dst []float32) ([]float32, error)
}

// Compile-time checks that both oracles implement PivotIndex.
var (
	_ PivotIndex = (*directPivotIndex)(nil)
	_ PivotIndex = (*halfPivotIndex)(nil)
)

// newPivotIndex picks the oracle for a pivot set: the half-precision
// accelerator when the space is a vector space (unless disabled), the
// direct-distance fallback otherwise. hashTrickDim only affects the
// accelerator.
func newPivotIndex(space Space, pivots []*Object, disable bool, hashTrickDim int) PivotIndex {
	if vs, ok := space.(*VectorSpace); ok && !disable {
		return newHalfPivotIndex(vs, pivots, hashTrickDim)
	}
	return &directPivotIndex{space: space, pivots: pivots}
}

// directPivotIndex computes pivot distances with straight Space.Distance
// calls. It is the fallback used for non-vector spaces and when
// disablePivotIndex is set.
type directPivotIndex struct {
	space  Space
	pivots []*Object
}

func (pi *directPivotIndex) compute(obj *Object, dst []float32) ([]float32, error) {
	dst = resizeFloat32(dst, len(pi.pivots))
	for i, pivot := range pi.pivots {
		dst[i] = pi.space.Distance(obj, pivot)
	}
	return dst, nil
}

func (pi *directPivotIndex) ComputePivotDistancesIndexTime(obj *Object, dst []float32) ([]float32, error) {
	return pi.compute(obj, dst)
}

func (pi *directPivotIndex) ComputePivotDistancesQueryTime(query *Object, dst []float32) ([]float32, error) {
	return pi.compute(query, dst)
}

// halfPivotIndex is the accelerated oracle for vector spaces. The pivot
// matrix is stored in half precision (IEEE 754 binary16, 2 bytes per
// component), halving resident pivot memory for large pivot sets.
// Distances are computed against per-call dequantized rows, so the
// approximation error is bounded by a single float16 round trip per
// component.
//
// When hashTrickDim > 0, pivot and object vectors are first folded into
// hashTrickDim dimensions (component i accumulates into i mod
// hashTrickDim) and distances are computed in the folded space. This is
// the hashing trick for very high-dimensional sparse inputs; it trades
// oracle fidelity for a fixed per-distance cost.
type halfPivotIndex struct {
	distance     Distance
	pivotRows    [][]uint16
	dim          int
	hashTrickDim int
}

func newHalfPivotIndex(space *VectorSpace, pivots []*Object, hashTrickDim int) *halfPivotIndex {
	dim := 0
	if len(pivots) > 0 {
		dim = len(pivots[0].Vector())
	}
	if hashTrickDim > 0 {
		dim = hashTrickDim
	}

	rows := make([][]uint16, len(pivots))
	folded := make([]float32, dim)
	for i, pivot := range pivots {
		vec := pivot.Vector()
		if hashTrickDim > 0 {
			vec = foldVector(vec, hashTrickDim, folded)
		}
		row := make([]uint16, len(vec))
		for j, v := range vec {
			row[j] = float16.Fromfloat32(v).Bits()
		}
		rows[i] = row
	}

	return &halfPivotIndex{
		distance:     space.distance,
		pivotRows:    rows,
		dim:          dim,
		hashTrickDim: hashTrickDim,
	}
}

func (pi *halfPivotIndex) compute(obj *Object, dst []float32) ([]float32, error) {
	dst = resizeFloat32(dst, len(pi.pivotRows))

	vec := obj.Vector()
	if pi.hashTrickDim > 0 {
		vec = foldVector(vec, pi.hashTrickDim, make([]float32, pi.hashTrickDim))
	}

	row := make([]float32, pi.dim)
	for i, packed := range pi.pivotRows {
		for j, bits := range packed {
			row[j] = float16.Frombits(bits).Float32()
		}
		dst[i] = pi.distance.Calculate(vec, row[:len(packed)])
	}
	return dst, nil
}

func (pi *halfPivotIndex) ComputePivotDistancesIndexTime(obj *Object, dst []float32) ([]float32, error) {
	return pi.compute(obj, dst)
}

func (pi *halfPivotIndex) ComputePivotDistancesQueryTime(query *Object, dst []float32) ([]float32, error) {
	return pi.compute(query, dst)
}

// foldVector accumulates vector components into dim hashed buckets.
// dst must have length dim; it is zeroed before accumulation.
func foldVector(vec []float32, dim int, dst []float32) []float32 {
	dst = dst[:dim]
	clear(dst)
	for i, v := range vec {
		dst[i%dim] += v
	}
	return dst
}

// resizeFloat32 returns a slice of exactly n elements, reusing buf's
// backing array when possible.
func resizeFloat32(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}
