package napp

import "sort"

// radixSortThreshold is the slice length below which comparison sorting
// beats the four counting passes.
const radixSortThreshold = 64

// radixSortUint32 sorts a slice of uint32 ascending using LSD byte
// radix sort: four counting passes over 256 buckets, skipping passes
// whose key byte is constant. Runs in O(4n) time and O(n) scratch,
// independent of the key distribution, which is what the posting-list
// sorts want - lists hold dataset positions that are dense and large.
//
// Small slices fall back to the standard comparison sort.
func radixSortUint32(a []uint32) {
	if len(a) < radixSortThreshold {
		sort.Slice(a, func(i, j int) bool { return a[i] < a[j] })
		return
	}

	buf := make([]uint32, len(a))
	src, dst := a, buf

	for shift := uint(0); shift < 32; shift += 8 {
		var counts [256]int
		for _, v := range src {
			counts[(v>>shift)&0xff]++
		}

		// A pass whose byte is constant across the slice is a no-op.
		if counts[src[0]>>shift&0xff] == len(src) {
			continue
		}

		pos := 0
		var offsets [256]int
		for b := 0; b < 256; b++ {
			offsets[b] = pos
			pos += counts[b]
		}

		for _, v := range src {
			b := (v >> shift) & 0xff
			dst[offsets[b]] = v
			offsets[b]++
		}

		src, dst = dst, src
	}

	if &src[0] != &a[0] {
		copy(a, src)
	}
}
