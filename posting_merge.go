package napp

// idCount is an (object id, accumulated weight) pair. Slices of idCount
// sorted ascending by unique id are the working representation of the
// Merge algorithm.
type idCount struct {
	id  uint32
	qty uint32
}

// postListUnion merges a sorted (id, count) accumulator with an
// ascending posting list, writing the union into dst: every posting
// entry contributes weight to its id's count, ids only in the
// accumulator carry over unchanged. Duplicate ids inside the posting
// list each contribute (a list can hold an object more than once when
// the encoder maps distinct tuples to one posting id). dst is reset and
// returned so the caller can alternate two buffers across posting lists
// without allocating.
func postListUnion(prev []idCount, post []uint32, dst []idCount, weight uint32) []idCount {
	dst = dst[:0]

	var i, j int
	for i < len(prev) && j < len(post) {
		switch {
		case prev[i].id == post[j]:
			entry := idCount{id: prev[i].id, qty: prev[i].qty}
			for j < len(post) && post[j] == entry.id {
				entry.qty += weight
				j++
			}
			dst = append(dst, entry)
			i++
		case prev[i].id < post[j]:
			dst = append(dst, prev[i])
			i++
		default:
			entry := idCount{id: post[j]}
			for j < len(post) && post[j] == entry.id {
				entry.qty += weight
				j++
			}
			dst = append(dst, entry)
		}
	}
	for ; i < len(prev); i++ {
		dst = append(dst, prev[i])
	}
	for j < len(post) {
		entry := idCount{id: post[j]}
		for j < len(post) && post[j] == entry.id {
			entry.qty += weight
			j++
		}
		dst = append(dst, entry)
	}

	return dst
}
