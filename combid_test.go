package napp

import (
	"testing"
)

// TestPairRank tests the lexicographic pair rank: symmetry and
// bijectivity over all unordered pairs of a small pivot universe.
func TestPairRank(t *testing.T) {
	const numPivot = 20

	seen := make(map[uint32][2]uint32)
	for a := uint32(0); a < numPivot; a++ {
		for b := uint32(0); b < a; b++ {
			r := pairRank(a, b)
			if r != pairRank(b, a) {
				t.Errorf("pairRank(%d,%d) != pairRank(%d,%d)", a, b, b, a)
			}
			if prev, dup := seen[r]; dup {
				t.Errorf("rank %d assigned to both %v and {%d,%d}", r, prev, a, b)
			}
			seen[r] = [2]uint32{a, b}
			if max := uint32(numPivot * (numPivot - 1) / 2); r >= max {
				t.Errorf("pairRank(%d,%d) = %d outside [0,%d)", a, b, r, max)
			}
		}
	}
	if want := numPivot * (numPivot - 1) / 2; len(seen) != want {
		t.Errorf("got %d distinct pair ranks, want %d", len(seen), want)
	}
}

// TestTripleRank tests symmetry and bijectivity of the triple rank.
func TestTripleRank(t *testing.T) {
	const numPivot = 12

	seen := make(map[uint32][3]uint32)
	for a := uint32(0); a < numPivot; a++ {
		for b := uint32(0); b < a; b++ {
			for c := uint32(0); c < b; c++ {
				r := tripleRank(a, b, c)
				for _, alt := range [][3]uint32{{a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a}} {
					if got := tripleRank(alt[0], alt[1], alt[2]); got != r {
						t.Errorf("tripleRank%v = %d, want %d (argument order must not matter)", alt, got, r)
					}
				}
				if prev, dup := seen[r]; dup {
					t.Errorf("rank %d assigned to both %v and {%d,%d,%d}", r, prev, a, b, c)
				}
				seen[r] = [3]uint32{a, b, c}
			}
		}
	}
	if want := numPivot * (numPivot - 1) * (numPivot - 2) / 6; len(seen) != want {
		t.Errorf("got %d distinct triple ranks, want %d", len(seen), want)
	}
}

// TestPostingSpaceSize tests the posting-space sizing including skip
// rounding.
func TestPostingSpaceSize(t *testing.T) {
	tests := []struct {
		name     string
		numPivot int
		combQty  int
		skipVal  int
		want     int
	}{
		{"singles", 512, 1, 1, 512},
		{"singles with skip", 10, 1, 3, 4}, // ceil(10/3)
		{"pairs", 512, 2, 1, 512 * 511 / 2},
		{"pairs with skip", 8, 2, 5, 6}, // ceil(28/5)
		{"triples", 32, 3, 1, 32 * 31 * 30 / 6},
		{"triples with skip", 8, 3, 7, 8}, // ceil(56/7)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := postingSpaceSize(tt.numPivot, tt.combQty, tt.skipVal); got != tt.want {
				t.Errorf("postingSpaceSize(%d,%d,%d) = %d, want %d", tt.numPivot, tt.combQty, tt.skipVal, got, tt.want)
			}
		})
	}
}

// TestGenPivotCombIDsSingles verifies that the comb-qty-1 encoder uses
// the pivot identity (perm[i]) as the raw index and applies the skip
// filter to it.
func TestGenPivotCombIDsSingles(t *testing.T) {
	perm := Permutation{5, 0, 9, 3, 6, 1, 2, 4, 7, 8}

	t.Run("no skip", func(t *testing.T) {
		ids := genPivotCombIDs(nil, perm, 3, 1, 1)
		want := []uint32{5, 0, 9}
		if !equalUint32(ids, want) {
			t.Errorf("got %v, want %v", ids, want)
		}
	})

	t.Run("skip 3 keeps multiples of 3", func(t *testing.T) {
		ids := genPivotCombIDs(nil, perm, len(perm), 1, 3)
		// Pivot ids 0, 9, 3, 6 are divisible by 3; emitted as id/3 in
		// prefix order.
		want := []uint32{0, 3, 1, 2}
		if !equalUint32(ids, want) {
			t.Errorf("got %v, want %v", ids, want)
		}
	})
}

// TestGenPivotCombIDsPairs checks pair enumeration counts and values.
func TestGenPivotCombIDsPairs(t *testing.T) {
	perm := Permutation{3, 1, 4, 0, 2}

	ids := genPivotCombIDs(nil, perm, 4, 2, 1)
	if want := 4 * 3 / 2; len(ids) != want {
		t.Fatalf("got %d pair ids, want %d", len(ids), want)
	}

	want := map[uint32]bool{
		pairRank(3, 1): true,
		pairRank(3, 4): true,
		pairRank(3, 0): true,
		pairRank(1, 4): true,
		pairRank(1, 0): true,
		pairRank(4, 0): true,
	}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected pair id %d", id)
		}
	}
}

// TestGenPivotCombIDsTriples checks triple enumeration counts and the
// skip filter's divide-and-emit behavior.
func TestGenPivotCombIDsTriples(t *testing.T) {
	perm := Permutation{0, 1, 2, 3, 4, 5}

	ids := genPivotCombIDs(nil, perm, 5, 3, 1)
	if want := 5 * 4 * 3 / 6; len(ids) != want {
		t.Fatalf("got %d triple ids, want %d", len(ids), want)
	}

	const skip = 2
	filtered := genPivotCombIDs(nil, perm, 5, 3, skip)
	for _, id := range filtered {
		// Every emitted id is rawIndex/skip for a divisible rawIndex,
		// so re-multiplying must land inside the raw space.
		if id*skip >= uint32(rawCombSpace(5, 3)) {
			t.Errorf("filtered id %d out of range", id)
		}
	}
	wantFiltered := 0
	for _, id := range ids {
		if id%skip == 0 {
			wantFiltered++
		}
	}
	if len(filtered) != wantFiltered {
		t.Errorf("got %d filtered ids, want %d", len(filtered), wantFiltered)
	}
}

// TestGenPivotCombIDsReusesBuffer checks the pooled-buffer contract:
// results are appended to ids[:0].
func TestGenPivotCombIDsReusesBuffer(t *testing.T) {
	perm := Permutation{2, 0, 1}
	buf := make([]uint32, 0, 16)

	ids := genPivotCombIDs(buf, perm, 3, 2, 1)
	if len(ids) != 3 {
		t.Fatalf("got %d ids, want 3", len(ids))
	}
	if &ids[0] != &buf[:1][0] {
		t.Error("encoder did not reuse the provided buffer")
	}
}

func equalUint32(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
