package napp

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// buildPersistIndex builds a small index with sampled pivots for the
// snapshot tests.
func buildPersistIndex(t *testing.T) (*NAPPIndex, *VectorSpace, []*Object) {
	t.Helper()
	space := mustVectorSpace(t)
	data := randomDataset(80, 3, 41)
	idx := buildIndex(t, space, data, Params{
		"numPivot":       "8",
		"numPrefix":      "4",
		"pivotCombQty":   "2",
		"indexThreadQty": "2",
	})
	return idx, space, data
}

// TestSaveLoadRoundTrip: a loaded snapshot reproduces the posting
// lists, the pivot set, and the candidate sets of the original index.
func TestSaveLoadRoundTrip(t *testing.T) {
	idx, space, data := buildPersistIndex(t)
	path := filepath.Join(t.TempDir(), "index.napp")

	if err := idx.SaveIndex(path); err != nil {
		t.Fatalf("SaveIndex() error: %v", err)
	}

	loaded := New(space, data)
	if err := loaded.LoadIndex(path); err != nil {
		t.Fatalf("LoadIndex() error: %v", err)
	}

	if len(loaded.postingLists) != len(idx.postingLists) {
		t.Fatalf("loaded %d posting lists, want %d", len(loaded.postingLists), len(idx.postingLists))
	}
	for pid := range idx.postingLists {
		if !equalUint32(loaded.postingLists[pid], idx.postingLists[pid]) {
			t.Fatalf("posting list %d differs after round trip", pid)
		}
	}

	for i, pivot := range idx.pivots {
		if loaded.pivots[i] != pivot {
			t.Fatalf("pivot %d is not the same dataset object after round trip", i)
		}
	}

	// Same candidates for a handful of queries under every algorithm.
	for _, alg := range allAlgs {
		for qi := 0; qi < 5; qi++ {
			query := NewVectorObject(2000+uint32(qi), []float32{float32(qi), 5, 2})
			params := Params{"minTimes": "1", "invProcAlg": alg}
			if err := idx.SetQueryTimeParams(params); err != nil {
				t.Fatalf("SetQueryTimeParams() error: %v", err)
			}
			if err := loaded.SetQueryTimeParams(params); err != nil {
				t.Fatalf("SetQueryTimeParams() error: %v", err)
			}
			want := candidateSet(t, idx, space, query)
			got := candidateSet(t, loaded, space, query)
			if !equalUint32(got, want) {
				t.Fatalf("%s query %d: loaded candidates %v, want %v", alg, qi, got, want)
			}
		}
	}
}

// TestSaveLoadPivotFile: snapshots of indexes with file-loaded pivots
// re-read the pivot file on load.
func TestSaveLoadPivotFile(t *testing.T) {
	space := mustVectorSpace(t)
	data := lineDataset(30)
	pivotFile := writeVectorFile(t, [][]float32{{0}, {10}, {20}, {29}})

	idx := buildIndex(t, space, data, Params{
		"numPivot":       "4",
		"numPrefix":      "2",
		"pivotCombQty":   "2",
		"pivotFile":      pivotFile,
		"indexThreadQty": "1",
	})

	path := filepath.Join(t.TempDir(), "index.napp")
	if err := idx.SaveIndex(path); err != nil {
		t.Fatalf("SaveIndex() error: %v", err)
	}

	loaded := New(space, data)
	if err := loaded.LoadIndex(path); err != nil {
		t.Fatalf("LoadIndex() error: %v", err)
	}
	for pid := range idx.postingLists {
		if !equalUint32(loaded.postingLists[pid], idx.postingLists[pid]) {
			t.Fatalf("posting list %d differs after round trip", pid)
		}
	}

	query := NewVectorObject(999, []float32{15})
	if !equalUint32(candidateSet(t, loaded, space, query), candidateSet(t, idx, space, query)) {
		t.Error("loaded index produces different candidates")
	}
}

// TestSaveIndexNotBuilt: snapshots require a built index.
func TestSaveIndexNotBuilt(t *testing.T) {
	idx := New(mustVectorSpace(t), lineDataset(5))
	if err := idx.SaveIndex(filepath.Join(t.TempDir(), "x")); err != ErrIndexNotBuilt {
		t.Errorf("got %v, want ErrIndexNotBuilt", err)
	}
}

// TestLoadIndexAlreadyBuilt: loading over a built index is rejected.
func TestLoadIndexAlreadyBuilt(t *testing.T) {
	idx, _, _ := buildPersistIndex(t)
	path := filepath.Join(t.TempDir(), "index.napp")
	if err := idx.SaveIndex(path); err != nil {
		t.Fatalf("SaveIndex() error: %v", err)
	}
	if err := idx.LoadIndex(path); err != ErrIndexAlreadyBuilt {
		t.Errorf("got %v, want ErrIndexAlreadyBuilt", err)
	}
}

// TestLoadIndexIntegrity tests the data-integrity failure modes:
// foreign snapshots, mutated datasets, and truncated files.
func TestLoadIndexIntegrity(t *testing.T) {
	idx, space, data := buildPersistIndex(t)
	path := filepath.Join(t.TempDir(), "index.napp")
	if err := idx.SaveIndex(path); err != nil {
		t.Fatalf("SaveIndex() error: %v", err)
	}

	t.Run("foreign method descriptor", func(t *testing.T) {
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile() error: %v", err)
		}
		bad := strings.Replace(string(raw), methodDescValue, "hnsw", 1)
		badPath := writeFile(t, "foreign.napp", bad)

		loaded := New(space, data)
		if err := loaded.LoadIndex(badPath); err == nil {
			t.Error("expected error but got none")
		}
	})

	t.Run("mutated dataset ids", func(t *testing.T) {
		// Same vectors, shifted object IDs: positions resolve but the
		// pivot ID check must fire.
		shifted := make([]*Object, len(data))
		for i, obj := range data {
			shifted[i] = NewVectorObject(obj.ID()+1000, obj.Vector())
		}
		loaded := New(space, shifted)
		if err := loaded.LoadIndex(path); err == nil || !strings.Contains(err.Error(), "pivot") {
			t.Errorf("got %v, want pivot mismatch error", err)
		}
	})

	t.Run("shrunken dataset", func(t *testing.T) {
		loaded := New(space, data[:3])
		if err := loaded.LoadIndex(path); err == nil {
			t.Error("expected error but got none")
		}
	})

	t.Run("truncated snapshot", func(t *testing.T) {
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile() error: %v", err)
		}
		lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
		truncated := strings.Join(lines[:len(lines)-2], "\n") + "\n" + lines[len(lines)-1] + "\n"
		truncPath := writeFile(t, "trunc.napp", truncated)

		loaded := New(space, data)
		if err := loaded.LoadIndex(truncPath); err == nil {
			t.Error("expected error but got none")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		loaded := New(space, data)
		if err := loaded.LoadIndex(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Error("expected error but got none")
		}
	})
}

// TestSnapshotIsTextual: the layout is inspectable line-oriented text
// with the self-check line count at the end.
func TestSnapshotIsTextual(t *testing.T) {
	idx, _, _ := buildPersistIndex(t)
	path := filepath.Join(t.TempDir(), "index.napp")
	if err := idx.SaveIndex(path); err != nil {
		t.Fatalf("SaveIndex() error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")

	if !strings.HasPrefix(lines[0], fieldMethodDesc+"=") {
		t.Errorf("first line %q is not the method descriptor", lines[0])
	}
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, fieldLineQty+"=") {
		t.Fatalf("last line %q is not the line count", last)
	}
	want := fieldLineQty + "=" + strconv.Itoa(len(lines))
	if last != want {
		t.Errorf("line count %q, want %q", last, want)
	}
}
