// Package napp's persistence layer: a whitespace-delimited textual
// snapshot of a built index. The layout is
//
//	key=value header lines (method descriptor and build parameters)
//	pivot dataset positions and pivot object IDs (sampled pivots only)
//	postQty=<number of posting lists>
//	one line of space-separated object positions per posting list
//	lineQty=<total line count, including this line>
//
// The trailing line count and the pivot object IDs are integrity
// checks: a snapshot loaded against a different or mutated dataset
// fails the load instead of silently producing wrong candidates.
package napp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// methodDescValue identifies this index family in snapshot headers.
const methodDescValue = "napp_horder_invindex"

// Snapshot field names.
const (
	fieldMethodDesc = "methodDesc"
	fieldLineQty    = "lineQty"
	fieldIndexQty   = "indexQty"
	fieldPostQty    = "postQty"
)

// SaveIndex writes a textual snapshot of a built index to path.
func (ix *NAPPIndex) SaveIndex(path string) error {
	if !ix.built {
		return ErrIndexNotBuilt
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot open %q for writing: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	lineQty := 0

	writeField := func(name, value string) {
		fmt.Fprintf(w, "%s=%s\n", name, value)
		lineQty++
	}
	writeInts32 := func(vals []uint32) {
		for i, v := range vals {
			if i > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(strconv.FormatUint(uint64(v), 10))
		}
		w.WriteByte('\n')
		lineQty++
	}

	p := ix.params
	writeField(fieldMethodDesc, methodDescValue)
	writeField(paramNumPivot, strconv.Itoa(p.NumPivot))
	writeField(paramNumPivotIndex, strconv.Itoa(p.NumPrefix))
	writeField(paramSkipVal, strconv.Itoa(p.SkipVal))
	writeField(paramPivotCombQty, strconv.Itoa(p.PivotCombQty))
	writeField(fieldIndexQty, strconv.Itoa(len(ix.postingLists)))
	writeField(paramPivotFile, p.PivotFile)
	writeField(paramDisablePivotIndex, boolField(p.DisablePivotIndex))
	writeField(paramHashTrickDim, strconv.Itoa(p.HashTrickDim))

	if p.PivotFile == "" {
		// Sampled pivots: persist their dataset positions and object
		// IDs so the load can re-borrow and verify them.
		writeInts32(ix.pivotPos)
		ids := make([]uint32, len(ix.pivots))
		for i, pivot := range ix.pivots {
			ids[i] = pivot.ID()
		}
		writeInts32(ids)
	}

	writeField(fieldPostQty, strconv.Itoa(len(ix.postingLists)))
	for _, post := range ix.postingLists {
		writeInts32(post)
	}

	writeField(fieldLineQty, strconv.Itoa(lineQty+1))

	if err := w.Flush(); err != nil {
		return fmt.Errorf("cannot write %q: %w", path, err)
	}
	return nil
}

// LoadIndex restores an index from a snapshot written by SaveIndex. The
// index must have been created with New over the same dataset the
// snapshot was built from; mismatched pivot IDs or a wrong line count
// fail the load. Loading is all-or-nothing.
func (ix *NAPPIndex) LoadIndex(path string) error {
	if ix.built {
		return ErrIndexAlreadyBuilt
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open %q for reading: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 1<<20)
	lineQty := 0

	readLine := func() (string, error) {
		line, err := r.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		if err != nil {
			return "", fmt.Errorf("%q line %d: %w", path, lineQty+1, err)
		}
		lineQty++
		return strings.TrimRight(line, "\n"), nil
	}
	readField := func(name string) (string, error) {
		line, err := readLine()
		if err != nil {
			return "", err
		}
		key, value, found := strings.Cut(line, "=")
		if !found || key != name {
			return "", fmt.Errorf("%q line %d: expected field %q, got %q", path, lineQty, name, line)
		}
		return value, nil
	}
	readIntField := func(name string) (int, error) {
		value, err := readField(name)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%q line %d: field %s: %q is not an integer", path, lineQty, name, value)
		}
		return n, nil
	}

	methodDesc, err := readField(fieldMethodDesc)
	if err != nil {
		return err
	}
	if methodDesc != methodDescValue {
		return fmt.Errorf("%q was created by a different method: %q", path, methodDesc)
	}

	var p IndexParams
	p.IndexThreadQty = runtime.NumCPU()
	if p.NumPivot, err = readIntField(paramNumPivot); err != nil {
		return err
	}
	if p.NumPrefix, err = readIntField(paramNumPivotIndex); err != nil {
		return err
	}
	if p.SkipVal, err = readIntField(paramSkipVal); err != nil {
		return err
	}
	if p.PivotCombQty, err = readIntField(paramPivotCombQty); err != nil {
		return err
	}
	indexQty, err := readIntField(fieldIndexQty)
	if err != nil {
		return err
	}
	if p.PivotFile, err = readField(paramPivotFile); err != nil {
		return err
	}
	disable, err := readField(paramDisablePivotIndex)
	if err != nil {
		return err
	}
	if p.DisablePivotIndex, err = parseBoolField(disable); err != nil {
		return fmt.Errorf("%q line %d: %w", path, lineQty, err)
	}
	if p.HashTrickDim, err = readIntField(paramHashTrickDim); err != nil {
		return err
	}

	if p.NumPivot <= 0 || p.NumPrefix <= 0 || p.NumPrefix > p.NumPivot ||
		p.SkipVal < 1 || p.PivotCombQty < 1 || p.PivotCombQty > 3 {
		return fmt.Errorf("%q holds an inconsistent configuration: %+v", path, p)
	}

	var pivots []*Object
	var pivotPos []uint32
	if p.PivotFile == "" {
		posLine, err := readLine()
		if err != nil {
			return err
		}
		if pivotPos, err = parseUint32Line(posLine); err != nil {
			return fmt.Errorf("%q line %d: pivot positions: %w", path, lineQty, err)
		}
		if len(pivotPos) != p.NumPivot {
			return fmt.Errorf("%q line %d: got %d pivot positions, want %d", path, lineQty, len(pivotPos), p.NumPivot)
		}
		pivots = make([]*Object, p.NumPivot)
		for i, pos := range pivotPos {
			if int(pos) >= len(ix.data) {
				return fmt.Errorf("%q: pivot position %d exceeds dataset size %d (dataset mutated?)", path, pos, len(ix.data))
			}
			pivots[i] = ix.data[pos]
		}

		idLine, err := readLine()
		if err != nil {
			return err
		}
		ids, err := parseUint32Line(idLine)
		if err != nil {
			return fmt.Errorf("%q line %d: pivot IDs: %w", path, lineQty, err)
		}
		if len(ids) != p.NumPivot {
			return fmt.Errorf("%q line %d: got %d pivot IDs, want %d", path, lineQty, len(ids), p.NumPivot)
		}
		// The ID check catches a swapped or regenerated dataset: the
		// positions may still be in range while pointing at different
		// objects.
		for i, id := range ids {
			if pivots[i].ID() != id {
				return fmt.Errorf("%q: pivot %d has ID %d, snapshot says %d (dataset mutated?)", path, i, pivots[i].ID(), id)
			}
		}
	} else {
		if pivots, err = loadPivots(ix.space, p.PivotFile, p.NumPivot); err != nil {
			return err
		}
	}

	ix.pivots = pivots
	ix.pivotPos = pivotPos
	if err := ix.initDerived(p); err != nil {
		return err
	}
	if indexQty != ix.maxPostQty {
		return fmt.Errorf("%q: indexQty %d does not match posting space size %d", path, indexQty, ix.maxPostQty)
	}

	postQty, err := readIntField(fieldPostQty)
	if err != nil {
		return err
	}
	if postQty != indexQty {
		return fmt.Errorf("%q: postQty %d does not match indexQty %d", path, postQty, indexQty)
	}

	for pid := 0; pid < postQty; pid++ {
		line, err := readLine()
		if err != nil {
			return err
		}
		post, err := parseUint32Line(line)
		if err != nil {
			return fmt.Errorf("%q line %d: posting list %d: %w", path, lineQty, pid, err)
		}
		for _, pos := range post {
			if int(pos) >= len(ix.data) {
				return fmt.Errorf("%q: posting list %d holds position %d beyond dataset size %d", path, pid, pos, len(ix.data))
			}
		}
		ix.postingLists[pid] = post
	}

	expLineQty, err := readIntField(fieldLineQty)
	if err != nil {
		return err
	}
	if expLineQty != lineQty {
		return fmt.Errorf("%q: expected %d lines, read %d (snapshot truncated?)", path, expLineQty, lineQty)
	}

	ix.qp = defaultQueryTimeParams(p)
	ix.built = true
	return nil
}

// boolField renders a bool the way snapshots store it.
func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// parseBoolField parses a snapshot bool.
func parseBoolField(s string) (bool, error) {
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a snapshot boolean (want 0 or 1)", s)
}

// parseUint32Line splits a space-separated line of nonnegative
// integers. An empty line yields an empty slice.
func parseUint32Line(line string) ([]uint32, error) {
	fields := strings.Fields(line)
	out := make([]uint32, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad integer %q", field)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}
