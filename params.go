package napp

import (
	"fmt"
	"runtime"
	"sort"
	"strconv"
)

// Params is the string-keyed configuration map accepted by CreateIndex
// and SetQueryTimeParams. Parsing is strict: unknown keys, conflicting
// aliases, and out-of-range values are rejected with descriptive
// errors, and nothing is installed until the whole map validates.
type Params map[string]string

// Build-time parameter keys.
const (
	paramNumPivot          = "numPivot"
	paramNumPrefix         = "numPrefix"
	paramNumPivotIndex     = "numPivotIndex" // alias of numPrefix
	paramIndexThreadQty    = "indexThreadQty"
	paramDisablePivotIndex = "disablePivotIndex"
	paramHashTrickDim      = "hashTrickDim"
	paramPivotFile         = "pivotFile"
	paramSkipVal           = "skipVal"
	paramPivotCombQty      = "pivotCombQty"
)

// Query-time parameter keys.
const (
	paramSkipChecking    = "skipChecking"
	paramInvProcAlg      = "invProcAlg"
	paramMinTimes        = "minTimes"
	paramNumPivotSearch  = "numPivotSearch" // alias of minTimes
	paramNumPrefixSearch = "numPrefixSearch"
)

// InvProcAlg selects the posting-list processing algorithm used at
// query time.
type InvProcAlg int

const (
	// AlgScan accumulates overlap counts in a dataset-sized counter
	// array. O(dataset) memory; fastest with many short lists.
	AlgScan InvProcAlg = iota

	// AlgStoreSort concatenates the touched posting lists, radix-sorts
	// the copy, and scans runs of equal ids. Memory proportional to the
	// postings touched.
	AlgStoreSort

	// AlgMerge folds the posting lists into a sorted (id, count) list
	// with repeated linear unions. Cache-friendly for modest list
	// counts.
	AlgMerge

	// AlgPriorQueue traverses all lists document-at-a-time behind a
	// min-heap of list cursors.
	AlgPriorQueue
)

var invProcAlgNames = map[string]InvProcAlg{
	"scan":   AlgScan,
	"sort":   AlgStoreSort,
	"merge":  AlgMerge,
	"pqueue": AlgPriorQueue,
}

// String returns the parameter-level name of the algorithm.
func (a InvProcAlg) String() string {
	switch a {
	case AlgScan:
		return "scan"
	case AlgStoreSort:
		return "sort"
	case AlgMerge:
		return "merge"
	case AlgPriorQueue:
		return "pqueue"
	}
	return fmt.Sprintf("InvProcAlg(%d)", int(a))
}

// parseInvProcAlg maps a parameter value to an algorithm.
func parseInvProcAlg(name string) (InvProcAlg, error) {
	alg, ok := invProcAlgNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown inverted file processing algorithm %q (want scan, sort, merge, or pqueue)", name)
	}
	return alg, nil
}

// IndexParams is the immutable build-time configuration.
type IndexParams struct {
	NumPivot          int    // number of pivots P
	NumPrefix         int    // permutation prefix length L indexed per object
	IndexThreadQty    int    // build worker count T
	DisablePivotIndex bool   // force the direct-distance oracle
	HashTrickDim      int    // hashed dimension folding inside the oracle (0 = off)
	PivotFile         string // external pivot file ("" = sample from the dataset)
	SkipVal           int    // skip filter stride s
	PivotCombQty      int    // tuple size c in {1, 2, 3}
}

// QueryTimeParams is the mutable query-time configuration.
type QueryTimeParams struct {
	SkipChecking    bool       // omit the final distance filter
	Alg             InvProcAlg // posting-list processing algorithm
	MinTimes        int        // overlap threshold m before combinatorial scaling
	NumPrefixSearch int        // query-side prefix length L_q
}

// paramReader consumes a Params map with defaulting accessors and
// tracks which keys were touched so leftovers can be rejected.
type paramReader struct {
	params Params
	used   map[string]bool
}

func newParamReader(params Params) *paramReader {
	return &paramReader{
		params: params,
		used:   make(map[string]bool, len(params)),
	}
}

func (r *paramReader) has(name string) bool {
	_, ok := r.params[name]
	return ok
}

func (r *paramReader) getString(name, def string) string {
	r.used[name] = true
	if v, ok := r.params[name]; ok {
		return v
	}
	return def
}

func (r *paramReader) getInt(name string, def int) (int, error) {
	r.used[name] = true
	v, ok := r.params[name]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %q is not an integer", name, v)
	}
	return n, nil
}

func (r *paramReader) getBool(name string, def bool) (bool, error) {
	r.used[name] = true
	v, ok := r.params[name]
	if !ok {
		return def, nil
	}
	switch v {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("parameter %s: %q is not a boolean (want 0/1/true/false)", name, v)
}

// checkUnused rejects keys no accessor consumed.
func (r *paramReader) checkUnused() error {
	var unknown []string
	for k := range r.params {
		if !r.used[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("unknown parameters: %v", unknown)
}

// parseIndexParams validates and extracts the build-time configuration.
func parseIndexParams(params Params) (IndexParams, error) {
	r := newParamReader(params)
	var p IndexParams
	var err error

	if p.NumPivot, err = r.getInt(paramNumPivot, 512); err != nil {
		return p, err
	}

	if r.has(paramNumPivotIndex) && r.has(paramNumPrefix) {
		return p, fmt.Errorf("one shouldn't specify both parameters %s and %s, b/c they are synonyms", paramNumPrefix, paramNumPivotIndex)
	}
	if p.NumPrefix, err = r.getInt(paramNumPivotIndex, 32); err != nil {
		return p, err
	}
	if p.NumPrefix, err = r.getInt(paramNumPrefix, p.NumPrefix); err != nil {
		return p, err
	}

	if p.IndexThreadQty, err = r.getInt(paramIndexThreadQty, runtime.NumCPU()); err != nil {
		return p, err
	}
	if p.DisablePivotIndex, err = r.getBool(paramDisablePivotIndex, false); err != nil {
		return p, err
	}
	if p.HashTrickDim, err = r.getInt(paramHashTrickDim, 0); err != nil {
		return p, err
	}
	p.PivotFile = r.getString(paramPivotFile, "")
	if p.SkipVal, err = r.getInt(paramSkipVal, 1); err != nil {
		return p, err
	}
	if p.PivotCombQty, err = r.getInt(paramPivotCombQty, 2); err != nil {
		return p, err
	}

	if err := r.checkUnused(); err != nil {
		return p, err
	}

	if p.NumPivot <= 0 {
		return p, fmt.Errorf("numPivot must be positive, got %d", p.NumPivot)
	}
	if p.NumPrefix <= 0 || p.NumPrefix > p.NumPivot {
		return p, fmt.Errorf("numPrefix (%d) must be in [1, numPivot] (numPivot=%d)", p.NumPrefix, p.NumPivot)
	}
	if p.IndexThreadQty <= 0 {
		return p, fmt.Errorf("indexThreadQty must be positive, got %d", p.IndexThreadQty)
	}
	if p.SkipVal < 1 {
		return p, fmt.Errorf("skipVal must be >= 1, got %d", p.SkipVal)
	}
	if p.PivotCombQty < 1 || p.PivotCombQty > 3 {
		return p, fmt.Errorf("illegal number of pivots in the combinations %d, must be >0 and <=3", p.PivotCombQty)
	}
	if p.HashTrickDim < 0 {
		return p, fmt.Errorf("hashTrickDim must be nonnegative, got %d", p.HashTrickDim)
	}

	return p, nil
}

// defaultQueryTimeParams returns the query-time defaults for a build
// configuration: full build prefix, minTimes 2, store-sort processing.
func defaultQueryTimeParams(build IndexParams) QueryTimeParams {
	return QueryTimeParams{
		SkipChecking:    false,
		Alg:             AlgStoreSort,
		MinTimes:        2,
		NumPrefixSearch: build.NumPrefix,
	}
}

// parseQueryTimeParams validates and extracts the query-time
// configuration against a build configuration.
func parseQueryTimeParams(params Params, build IndexParams) (QueryTimeParams, error) {
	r := newParamReader(params)
	p := defaultQueryTimeParams(build)
	var err error

	if p.SkipChecking, err = r.getBool(paramSkipChecking, false); err != nil {
		return p, err
	}

	algName := r.getString(paramInvProcAlg, AlgStoreSort.String())
	if p.Alg, err = parseInvProcAlg(algName); err != nil {
		return p, err
	}

	if r.has(paramMinTimes) && r.has(paramNumPivotSearch) {
		return p, fmt.Errorf("one shouldn't specify both parameters %s and %s, b/c they are synonyms", paramMinTimes, paramNumPivotSearch)
	}
	if p.MinTimes, err = r.getInt(paramMinTimes, 2); err != nil {
		return p, err
	}
	if p.MinTimes, err = r.getInt(paramNumPivotSearch, p.MinTimes); err != nil {
		return p, err
	}

	if p.NumPrefixSearch, err = r.getInt(paramNumPrefixSearch, build.NumPrefix); err != nil {
		return p, err
	}

	if err := r.checkUnused(); err != nil {
		return p, err
	}

	if p.MinTimes < 0 {
		return p, fmt.Errorf("minTimes must be nonnegative, got %d", p.MinTimes)
	}
	if p.NumPrefixSearch <= 0 || p.NumPrefixSearch > build.NumPivot {
		return p, fmt.Errorf("numPrefixSearch (%d) must be in [1, numPivot] (numPivot=%d)", p.NumPrefixSearch, build.NumPivot)
	}

	return p, nil
}
