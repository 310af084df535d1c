package napp

import (
	"strings"
	"testing"
)

// TestParseIndexParams tests defaults, aliasing, validation and
// unknown-key rejection for the build-time configuration.
func TestParseIndexParams(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p, err := parseIndexParams(Params{})
		if err != nil {
			t.Fatalf("parseIndexParams() error: %v", err)
		}
		if p.NumPivot != 512 || p.NumPrefix != 32 || p.SkipVal != 1 || p.PivotCombQty != 2 {
			t.Errorf("unexpected defaults: %+v", p)
		}
		if p.IndexThreadQty < 1 {
			t.Errorf("indexThreadQty default %d < 1", p.IndexThreadQty)
		}
	})

	t.Run("numPivotIndex is an alias of numPrefix", func(t *testing.T) {
		p, err := parseIndexParams(Params{"numPivotIndex": "8", "numPivot": "16"})
		if err != nil {
			t.Fatalf("parseIndexParams() error: %v", err)
		}
		if p.NumPrefix != 8 {
			t.Errorf("NumPrefix = %d, want 8", p.NumPrefix)
		}
	})

	errTests := []struct {
		name    string
		params  Params
		errPart string
	}{
		{"both prefix aliases", Params{"numPrefix": "4", "numPivotIndex": "4"}, "synonyms"},
		{"unknown key", Params{"numPivots": "8"}, "unknown parameters"},
		{"prefix above pivots", Params{"numPivot": "8", "numPrefix": "9"}, "numPrefix"},
		{"zero pivots", Params{"numPivot": "0"}, "numPivot"},
		{"bad comb qty", Params{"numPivot": "8", "numPrefix": "4", "pivotCombQty": "4"}, "combinations"},
		{"zero comb qty", Params{"numPivot": "8", "numPrefix": "4", "pivotCombQty": "0"}, "combinations"},
		{"zero skip", Params{"numPivot": "8", "numPrefix": "4", "skipVal": "0"}, "skipVal"},
		{"non-integer", Params{"numPivot": "eight"}, "not an integer"},
		{"bad bool", Params{"disablePivotIndex": "maybe"}, "not a boolean"},
		{"negative hash trick", Params{"hashTrickDim": "-1"}, "hashTrickDim"},
	}

	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseIndexParams(tt.params)
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error %q does not mention %q", err, tt.errPart)
			}
		})
	}
}

// TestParseQueryTimeParams tests defaults, aliasing and validation for
// the query-time configuration.
func TestParseQueryTimeParams(t *testing.T) {
	build := IndexParams{NumPivot: 16, NumPrefix: 8, SkipVal: 1, PivotCombQty: 2, IndexThreadQty: 1}

	t.Run("defaults", func(t *testing.T) {
		p, err := parseQueryTimeParams(Params{}, build)
		if err != nil {
			t.Fatalf("parseQueryTimeParams() error: %v", err)
		}
		if p.Alg != AlgStoreSort || p.MinTimes != 2 || p.NumPrefixSearch != build.NumPrefix || p.SkipChecking {
			t.Errorf("unexpected defaults: %+v", p)
		}
	})

	t.Run("numPivotSearch is an alias of minTimes", func(t *testing.T) {
		p, err := parseQueryTimeParams(Params{"numPivotSearch": "5"}, build)
		if err != nil {
			t.Fatalf("parseQueryTimeParams() error: %v", err)
		}
		if p.MinTimes != 5 {
			t.Errorf("MinTimes = %d, want 5", p.MinTimes)
		}
	})

	t.Run("all algorithms parse", func(t *testing.T) {
		for name, want := range map[string]InvProcAlg{
			"scan": AlgScan, "sort": AlgStoreSort, "merge": AlgMerge, "pqueue": AlgPriorQueue,
		} {
			p, err := parseQueryTimeParams(Params{"invProcAlg": name}, build)
			if err != nil {
				t.Fatalf("invProcAlg=%s: %v", name, err)
			}
			if p.Alg != want {
				t.Errorf("invProcAlg=%s parsed as %v", name, p.Alg)
			}
			if p.Alg.String() != name {
				t.Errorf("%v.String() = %q, want %q", p.Alg, p.Alg.String(), name)
			}
		}
	})

	errTests := []struct {
		name   string
		params Params
	}{
		{"both minTimes aliases", Params{"minTimes": "2", "numPivotSearch": "2"}},
		{"unknown algorithm", Params{"invProcAlg": "bitmap"}},
		{"unknown key", Params{"minimumTimes": "2"}},
		{"prefix search above pivots", Params{"numPrefixSearch": "17"}},
		{"zero prefix search", Params{"numPrefixSearch": "0"}},
		{"negative minTimes", Params{"minTimes": "-1"}},
	}

	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseQueryTimeParams(tt.params, build); err == nil {
				t.Error("expected error but got none")
			}
		})
	}
}

// TestScaledThreshold tests the combinatorial threshold scaling,
// including the documented c=2, L=20, m=2 -> 19 case.
func TestScaledThreshold(t *testing.T) {
	tests := []struct {
		name     string
		minTimes int
		combQty  int
		prefix   int
		want     int
	}{
		{"singles pass through", 3, 1, 32, 3},
		{"pairs", 2, 2, 20, 19},
		{"pairs integer division", 3, 2, 8, 10}, // 3*7/2 = 10
		{"triples", 2, 3, 8, 14},                // 2*7*6/6 = 14
		{"zero min times", 0, 2, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := IndexParams{NumPrefix: tt.prefix, PivotCombQty: tt.combQty}
			if got := scaledThreshold(tt.minTimes, p); got != tt.want {
				t.Errorf("scaledThreshold(%d, c=%d, L=%d) = %d, want %d",
					tt.minTimes, tt.combQty, tt.prefix, got, tt.want)
			}
		})
	}
}
