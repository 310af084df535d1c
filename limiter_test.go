package napp

import "testing"

// TestSanitizeK tests k clamping.
func TestSanitizeK(t *testing.T) {
	tests := []struct {
		name       string
		k          int
		maxResults int
		want       int
	}{
		{"within bounds", 5, 10, 5},
		{"zero k", 0, 10, 10},
		{"negative k", -3, 10, 10},
		{"k above max", 15, 10, 10},
		{"exact max", 10, 10, 10},
		{"empty results", 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeK(tt.k, tt.maxResults); got != tt.want {
				t.Errorf("sanitizeK(%d, %d) = %d, want %d", tt.k, tt.maxResults, got, tt.want)
			}
		})
	}
}

// TestLimitResults tests the slicing wrapper.
func TestLimitResults(t *testing.T) {
	results := []SearchResult{
		{Distance: 0.1}, {Distance: 0.2}, {Distance: 0.3},
	}

	if got := limitResults(results, 2); len(got) != 2 {
		t.Errorf("limitResults(_, 2) kept %d results", len(got))
	}
	if got := limitResults(results, 0); len(got) != 3 {
		t.Errorf("limitResults(_, 0) kept %d results, want all", len(got))
	}
	if got := limitResults(nil, 5); len(got) != 0 {
		t.Errorf("limitResults(nil, 5) kept %d results", len(got))
	}
}
