package napp

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/unicode/norm"
)

// Space provides the distance function and the dataset/pivot loading
// capability consumed by the index. Implementations must be safe for
// concurrent Distance calls: the build pipeline computes pivot
// distances from multiple goroutines.
type Space interface {
	// Distance computes the dissimilarity between two objects.
	// Lower values mean more similar. The function does not have to be
	// metric: symmetry and the triangle inequality are not assumed
	// anywhere in the index.
	Distance(a, b *Object) float32

	// ReadDataset loads objects from a file, assigning sequential IDs
	// starting at 0. When expectedQty > 0 at most that many objects are
	// read. The second return value carries external string identifiers
	// when the on-disk format provides them, or nil otherwise.
	ReadDataset(path string, expectedQty int) ([]*Object, []string, error)
}

// Compile-time checks that both bundled spaces implement Space.
var (
	_ Space = (*VectorSpace)(nil)
	_ Space = (*TextSpace)(nil)
)

// VectorSpace is a Space over dense float32 vectors using one of the
// bundled distance kernels.
type VectorSpace struct {
	distanceKind DistanceKind
	distance     Distance
}

// NewVectorSpace creates a vector space with the given distance metric.
// Returns ErrUnknownDistanceKind for unrecognized kinds.
func NewVectorSpace(kind DistanceKind) (*VectorSpace, error) {
	distance, err := NewDistance(kind)
	if err != nil {
		return nil, err
	}
	return &VectorSpace{
		distanceKind: kind,
		distance:     distance,
	}, nil
}

// DistanceKind returns the metric this space was created with.
func (s *VectorSpace) DistanceKind() DistanceKind {
	return s.distanceKind
}

// Distance computes the configured vector distance between two objects.
func (s *VectorSpace) Distance(a, b *Object) float32 {
	return s.distance.Calculate(a.Vector(), b.Vector())
}

// ReadDataset reads one vector per line, components separated by
// whitespace. Blank lines are skipped. All vectors must share the same
// dimensionality.
func (s *VectorSpace) ReadDataset(path string, expectedQty int) ([]*Object, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open dataset %q: %w", path, err)
	}
	defer f.Close()

	var objects []*Object
	dim := -1

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		vec := make([]float32, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, nil, fmt.Errorf("dataset %q line %d: bad component %q: %w", path, lineNum, field, err)
			}
			vec[i] = float32(v)
		}
		if dim < 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return nil, nil, fmt.Errorf("dataset %q line %d: dimension mismatch: expected %d, got %d", path, lineNum, dim, len(vec))
		}
		objects = append(objects, NewVectorObject(uint32(len(objects)), vec))
		if expectedQty > 0 && len(objects) >= expectedQty {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("cannot read dataset %q: %w", path, err)
	}

	return objects, nil, nil
}

// TextSpace is a Space over text payloads using Jaccard distance on
// normalized token sets:
//
//	d(A, B) = 1 - |A ∩ B| / |A ∪ B|
//
// Tokens are produced by NFKC normalization, lowercasing, and UAX#29
// word segmentation. Jaccard over sets is symmetric but not metric in
// general, which makes this a handy exercise of the index's
// no-triangle-inequality contract.
type TextSpace struct{}

// NewTextSpace creates a text space.
func NewTextSpace() *TextSpace {
	return &TextSpace{}
}

// Distance computes the Jaccard distance between the token sets of two
// text objects. Two empty token sets are considered identical.
func (s *TextSpace) Distance(a, b *Object) float32 {
	ta, tb := a.Tokens(), b.Tokens()
	if len(ta) == 0 && len(tb) == 0 {
		return 0
	}

	// Both token sets are sorted and deduplicated at construction, so
	// the intersection is a linear merge.
	var inter, i, j int
	for i < len(ta) && j < len(tb) {
		switch {
		case ta[i] == tb[j]:
			inter++
			i++
			j++
		case ta[i] < tb[j]:
			i++
		default:
			j++
		}
	}

	union := len(ta) + len(tb) - inter
	return 1 - float32(inter)/float32(union)
}

// ReadDataset reads one document per line. Blank lines are skipped.
func (s *TextSpace) ReadDataset(path string, expectedQty int) ([]*Object, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open dataset %q: %w", path, err)
	}
	defer f.Close()

	var objects []*Object

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		objects = append(objects, NewTextObject(uint32(len(objects)), line))
		if expectedQty > 0 && len(objects) >= expectedQty {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("cannot read dataset %q: %w", path, err)
	}

	return objects, nil, nil
}

// normalize applies Unicode normalization (NFKC) and converts to lowercase.
func normalize(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// tokenize splits text into tokens using UAX#29 word segmentation.
func tokenize(s string) []string {
	toks := words.FromString(s)
	var tokens []string
	for toks.Next() {
		tokens = append(tokens, toks.Value())
	}
	return tokens
}

// tokenSet normalizes and tokenizes text into a sorted, deduplicated
// token set, dropping whitespace-only tokens.
func tokenSet(text string) []string {
	raw := tokenize(normalize(text))
	if len(raw) == 0 {
		return nil
	}
	sort.Strings(raw)
	out := raw[:0]
	var prev string
	for _, t := range raw {
		if strings.TrimSpace(t) == "" {
			continue
		}
		if len(out) > 0 && t == prev {
			continue
		}
		out = append(out, t)
		prev = t
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
