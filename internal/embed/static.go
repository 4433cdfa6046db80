package embed

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
	"unicode"
)

// StaticEmbedder generates embeddings by hashing terms and character n-grams
// into a fixed-width vector. It needs no network and no model download, and
// the same text always maps to the same vector, which makes it the default
// for tests and offline use. Semantic quality is accordingly modest.
type StaticEmbedder struct{}

// Feature weights: whole terms carry most of the signal, character n-grams
// add tolerance for inflections and typos.
const (
	termWeight  = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

// termPattern matches runs of ASCII letters and digits.
var termPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

// NewStaticEmbedder creates a new static embedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

// Embed generates an embedding for a single text.
func (e *StaticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, StaticDimensions), nil
	}

	vector := make([]float32, StaticDimensions)

	for _, term := range termPattern.FindAllString(strings.ToLower(trimmed), -1) {
		vector[hashToIndex(term, StaticDimensions)] += termWeight
	}

	flattened := flattenForNgrams(trimmed)
	for i := 0; i+ngramSize <= len(flattened); i++ {
		vector[hashToIndex(flattened[i:i+ngramSize], StaticDimensions)] += ngramWeight
	}

	return normalizeVector(vector), nil
}

// EmbedBatch generates embeddings for multiple texts, preserving order.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}
	return results, nil
}

// Dimensions returns the embedding dimension.
func (e *StaticEmbedder) Dimensions() int {
	return StaticDimensions
}

// ModelName returns the model identifier.
func (e *StaticEmbedder) ModelName() string {
	return "static"
}

// Close releases resources. The static embedder holds none.
func (e *StaticEmbedder) Close() error {
	return nil
}

// flattenForNgrams lowercases text and strips everything that is not a
// letter or digit, so n-grams never straddle word boundaries invisibly.
func flattenForNgrams(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// hashToIndex uses FNV-64 to map a string to a vector slot.
func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

// Verify interface implementation
var _ Embedder = (*StaticEmbedder)(nil)
