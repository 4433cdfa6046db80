// Package lexical scores passages against queries with smoothed TF-IDF
// weights and cosine similarity. An Index is immutable once built; rebuilds
// produce a fresh Index.
package lexical

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptyQuery indicates that no query term survived tokenization.
var ErrEmptyQuery = errors.New("lexical: no query terms survived tokenization")

// Config controls vocabulary construction.
type Config struct {
	// MinDocFreq drops terms appearing in fewer passages than this.
	// The default of 1 keeps every term.
	MinDocFreq int

	// MaxVocab caps the vocabulary size, keeping the terms most frequent
	// across the corpus. Zero means unlimited.
	MaxVocab int
}

// DefaultConfig returns the standard vocabulary settings.
func DefaultConfig() Config {
	return Config{
		MinDocFreq: 1,
		MaxVocab:   1000,
	}
}

// posting records one passage's normalized weight for a vocabulary term.
type posting struct {
	doc    int
	weight float64
}

// Index holds the vocabulary and one L2-normalized TF-IDF row per passage,
// stored column-major so queries only touch the terms they mention.
type Index struct {
	vocab    map[string]int
	idf      []float64
	postings [][]posting
	passages int
}

// Build constructs an index over texts, where texts[i] belongs to passage i.
// Stop words and terms below the document-frequency floor never enter the
// vocabulary.
func Build(texts []string, cfg Config) *Index {
	if cfg.MinDocFreq < 1 {
		cfg.MinDocFreq = 1
	}

	// Per-passage term counts plus corpus-wide document and total frequency.
	docCounts := make([]map[string]int, len(texts))
	df := make(map[string]int)
	total := make(map[string]int)
	for i, text := range texts {
		counts := make(map[string]int)
		for _, term := range Tokenize(text) {
			counts[term]++
		}
		docCounts[i] = counts
		for term, n := range counts {
			if englishStopSet[term] {
				continue
			}
			df[term]++
			total[term] += n
		}
	}

	selected := make([]string, 0, len(df))
	for term, n := range df {
		if n >= cfg.MinDocFreq {
			selected = append(selected, term)
		}
	}

	// Cap by total corpus frequency, breaking ties alphabetically so the cut
	// is deterministic.
	if cfg.MaxVocab > 0 && len(selected) > cfg.MaxVocab {
		sort.Slice(selected, func(i, j int) bool {
			if total[selected[i]] != total[selected[j]] {
				return total[selected[i]] > total[selected[j]]
			}
			return selected[i] < selected[j]
		})
		selected = selected[:cfg.MaxVocab]
	}
	sort.Strings(selected)

	vocab := make(map[string]int, len(selected))
	for col, term := range selected {
		vocab[term] = col
	}

	// Smoothed inverse document frequency: ln((1+N)/(1+df)) + 1. The +1
	// terms keep weights strictly positive even for terms in every passage.
	n := float64(len(texts))
	idf := make([]float64, len(selected))
	for col, term := range selected {
		idf[col] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	postings := make([][]posting, len(selected))
	for doc, counts := range docCounts {
		row := make(map[int]float64, len(counts))
		var sumSq float64
		for term, tf := range counts {
			col, ok := vocab[term]
			if !ok {
				continue
			}
			w := float64(tf) * idf[col]
			row[col] = w
			sumSq += w * w
		}
		if sumSq == 0 {
			continue
		}
		norm := math.Sqrt(sumSq)
		for col, w := range row {
			postings[col] = append(postings[col], posting{doc: doc, weight: w / norm})
		}
	}
	for col := range postings {
		list := postings[col]
		sort.Slice(list, func(i, j int) bool { return list[i].doc < list[j].doc })
	}

	return &Index{
		vocab:    vocab,
		idf:      idf,
		postings: postings,
		passages: len(texts),
	}
}

// Score returns the cosine similarity in [0, 1] between the query and every
// passage sharing at least one vocabulary term with it. Passages with no
// overlap are absent from the result. Query terms unseen at build time
// contribute nothing; a query made up entirely of such terms yields an empty
// map, not an error.
func (ix *Index) Score(query string) (map[int]float64, error) {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil, ErrEmptyQuery
	}

	counts := make(map[string]int, len(terms))
	for _, term := range terms {
		counts[term]++
	}

	weights := make(map[int]float64, len(counts))
	var sumSq float64
	for term, tf := range counts {
		col, ok := ix.vocab[term]
		if !ok {
			continue
		}
		w := float64(tf) * ix.idf[col]
		weights[col] = w
		sumSq += w * w
	}

	scores := make(map[int]float64)
	if len(weights) == 0 {
		return scores, nil
	}

	norm := math.Sqrt(sumSq)
	for col, w := range weights {
		qw := w / norm
		for _, p := range ix.postings[col] {
			scores[p.doc] += qw * p.weight
		}
	}

	// Both vectors are unit length, so clamp float drift past 1.
	for doc, s := range scores {
		if s > 1 {
			scores[doc] = 1
		}
	}
	return scores, nil
}

// Len returns the number of passages the index covers.
func (ix *Index) Len() int {
	return ix.passages
}

// VocabSize returns the number of terms in the vocabulary.
func (ix *Index) VocabSize() int {
	return len(ix.vocab)
}
