// Package corpus holds the immutable passage collection served by a search
// generation. Passages are addressed by their load position.
package corpus

import (
	"errors"
	"fmt"
)

// ErrEmptyCorpus indicates a load was attempted with zero passages.
var ErrEmptyCorpus = errors.New("corpus: no passages to load")

// ErrOutOfRange indicates a passage ID outside the stored range.
type ErrOutOfRange struct {
	ID    int
	Count int
}

func (e ErrOutOfRange) Error() string {
	return fmt.Sprintf("corpus: passage id %d out of range (corpus holds %d passages)", e.ID, e.Count)
}

// Passage is one retrievable unit of text together with its provenance.
type Passage struct {
	ID       int    // Position in the corpus, assigned at load
	Source   string // Human-readable origin, e.g. "GDPR Handbook"
	Location string // Position within the source, e.g. "page 12"
	Text     string // The passage body
	Link     string // Optional deep link into the source
}

// Store is an immutable, position-addressed passage collection. A Store is
// never modified after Load; rebuilds produce a fresh Store.
type Store struct {
	passages []Passage
}

// Load builds a Store from passages, assigning each passage its position as
// ID. The input slice is copied, so callers may reuse it afterwards.
func Load(passages []Passage) (*Store, error) {
	if len(passages) == 0 {
		return nil, ErrEmptyCorpus
	}
	owned := make([]Passage, len(passages))
	copy(owned, passages)
	for i := range owned {
		owned[i].ID = i
	}
	return &Store{passages: owned}, nil
}

// Get returns the passage stored at id.
func (s *Store) Get(id int) (Passage, error) {
	if id < 0 || id >= len(s.passages) {
		return Passage{}, ErrOutOfRange{ID: id, Count: len(s.passages)}
	}
	return s.passages[id], nil
}

// Len returns the number of passages in the store.
func (s *Store) Len() int {
	return len(s.passages)
}

// Texts returns the passage bodies in corpus order. Index builders consume
// this so that row i always describes passage i.
func (s *Store) Texts() []string {
	texts := make([]string, len(s.passages))
	for i, p := range s.passages {
		texts[i] = p.Text
	}
	return texts
}
