// Package highlight produces display copies of passage text with query
// terms wrapped in markers. It is a pure string transform; scoring never
// sees its output.
package highlight

import (
	"regexp"
	"sort"
	"strings"

	"github.com/docsift/docsift/internal/lexical"
)

const (
	// DefaultOpen and DefaultClose are the plain wrapping tags.
	DefaultOpen  = "<mark>"
	DefaultClose = "</mark>"

	// StyledOpen is the inline-styled tag served to browser clients.
	StyledOpen = `<mark style="background-color: yellow; padding: 2px;">`
)

// span is a half-open [start, end) byte range of matched text.
type span struct {
	start, end int
}

// Annotate wraps every case-insensitive occurrence of each query term in
// text with the default markers. Terms below the lexical length floor never
// influenced scoring, so they are never highlighted either.
func Annotate(text, query string) string {
	return AnnotateWith(text, query, DefaultOpen, DefaultClose)
}

// AnnotateWith is Annotate with caller-chosen markers. Matched spans keep
// their original casing. Overlapping matches are resolved so markers never
// nest or double-wrap: at the same start the longer span wins ("database"
// beats "data"), and a span inside or crossing an already-kept span is
// dropped. Text with no matches is returned unchanged.
func AnnotateWith(text, query, openTag, closeTag string) string {
	if text == "" {
		return text
	}

	terms := lexical.Tokenize(query)
	if len(terms) == 0 {
		return text
	}

	spans := matchSpans(text, terms)
	if len(spans) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + len(spans)*(len(openTag)+len(closeTag)))
	prev := 0
	for _, s := range spans {
		b.WriteString(text[prev:s.start])
		b.WriteString(openTag)
		b.WriteString(text[s.start:s.end])
		b.WriteString(closeTag)
		prev = s.end
	}
	b.WriteString(text[prev:])
	return b.String()
}

// matchSpans finds all case-insensitive term occurrences and resolves
// overlaps. The result is sorted by position and pairwise disjoint.
func matchSpans(text string, terms []string) []span {
	var all []span
	seen := make(map[string]bool, len(terms))
	for _, term := range terms {
		if seen[term] {
			continue
		}
		seen[term] = true

		// QuoteMeta makes the pattern literal; (?i) folds case across
		// Unicode, not just ASCII.
		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
		for _, m := range pattern.FindAllStringIndex(text, -1) {
			all = append(all, span{start: m[0], end: m[1]})
		}
	}
	if len(all) == 0 {
		return nil
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end > all[j].end
	})

	kept := make([]span, 0, len(all))
	for _, s := range all {
		if len(kept) > 0 && s.start < kept[len(kept)-1].end {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
