package lexical

import (
	"fmt"
	"regexp"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/length"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	regexptok "github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"
)

// MinTokenRunes is the shortest token the analyzer keeps. Shorter tokens
// ("to", "an", "a") carry no ranking signal.
const MinTokenRunes = 3

// wordPattern matches runs of ASCII letters and digits; everything else is a
// separator.
var wordPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

// Analyzer produces the token stream shared by the vocabulary builder, the
// query scorer, and the highlighter: lowercased terms split on
// non-alphanumeric boundaries, minus tokens shorter than MinTokenRunes.
type Analyzer struct {
	tokenizer analysis.Tokenizer
	filters   []analysis.TokenFilter
}

// NewAnalyzer assembles the analysis chain from bleve components.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		tokenizer: regexptok.NewRegexpTokenizer(wordPattern),
		filters: []analysis.TokenFilter{
			lowercase.NewLowerCaseFilter(),
			length.NewLengthFilter(MinTokenRunes, 0),
		},
	}
}

// Tokens runs text through the chain and returns the surviving terms in
// order. Stop words are not removed here; they are only excluded from the
// vocabulary when an index is built.
func (a *Analyzer) Tokens(text string) []string {
	stream := a.tokenizer.Tokenize([]byte(text))
	for _, f := range a.filters {
		stream = f.Filter(stream)
	}
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		terms = append(terms, string(tok.Term))
	}
	return terms
}

// defaultAnalyzer backs the package-level Tokenize. The chain is stateless,
// so one shared instance is safe for concurrent use.
var defaultAnalyzer = NewAnalyzer()

// Tokenize applies the default analysis chain to text.
func Tokenize(text string) []string {
	return defaultAnalyzer.Tokens(text)
}

// englishStopSet is bleve's English stop word list. It is consulted only
// while building the vocabulary; query tokens are never stop-filtered, they
// simply score zero when absent from the vocabulary.
var englishStopSet = mustEnglishStopSet()

func mustEnglishStopSet() analysis.TokenMap {
	tm, err := en.TokenMapConstructor(nil, nil)
	if err != nil {
		panic(fmt.Sprintf("lexical: load english stop words: %v", err))
	}
	return tm
}
