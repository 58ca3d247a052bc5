// Package textclean turns raw review text into the token stream the
// term weighter consumes.
package textclean

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type Normalizer struct {
	stopWords   map[string]struct{}
	minTokenLen int
}

// New builds a Normalizer. A nil stopWords set means the English list.
func New(minTokenLen int, stopWords map[string]struct{}) *Normalizer {
	if stopWords == nil {
		stopWords = EnglishStopWords()
	}
	return &Normalizer{stopWords: stopWords, minTokenLen: minTokenLen}
}

// Normalize lowercases v, keeps only a-z and whitespace, and drops stop
// words and tokens shorter than the minimum length. Anything that is not
// text yields "". Digits are removed too, so "error 500" becomes "error".
func (n *Normalizer) Normalize(v any) string {
	var text string
	switch t := v.(type) {
	case string:
		text = t
	case *string:
		if t == nil {
			return ""
		}
		text = *t
	case []byte:
		text = string(t)
	default:
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	tokens := strings.Fields(b.String())
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, stop := n.stopWords[tok]; stop {
			continue
		}
		if utf8.RuneCountInString(tok) < n.minTokenLen {
			continue
		}
		kept = append(kept, tok)
	}

	return strings.Join(kept, " ")
}
