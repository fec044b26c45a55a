package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// stopwords are directional, descriptive and landmark words that carry no
// locality information in Indian postal addresses
var stopwords = map[string]bool{
	"near":     true,
	"opp":      true,
	"opposite": true,
	"beside":   true,
	"behind":   true,
	"road":     true,
	"rd":       true,
	"street":   true,
	"st":       true,
	"lane":     true,
	"ln":       true,
	"primary":  true,
	"school":   true,
	"temple":   true,
	"masjid":   true,
	"park":     true,
	"hospital": true,
}

// IsStopword reports whether a normalized word is dropped by Normalize
func IsStopword(word string) bool {
	return stopwords[word]
}

// Normalize lowercases the address, replaces punctuation with spaces and
// removes stopwords. The result is a single-space separated string.
func Normalize(text string) string {
	return strings.Join(words(text), " ")
}

// words returns the normalized, stopword-free words of text in order
func words(text string) []string {
	s := strings.ToLower(norm.NFKC.String(text))

	// Remove punctuation but preserve spaces
	b := strings.Builder{}
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.In(r, unicode.Mn, unicode.Mc) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	out := fields[:0]
	for _, f := range fields {
		if stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// IsNumeric reports whether token consists only of digits (house and plot numbers)
func IsNumeric(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ExtractTokens builds the fuzzy-search query set for an address: every
// unigram plus adjacent bigrams and trigrams, each n-gram in a space-joined
// and a concatenated form. Numeric words are dropped before n-grams are built,
// so "462/236 ramganj" never yields "236 ramganj".
//
// Tokens are unique and returned in emission order (unigrams, bigrams,
// trigrams) so callers iterate deterministically.
func ExtractTokens(address string) []string {
	var parts []string
	for _, w := range words(address) {
		if IsNumeric(w) {
			continue
		}
		parts = append(parts, w)
	}

	set := newTokenSet(len(parts) * 5)
	for _, p := range parts {
		set.add(p)
	}
	for i := 0; i+1 < len(parts); i++ {
		set.add(parts[i] + " " + parts[i+1])
		set.add(parts[i] + parts[i+1])
	}
	for i := 0; i+2 < len(parts); i++ {
		set.add(parts[i] + " " + parts[i+1] + " " + parts[i+2])
		set.add(parts[i] + parts[i+1] + parts[i+2])
	}
	return set.tokens
}

type tokenSet struct {
	seen   map[string]bool
	tokens []string
}

func newTokenSet(capacity int) *tokenSet {
	return &tokenSet{
		seen:   make(map[string]bool, capacity),
		tokens: make([]string, 0, capacity),
	}
}

// add skips concatenated forms that spell a stopword ("r d" -> "rd")
func (ts *tokenSet) add(token string) {
	if ts.seen[token] || stopwords[token] {
		return
	}
	ts.seen[token] = true
	ts.tokens = append(ts.tokens, token)
}
