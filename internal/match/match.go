// Package match implements the token-based approximate string matching used
// for duplicate detection and review auto-fill. It tolerates word order
// changes, abbreviations and missing stop-words; it is not an edit-distance
// metric.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// similarityThreshold is the fraction of smaller-set tokens that must match
// for two strings to be considered the same bill title/beneficiary.
const similarityThreshold = 0.8

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var punctReplacer = strings.NewReplacer(
	".", " ", ",", " ", "/", " ", "#", " ", "!", " ", "$", " ", "%", " ",
	"^", " ", "&", " ", "*", " ", ";", " ", ":", " ", "{", " ", "}", " ",
	"=", " ", "-", " ", "_", " ", "`", " ", "~", " ", "(", " ", ")", " ",
)

// normalizeForTokenization lowercases, strips diacritics, replaces
// punctuation with spaces and collapses whitespace, keeping word breaks.
func normalizeForTokenization(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if out, _, err := transform.String(stripDiacritics, s); err == nil {
		s = out
	}
	s = punctReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Normalize returns the spaceless normalized form, used for plain substring
// searches.
func Normalize(s string) string {
	return strings.ReplaceAll(normalizeForTokenization(s), " ", "")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(normalizeForTokenization(s)) {
		set[tok] = struct{}{}
	}
	return set
}

// IsFuzzyMatch reports whether two strings refer to the same thing.
//
// Both strings are normalized and tokenized into sets of unique words. Each
// token of the smaller set matches if it is a substring or superstring of
// any token in the larger set (so "equip" matches "equipamentos"). The
// result is true when at least 80% of the smaller set's tokens match.
// Blank input on either side never matches.
func IsFuzzyMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return false
	}

	smaller, larger := tokensA, tokensB
	if len(tokensB) < len(tokensA) {
		smaller, larger = tokensB, tokensA
	}

	matches := 0
	for t1 := range smaller {
		for t2 := range larger {
			if strings.Contains(t1, t2) || strings.Contains(t2, t1) {
				matches++
				break
			}
		}
	}

	similarity := float64(matches) / float64(len(smaller))
	return similarity >= similarityThreshold
}
