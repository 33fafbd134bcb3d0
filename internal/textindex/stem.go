package textindex

import "strings"

// minStemLength is the shortest word the stemmer will touch.
const minStemLength = 3

// stemRule replaces suffix with repl when the word is at least minLen long.
// A non-zero notAfter rejects words where that byte precedes the suffix.
type stemRule struct {
	suffix   string
	repl     string
	minLen   int
	notAfter byte
}

// Inflectional rules run first; at most one fires.
var inflectionalRules = []stemRule{
	{suffix: "ies", repl: "i", minLen: 4},
	{suffix: "sses", repl: "ss", minLen: 5},
	{suffix: "s", repl: "", minLen: 4, notAfter: 's'},
	{suffix: "eed", repl: "ee", minLen: 5},
	{suffix: "ed", repl: "", minLen: 5},
	{suffix: "ing", repl: "", minLen: 6},
}

// Derivational rules run on the inflection-stripped word; at most one fires.
var derivationalRules = []stemRule{
	{suffix: "ational", repl: "ate", minLen: 9},
	{suffix: "tion", repl: "t", minLen: 6},
	{suffix: "ness", repl: "", minLen: 7},
	{suffix: "ment", repl: "", minLen: 7},
	{suffix: "able", repl: "", minLen: 7},
	{suffix: "ible", repl: "", minLen: 7},
	{suffix: "ful", repl: "", minLen: 6},
	{suffix: "ous", repl: "", minLen: 6},
	{suffix: "ive", repl: "", minLen: 6},
	{suffix: "ize", repl: "", minLen: 6},
	{suffix: "ise", repl: "", minLen: 6},
	{suffix: "ally", repl: "", minLen: 7},
	{suffix: "ly", repl: "", minLen: 5},
	{suffix: "er", repl: "", minLen: 5},
}

// Stem reduces a lowercase word to an approximate root. It is not a Porter
// stemmer: "policies" becomes "polici" and "deployments" becomes "deploy".
func Stem(word string) string {
	if len(word) < minStemLength {
		return word
	}
	w, a := applyFirst(word, inflectionalRules)
	w, b := applyFirst(w, derivationalRules)
	if a || b {
		w = undouble(w)
	}
	return w
}

func applyFirst(word string, rules []stemRule) (string, bool) {
	for _, r := range rules {
		if len(word) < r.minLen || !strings.HasSuffix(word, r.suffix) {
			continue
		}
		base := word[:len(word)-len(r.suffix)]
		if r.notAfter != 0 && (base == "" || base[len(base)-1] == r.notAfter) {
			continue
		}
		return base + r.repl, true
	}
	return word, false
}

// undouble drops the last letter of a trailing doubled consonant ("runn").
func undouble(w string) string {
	n := len(w)
	if n < 2 || w[n-1] != w[n-2] {
		return w
	}
	c := w[n-1]
	if c < 'a' || c > 'z' || strings.IndexByte("aeiou", c) >= 0 {
		return w
	}
	return w[:n-1]
}
