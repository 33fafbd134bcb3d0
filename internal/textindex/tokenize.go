// Package textindex implements the full-text side of memory retrieval: an
// English tokenizer with a light suffix-stripping stemmer, and an incrementally
// maintained inverted index scored with field-weighted BM25.
package textindex

import (
	"strings"
	"unicode"
)

// Token pairs a surface form with its stem.
type Token struct {
	Surface string `json:"surface"`
	Stem    string `json:"stem"`
}

// Tokenize lowercases text, splits it on non-alphanumeric runs, drops
// one-character tokens and stop words, and stems what is left.
func Tokenize(text string) []string {
	words := splitWords(text)
	if len(words) == 0 {
		return nil
	}
	stems := make([]string, 0, len(words))
	for _, w := range words {
		stems = append(stems, Stem(w))
	}
	return stems
}

// TokenizeWithForms is Tokenize that keeps the original surface form of each
// token alongside its stem.
func TokenizeWithForms(text string) []Token {
	words := splitWords(text)
	if len(words) == 0 {
		return nil
	}
	toks := make([]Token, 0, len(words))
	for _, w := range words {
		toks = append(toks, Token{Surface: w, Stem: Stem(w)})
	}
	return toks
}

func splitWords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) <= 1 || stopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

var stopWords = func() map[string]bool {
	words := strings.Fields(`
		a about above after again against all am an and any are aren as at
		be because been before being below between both but by
		can cannot could couldn did didn do does doesn doing don down during
		each few for from further had hadn has hasn have haven having he her here
		hers herself him himself his how if in into is isn it its itself just
		let me more most mustn my myself no nor not now of off on once only or
		other ought our ours ourselves out over own same shan she should shouldn
		so some such than that the their theirs them themselves then there these
		they this those through to too under until up very was wasn we were weren
		what when where which while who whom why will with won would wouldn
		you your yours yourself yourselves also however may might must shall
		via yet etc us ll ve re
	`)
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()
