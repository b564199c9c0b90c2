// Package rephrase reorders a generated sentence into the inverted cadence
// used by the mentor character. It is a cosmetic filter applied after
// generation and has no knowledge of grammar.
package rephrase

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	terminators = ".?!"

	shortSuffix = ", yes."
	longSuffix  = ", hmmm."

	// minWords is the smallest clause that gets reordered.
	minWords = 4
)

// Rephrase moves everything after the first two words of the first clause to
// the front: "The force is strong" becomes "Is strong, the force, hmmm.".
// Clauses shorter than four words are echoed back with ", yes." appended.
// Only the text before the first '.', '?' or '!' is reordered; the rest is
// dropped. Rephrase never fails.
func Rephrase(sentence string) string {
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return ""
	}

	clause := sentence
	if idx := strings.IndexAny(sentence, terminators); idx >= 0 {
		clause = sentence[:idx]
	}

	words := strings.Fields(clause)
	if len(words) < minWords {
		return sentence + shortSuffix
	}

	// subject and verb are purely positional.
	subject, verb, rest := words[0], words[1], words[2:]

	reordered := strings.Join(rest, " ") + ", " + subject + " " + verb
	return capitalize(reordered) + longSuffix
}

// capitalize upper-cases the first rune and lower-cases the remainder.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return strings.ToLower(s)
	}
	return string(unicode.ToTitle(r)) + strings.ToLower(s[size:])
}
