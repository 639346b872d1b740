// Package tokenizer provides text tokenisation for the boolean index.
// A word is a maximal run of word characters: Unicode letters, Unicode
// numbers (including superscripts and roman numerals) and underscore.
// Combining marks are separators, so a decomposed accent splits a word.
// Case is preserved and no stemming is applied.
package tokenizer

import (
	"strings"
	"unicode"
)

// Token represents a single term and its ordinal position in the original
// text.
type Token struct {
	Term     string
	Position int
}

// IsWordRune reports whether r belongs to a word.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Tokenize breaks text into Tokens in order of appearance.
func Tokenize(text string) []Token {
	words := Words(text)
	tokens := make([]Token, len(words))
	for i, word := range words {
		tokens[i] = Token{
			Term:     word,
			Position: i,
		}
	}
	return tokens
}

// Words returns the bare terms of text.
func Words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !IsWordRune(r)
	})
}
