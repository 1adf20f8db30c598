// ABOUTME: Rune-level tokenizer shared by formula validation, translation, and rendering.
// ABOUTME: Splits source into word, number, operator, space, and other tokens with byte offsets.
package formula

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind classifies a lexed token.
type TokenKind int

const (
	// TokenWord is an identifier-shaped run: a letter or underscore
	// followed by letters, digits, or underscores.
	TokenWord TokenKind = iota
	// TokenNumber is a run of word characters starting with a digit.
	// Trailing letters stay inside the run ("100abc") so substitution
	// keeps word-boundary semantics.
	TokenNumber
	// TokenOperator is one operator, with the two-character forms
	// (**, <=, >=, ==, !=, &&, ||) kept whole.
	TokenOperator
	// TokenSpace is a run of whitespace.
	TokenSpace
	// TokenOther is any other single rune: brackets, commas, quotes.
	TokenOther
)

// String returns a human-readable name for the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenWord:
		return "word"
	case TokenNumber:
		return "number"
	case TokenOperator:
		return "operator"
	case TokenSpace:
		return "space"
	case TokenOther:
		return "other"
	default:
		return "unknown"
	}
}

// Token is one lexed unit of a formula. Pos is the byte offset of the
// token's first character in the source string.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

// operatorRunes is the single-character operator set.
const operatorRunes = "+-*/%<>=!&|^"

// twoCharOps lists operator pairs lexed as a single token.
var twoCharOps = map[string]bool{
	"**": true,
	"<=": true,
	">=": true,
	"==": true,
	"!=": true,
	"&&": true,
	"||": true,
}

// Tokenize splits src into tokens. Concatenating the Text of every token
// in order reproduces src exactly.
func Tokenize(src string) []Token {
	var tokens []Token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		start := i
		switch {
		case isWordChar(r):
			number := isDigit(r)
			for i < len(src) {
				r2, s2 := utf8.DecodeRuneInString(src[i:])
				if !isWordChar(r2) {
					break
				}
				i += s2
			}
			kind := TokenWord
			if number {
				kind = TokenNumber
			}
			tokens = append(tokens, Token{Kind: kind, Text: src[start:i], Pos: start})
		case unicode.IsSpace(r):
			for i < len(src) {
				r2, s2 := utf8.DecodeRuneInString(src[i:])
				if !unicode.IsSpace(r2) {
					break
				}
				i += s2
			}
			tokens = append(tokens, Token{Kind: TokenSpace, Text: src[start:i], Pos: start})
		case strings.ContainsRune(operatorRunes, r):
			i += size
			if start+2 <= len(src) && twoCharOps[src[start:start+2]] {
				i = start + 2
			}
			tokens = append(tokens, Token{Kind: TokenOperator, Text: src[start:i], Pos: start})
		default:
			i += size
			tokens = append(tokens, Token{Kind: TokenOther, Text: src[start:i], Pos: start})
		}
	}
	return tokens
}

// PartialToken returns the identifier-shaped run ending at the end of text,
// or "" when text ends on anything else. This is the token a completion
// query is built from.
func PartialToken(text string) string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return ""
	}
	last := tokens[len(tokens)-1]
	if last.Kind != TokenWord {
		return ""
	}
	if last.Pos+len(last.Text) != len(text) {
		return ""
	}
	return last.Text
}

// IsCallHead reports whether the token at index i is immediately followed,
// with no gap, by an opening parenthesis.
func IsCallHead(tokens []Token, i int) bool {
	if i+1 >= len(tokens) {
		return false
	}
	next := tokens[i+1]
	return next.Text == "(" && next.Pos == tokens[i].Pos+len(tokens[i].Text)
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isWordChar(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}
