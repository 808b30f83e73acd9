package speech

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var tokenPattern = regexp.MustCompile(`[\w']+|[.,!?;:()"]|\s|\n`)

// Token is a word, punctuation mark or whitespace run of the spoken text.
// Start is a character (rune) offset into the text.
type Token struct {
	Text  string
	Start int
	Word  bool
}

// Tokenize splits text into words, punctuation and single whitespace
// characters. Characters matching none of these are skipped.
func Tokenize(text string) []Token {
	var out []Token
	for _, loc := range tokenPattern.FindAllStringIndex(text, -1) {
		s := text[loc[0]:loc[1]]
		r, _ := utf8.DecodeRuneInString(s)
		out = append(out, Token{
			Text:  s,
			Start: utf8.RuneCountInString(text[:loc[0]]),
			Word:  isWordRune(r),
		})
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '\'' || r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// WordAt returns the index of the word token covering charIndex, or -1.
func WordAt(tokens []Token, charIndex int) int {
	for i, t := range tokens {
		if !t.Word {
			continue
		}
		end := t.Start + utf8.RuneCountInString(t.Text)
		if charIndex >= t.Start && charIndex < end {
			return i
		}
		if t.Start > charIndex {
			break
		}
	}
	return -1
}

// Highlight renders tokens with the word at index marked by open and close.
// An index of -1 renders plain text.
func Highlight(tokens []Token, index int, open, close string) string {
	var b strings.Builder
	for i, t := range tokens {
		if i == index {
			b.WriteString(open)
			b.WriteString(t.Text)
			b.WriteString(close)
			continue
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

// wordStarts lists the character offsets of each word token.
func wordStarts(tokens []Token) []int {
	var out []int
	for _, t := range tokens {
		if t.Word {
			out = append(out, t.Start)
		}
	}
	return out
}
