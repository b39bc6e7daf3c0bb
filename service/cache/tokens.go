package cache

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	placeholderCode = iota + 1
	textCode
	braceCode
	dollarCode
	shellVarCode
)

var (
	placeholderToken = parsly.NewToken(placeholderCode, "Placeholder", &placeholderMatcher{})
	textToken        = parsly.NewToken(textCode, "Text", &textMatcher{})
	braceToken       = parsly.NewToken(braceCode, "{", matcher.NewByte('{'))
	dollarToken      = parsly.NewToken(dollarCode, "$", matcher.NewByte('$'))
	shellVarToken    = parsly.NewToken(shellVarCode, "ShellVariable", &shellVarMatcher{})
)

// placeholderMatcher matches {name} where name is a word.
type placeholderMatcher struct{}

func (m *placeholderMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size || input[pos] != '{' {
		return 0
	}
	i := pos + 1
	for ; i < size && isWord(input[i]); i++ {
	}
	if i == pos+1 || i >= size || input[i] != '}' {
		return 0
	}
	return i - pos + 1
}

// shellVarMatcher matches ${name} shell expansions.
type shellVarMatcher struct{}

func (m *shellVarMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos+1 >= size || input[pos] != '$' || input[pos+1] != '{' {
		return 0
	}
	for i := pos + 2; i < size; i++ {
		if input[i] == '}' {
			if i == pos+2 {
				return 0
			}
			return i - pos + 1
		}
	}
	return 0
}

// textMatcher matches a run of bytes up to the next '{' or '$'.
type textMatcher struct{}

func (m *textMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	matched := 0
	for i := pos; i < size && input[i] != '{' && input[i] != '$'; i++ {
		matched++
	}
	return matched
}

func isWord(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
