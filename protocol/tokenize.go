package protocol

import (
	"strings"
)

// Token is a single field of a protocol line.
type Token struct {
	Text   string // unquoted, unescaped text
	Quoted bool   // the token was a quoted string on the wire
}

// Tokenize splits a line into space separated tokens. Double-quoted tokens
// may contain spaces; inside them a backslash escapes the next byte.
// Runs of spaces are treated as a single separator.
func Tokenize(line string) ([]Token, error) {
	var tokens []Token
	pos := 0
	for pos < len(line) {
		// Skip spaces
		for pos < len(line) && line[pos] == ' ' {
			pos++
		}
		if pos >= len(line) {
			break
		}

		if line[pos] != Quote {
			end := strings.IndexByte(line[pos:], ' ')
			if end == -1 {
				end = len(line) - pos
			}
			tokens = append(tokens, Token{Text: line[pos : pos+end]})
			pos += end
			continue
		}

		// Quoted token
		var sb strings.Builder
		pos++
		closed := false
		for pos < len(line) {
			c := line[pos]
			if c == Escape && pos+1 < len(line) {
				sb.WriteByte(line[pos+1])
				pos += 2
				continue
			}
			if c == Quote {
				closed = true
				pos++
				break
			}
			sb.WriteByte(c)
			pos++
		}
		if !closed {
			return nil, &ParseError{Message: "unterminated quoted string", Line: line}
		}
		if pos < len(line) && line[pos] != ' ' {
			return nil, &ParseError{Message: "missing separator after quoted string", Line: line}
		}
		tokens = append(tokens, Token{Text: sb.String(), Quoted: true})
	}
	return tokens, nil
}

// QuoteString renders s as a quoted protocol string.
func QuoteString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte(Quote)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == Quote || c == Escape {
			sb.WriteByte(Escape)
		}
		sb.WriteByte(c)
	}
	sb.WriteByte(Quote)
	return sb.String()
}

func isBareToken(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, " \t\r\n\"")
}
