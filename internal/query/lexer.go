package query

import (
	"strings"
	"unicode"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF    TokenType = iota
	TokenIdent            // keywords, type names, query-names like "cmis:name"
	TokenString           // '...' literal, Value holds the unescaped text
	TokenNumber           // 123, -4.5, 1e3
	TokenComma            // ,
	TokenDot              // .
	TokenStar             // *
	TokenLParen           // (
	TokenRParen           // )
	TokenOp               // = <> < > <= >=
	TokenError            // error token, Value holds the message
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of statement"
	case TokenIdent:
		return "identifier"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenComma:
		return "','"
	case TokenDot:
		return "'.'"
	case TokenStar:
		return "'*'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenOp:
		return "operator"
	default:
		return "invalid token"
	}
}

// Token represents a lexer token.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Lexer tokenizes a statement.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	start := l.pos
	ch := l.input[l.pos]

	switch ch {
	case ',':
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: start}
	case '.':
		if l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]) {
			return l.scanNumber()
		}
		l.pos++
		return Token{Type: TokenDot, Value: ".", Pos: start}
	case '*':
		l.pos++
		return Token{Type: TokenStar, Value: "*", Pos: start}
	case '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: start}
	case ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: start}
	case '=':
		l.pos++
		return Token{Type: TokenOp, Value: "=", Pos: start}
	case '<':
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '>' || l.input[l.pos] == '=') {
			l.pos++
		}
		return Token{Type: TokenOp, Value: l.input[start:l.pos], Pos: start}
	case '>':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
		}
		return Token{Type: TokenOp, Value: l.input[start:l.pos], Pos: start}
	case '\'':
		return l.scanString()
	case '-', '+':
		if l.pos+1 < len(l.input) && (isDigit(l.input[l.pos+1]) || l.input[l.pos+1] == '.') {
			return l.scanNumber()
		}
	default:
		if isDigit(ch) {
			return l.scanNumber()
		}
		if isIdentStart(rune(ch)) || ch >= 0x80 {
			return l.scanIdent()
		}
	}
	l.pos++
	return Token{Type: TokenError, Value: "unexpected character " + string(ch), Pos: start}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.input) {
		r := rune(l.input[l.pos])
		if !isIdentChar(r) && r < 0x80 {
			break
		}
		l.pos++
	}
	return Token{Type: TokenIdent, Value: l.input[start:l.pos], Pos: start}
}

// scanString reads a single-quoted literal. A quote is escaped either by
// doubling it or with a backslash. Other backslashes are kept, so LIKE
// patterns see their escapes.
func (l *Lexer) scanString() Token {
	start := l.pos
	l.pos++ // opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == '\\' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '\'':
			sb.WriteByte('\'')
			l.pos += 2
		case c == '\'' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '\'':
			sb.WriteByte('\'')
			l.pos += 2
		case c == '\'':
			l.pos++
			return Token{Type: TokenString, Value: sb.String(), Pos: start}
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return Token{Type: TokenError, Value: "unterminated string literal", Pos: start}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	if l.input[l.pos] == '-' || l.input[l.pos] == '+' {
		l.pos++
	}
	l.digits()
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		l.digits()
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		mark := l.pos
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '-' || l.input[l.pos] == '+') {
			l.pos++
		}
		if l.pos >= len(l.input) || !isDigit(l.input[l.pos]) {
			l.pos = mark
		} else {
			l.digits()
		}
	}
	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) digits() {
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9') || r == ':' || r == '$'
}
