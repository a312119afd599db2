package main

import "math"

// Lexer scans DSL source text into tokens, tracking line and column for
// diagnostics. The input is NUL-terminated internally so the scanner never
// bounds-checks.
type Lexer struct {
	input []byte
	pos   int
	line  int
	col   int
}

func NewLexer(input []byte) *Lexer {
	// Trailing NUL sentinel; input bytes are never mutated.
	buf := make([]byte, len(input)+1)
	copy(buf, input)
	return &Lexer{input: buf, line: 1, col: 1}
}

// Tokenize scans the whole source and returns the token sequence terminated
// by an EOF token. It stops at the first lexical error.
func Tokenize(input []byte) ([]Token, *CompileError) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) advance() byte {
	c := l.input[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) peek() byte {
	return l.input[l.pos]
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

// atEOF reports whether the scanner sits on the sentinel NUL, as opposed to
// a NUL byte embedded in the source text.
func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)-1
}

// NextToken scans and returns the next token.
func (l *Lexer) NextToken() (Token, *CompileError) {
	l.skipSpaceAndComments()

	line, col := l.line, l.col
	c := l.peek()

	switch {
	case c == 0:
		if !l.atEOF() {
			return Token{}, errAt(LexicalError, line, col, "unexpected character %q", string(c))
		}
		return Token{Type: EOF, Line: line, Col: col}, nil

	case c == '\n':
		l.advance()
		return Token{Type: NEWLINE, Literal: "\\n", Line: line, Col: col}, nil

	case c == '"':
		return l.readString(line, col)

	case isDigit(c):
		return l.readNumber(line, col)

	case isLetter(c):
		lit := l.readIdentifier()
		if kw, ok := keywords[lit]; ok {
			return Token{Type: kw, Literal: lit, Line: line, Col: col}, nil
		}
		return Token{Type: IDENT, Literal: lit, Line: line, Col: col}, nil
	}

	two := string([]byte{c, l.peekAt(1)})
	switch two {
	case "==", "!=", "<=", ">=":
		l.advance()
		l.advance()
		typ := map[string]TokenType{"==": EQ, "!=": NOT_EQ, "<=": LE, ">=": GE}[two]
		return Token{Type: typ, Literal: two, Line: line, Col: col}, nil
	}

	var typ TokenType
	switch c {
	case '=':
		typ = ASSIGN
	case '+':
		typ = PLUS
	case '-':
		typ = MINUS
	case '*':
		typ = ASTERISK
	case '/':
		typ = SLASH
	case '%':
		typ = PERCENT
	case '<':
		typ = LT
	case '>':
		typ = GT
	case ',':
		typ = COMMA
	case ':':
		typ = COLON
	case '(':
		typ = LPAREN
	case ')':
		typ = RPAREN
	case '.':
		typ = DOT
	default:
		return Token{}, errAt(LexicalError, line, col, "unexpected character %q", string(c))
	}
	l.advance()
	return Token{Type: typ, Literal: string(c), Line: line, Col: col}, nil
}

func (l *Lexer) skipSpaceAndComments() {
	for {
		c := l.peek()
		if c == ' ' || c == '\t' || c == '\r' {
			l.advance()
			continue
		}
		if c == '#' {
			for l.peek() != '\n' && !l.atEOF() {
				l.advance()
			}
			continue
		}
		return
	}
}

func (l *Lexer) readString(line, col int) (Token, *CompileError) {
	l.advance() // opening quote
	start := l.pos
	for l.peek() != '"' {
		if l.peek() == '\n' || l.atEOF() {
			return Token{}, errAt(LexicalError, line, col, "unterminated string")
		}
		if l.peek() == 0 {
			// Device strings are NUL-terminated; an embedded NUL would
			// truncate them on the brick.
			return Token{}, errAt(LexicalError, l.line, l.col, "unexpected character %q", "\x00")
		}
		l.advance()
	}
	lit := string(l.input[start:l.pos])
	l.advance() // closing quote
	return Token{Type: STRING, Literal: lit, Line: line, Col: col}, nil
}

func (l *Lexer) readNumber(line, col int) (Token, *CompileError) {
	start := l.pos
	var val int64
	for isDigit(l.peek()) {
		val = val*10 + int64(l.peek()-'0')
		if val > math.MaxInt32 {
			return Token{}, errAt(LexicalError, line, col,
				"integer literal does not fit a 32-bit slot")
		}
		l.advance()
	}
	// The target VM stores integer slots only.
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		return Token{}, errAt(LexicalError, line, col, "decimal literals are not supported, use whole numbers")
	}
	return Token{Type: INT, Literal: string(l.input[start:l.pos]), Int: val, Line: line, Col: col}, nil
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	return string(l.input[start:l.pos])
}
