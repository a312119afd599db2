package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func lexAll(t *testing.T, input string) []Token {
	t.Helper()
	tokens, cerr := Tokenize([]byte(input))
	be.Equal(t, cerr, nil)
	return tokens
}

func TestIntLiteral(t *testing.T) {
	tokens := lexAll(t, "12345")
	be.Equal(t, tokens[0].Type, INT)
	be.Equal(t, tokens[0].Literal, "12345")
	be.Equal(t, tokens[0].Int, int64(12345))
	be.Equal(t, tokens[1].Type, EOF)
}

func TestIdentifier(t *testing.T) {
	tokens := lexAll(t, "speed_left")
	be.Equal(t, tokens[0].Type, IDENT)
	be.Equal(t, tokens[0].Literal, "speed_left")
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{"if", IF},
		{"else", ELSE},
		{"end", END},
		{"repeat", REPEAT},
		{"forever", FOREVER},
		{"def", DEF},
		{"and", AND},
		{"or", OR},
		{"not", NOT},
	}

	for _, tt := range tests {
		tokens := lexAll(t, tt.input)
		be.Equal(t, tokens[0].Type, tt.typ)
		be.Equal(t, tokens[0].Literal, tt.input)
	}
}

func TestBuiltinNamesAreIdentifiers(t *testing.T) {
	// Builtins are resolved by the symbol resolver, not the lexer.
	for _, name := range []string{"motor", "touch", "light", "sound", "ultrasonic", "play_tone", "display", "clear_screen", "wait"} {
		tokens := lexAll(t, name)
		be.Equal(t, tokens[0].Type, IDENT)
	}
}

func TestOperatorsAndDelimiters(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{"=", ASSIGN},
		{"+", PLUS},
		{"-", MINUS},
		{"*", ASTERISK},
		{"/", SLASH},
		{"%", PERCENT},
		{"<", LT},
		{">", GT},
		{"==", EQ},
		{"!=", NOT_EQ},
		{"<=", LE},
		{">=", GE},
		{",", COMMA},
		{":", COLON},
		{"(", LPAREN},
		{")", RPAREN},
		{".", DOT},
	}

	for _, tt := range tests {
		tokens := lexAll(t, tt.input)
		be.Equal(t, tokens[0].Type, tt.typ)
		be.Equal(t, tokens[0].Literal, tt.input)
	}
}

func TestStringLiteral(t *testing.T) {
	tokens := lexAll(t, `"hello world"`)
	be.Equal(t, tokens[0].Type, STRING)
	be.Equal(t, tokens[0].Literal, "hello world")
}

func TestNewlinesDelimitStatements(t *testing.T) {
	tokens := lexAll(t, "x = 1\ny = 2")
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	be.Equal(t, types, []TokenType{IDENT, ASSIGN, INT, NEWLINE, IDENT, ASSIGN, INT, EOF})
}

func TestCommentsAreSkipped(t *testing.T) {
	tokens := lexAll(t, "x = 1 # set speed\ny = 2")
	be.Equal(t, tokens[3].Type, NEWLINE)
	be.Equal(t, tokens[4].Literal, "y")
}

func TestLineAndColumnTracking(t *testing.T) {
	tokens := lexAll(t, "x = 1\n  y = 2")
	be.Equal(t, tokens[0].Line, 1)
	be.Equal(t, tokens[0].Col, 1)
	be.Equal(t, tokens[2].Col, 5)
	be.Equal(t, tokens[4].Line, 2)
	be.Equal(t, tokens[4].Col, 3)
}

func TestUnterminatedString(t *testing.T) {
	_, cerr := Tokenize([]byte(`x = "oops`))
	be.True(t, cerr != nil)
	be.Equal(t, cerr.Code, LexicalError)
	be.Equal(t, cerr.Message, "unterminated string")
	be.Equal(t, cerr.Col, 5)
}

func TestDecimalLiteralRejected(t *testing.T) {
	_, cerr := Tokenize([]byte("x = 3.14"))
	be.True(t, cerr != nil)
	be.Equal(t, cerr.Code, LexicalError)
	be.Equal(t, cerr.Message, "decimal literals are not supported, use whole numbers")
}

func TestDotAfterNumberIsNotDecimal(t *testing.T) {
	// motor(A).on(50) style dots must survive next to integers.
	tokens := lexAll(t, "1.x")
	be.Equal(t, tokens[0].Type, INT)
	be.Equal(t, tokens[1].Type, DOT)
	be.Equal(t, tokens[2].Type, IDENT)
}

func TestUnexpectedCharacter(t *testing.T) {
	_, cerr := Tokenize([]byte("x = 1 @ 2"))
	be.True(t, cerr != nil)
	be.Equal(t, cerr.Code, LexicalError)
	be.Equal(t, cerr.Message, `unexpected character "@"`)
}

func TestEmbeddedNulIsNotEndOfInput(t *testing.T) {
	// Only the trailing sentinel ends the scan; a NUL inside the source must
	// not silently swallow the rest of the file.
	_, cerr := Tokenize([]byte("x = 1\n\x00y = 2"))
	be.True(t, cerr != nil)
	be.Equal(t, cerr.Code, LexicalError)
	be.Equal(t, cerr.Message, "unexpected character \"\\x00\"")
	be.Equal(t, cerr.Line, 2)
	be.Equal(t, cerr.Col, 1)
}

func TestNulInsideStringRejected(t *testing.T) {
	_, cerr := Tokenize([]byte("display(\"a\x00b\", 1)"))
	be.True(t, cerr != nil)
	be.Equal(t, cerr.Code, LexicalError)
	be.Equal(t, cerr.Message, "unexpected character \"\\x00\"")
}

func TestNulInsideCommentIsCommentText(t *testing.T) {
	tokens := lexAll(t, "x = 1 # odd \x00 bytes\ny = 2")
	be.Equal(t, tokens[3].Type, NEWLINE)
	be.Equal(t, tokens[4].Literal, "y")
}

func TestOversizedIntegerLiteralRejected(t *testing.T) {
	_, cerr := Tokenize([]byte("x = 99999999999999999999"))
	be.True(t, cerr != nil)
	be.Equal(t, cerr.Code, LexicalError)
	be.Equal(t, cerr.Message, "integer literal does not fit a 32-bit slot")

	tokens := lexAll(t, "x = 2147483647")
	be.Equal(t, tokens[2].Int, int64(2147483647))
}
