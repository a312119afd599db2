package main

// TokenType is the type of token (identifier, operator, literal, etc.).
type TokenType string

// Definition of token types
const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"
	NEWLINE TokenType = "NEWLINE"

	// Identifiers + literals
	IDENT  TokenType = "IDENT"  // x, turn_right
	INT    TokenType = "INT"    // 12345
	STRING TokenType = "STRING" // "Hello"

	// Operators
	ASSIGN   TokenType = "="
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	PERCENT  TokenType = "%"

	LT     TokenType = "<"
	GT     TokenType = ">"
	EQ     TokenType = "=="
	NOT_EQ TokenType = "!="
	LE     TokenType = "<="
	GE     TokenType = ">="

	// Delimiters
	COMMA  TokenType = ","
	COLON  TokenType = ":"
	LPAREN TokenType = "("
	RPAREN TokenType = ")"
	DOT    TokenType = "."

	// Keywords
	IF      TokenType = "IF"
	ELSE    TokenType = "ELSE"
	END     TokenType = "END"
	REPEAT  TokenType = "REPEAT"
	FOREVER TokenType = "FOREVER"
	DEF     TokenType = "DEF"
	AND     TokenType = "AND"
	OR      TokenType = "OR"
	NOT     TokenType = "NOT"
)

var keywords = map[string]TokenType{
	"if":      IF,
	"else":    ELSE,
	"end":     END,
	"repeat":  REPEAT,
	"forever": FOREVER,
	"def":     DEF,
	"and":     AND,
	"or":      OR,
	"not":     NOT,
}

// Token is one lexical unit. Line and Col are 1-based and immutable once
// produced; Int is only meaningful when Type == INT.
type Token struct {
	Type    TokenType
	Literal string
	Int     int64
	Line    int
	Col     int
}
