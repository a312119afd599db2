package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func parseSource(t *testing.T, input string) *Node {
	t.Helper()
	tokens, cerr := Tokenize([]byte(input))
	be.Equal(t, cerr, nil)
	program, cerr := Parse(tokens)
	be.Equal(t, cerr, nil)
	return program
}

func parseFails(t *testing.T, input string) *CompileError {
	t.Helper()
	tokens, cerr := Tokenize([]byte(input))
	be.Equal(t, cerr, nil)
	_, cerr = Parse(tokens)
	be.True(t, cerr != nil)
	return cerr
}

func TestParseExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input string
		sexpr string
	}{
		{"x = 1 + 2 * 3", `(program (assign "x" (binary "+" (integer 1) (binary "*" (integer 2) (integer 3)))))`},
		{"x = (1 + 2) * 3", `(program (assign "x" (binary "*" (binary "+" (integer 1) (integer 2)) (integer 3))))`},
		{"x = 10 - 4 - 3", `(program (assign "x" (binary "-" (binary "-" (integer 10) (integer 4)) (integer 3))))`},
		{"x = 7 % 2", `(program (assign "x" (binary "%" (integer 7) (integer 2))))`},
		{"x = -y", `(program (assign "x" (unary "-" (ident "y"))))`},
	}

	for _, tt := range tests {
		program := parseSource(t, tt.input)
		be.Equal(t, ToSExpr(program), tt.sexpr)
	}
}

func TestParseConditionStructure(t *testing.T) {
	program := parseSource(t, "if a < 1 or b > 2 and not c == 3:\n  wait(1)\nend")
	// or binds loosest, not tightest.
	be.Equal(t, ToSExpr(program.Children[0].Children[0]),
		`(binary "or" (binary "<" (ident "a") (integer 1)) (binary "and" (binary ">" (ident "b") (integer 2)) (unary "not" (binary "==" (ident "c") (integer 3)))))`)
}

func TestParseConditionRequiresComparison(t *testing.T) {
	cerr := parseFails(t, "if x:\n  wait(1)\nend")
	be.Equal(t, cerr.Code, ParseError)
	be.Equal(t, cerr.Message, `expected comparison operator, got : ":"`)
}

func TestParseIfWithoutElse(t *testing.T) {
	program := parseSource(t, "if x > 1:\n  wait(1)\nend")
	be.Equal(t, len(program.Children[0].Children), 2)
}

func TestParseElseOptionalColon(t *testing.T) {
	withColon := parseSource(t, "if x > 1:\n  wait(1)\nelse:\n  wait(2)\nend")
	without := parseSource(t, "if x > 1:\n  wait(1)\nelse\n  wait(2)\nend")
	be.Equal(t, ToSExpr(withColon), ToSExpr(without))
}

func TestParseMissingEnd(t *testing.T) {
	cerr := parseFails(t, "forever:\n  wait(1)\n")
	be.Equal(t, cerr.Code, ParseError)
	be.Equal(t, cerr.Message, "missing 'end' for 'forever' starting at line 1")
	be.Equal(t, cerr.Line, 1)
	be.Equal(t, cerr.Col, 1)
}

func TestParseNestedBlocks(t *testing.T) {
	program := parseSource(t, "forever:\n  repeat 2:\n    if x > 1:\n      wait(1)\n    end\n  end\nend")
	forever := program.Children[0]
	be.Equal(t, forever.Kind, NodeForever)
	repeat := forever.Children[0].Children[0]
	be.Equal(t, repeat.Kind, NodeRepeat)
	be.Equal(t, repeat.Children[1].Children[0].Kind, NodeIf)
}

func TestParseFuncDefNoParams(t *testing.T) {
	bare := parseSource(t, "def beep:\n  wait(1)\nend")
	parens := parseSource(t, "def beep():\n  wait(1)\nend")
	be.Equal(t, ToSExpr(bare), ToSExpr(parens))
	be.Equal(t, len(bare.Children[0].Params), 0)
}

func TestParseFuncDefParams(t *testing.T) {
	program := parseSource(t, "def move(speed, ms):\n  wait(ms)\nend")
	def := program.Children[0]
	be.Equal(t, def.Name, "move")
	be.Equal(t, def.Params, []string{"speed", "ms"})
}

func TestParseFuncDefOnlyAtTopLevel(t *testing.T) {
	cerr := parseFails(t, "forever:\n  def beep:\n    wait(1)\n  end\nend")
	be.Equal(t, cerr.Code, ParseError)
	be.Equal(t, cerr.Message, "function definitions are only allowed at the top level")
	be.Equal(t, cerr.Line, 2)
}

func TestParseDuplicateElse(t *testing.T) {
	cerr := parseFails(t, "if x > 1:\n  wait(1)\nelse:\n  wait(2)\nelse:\n  wait(3)\nend")
	be.Equal(t, cerr.Code, ParseError)
	be.Equal(t, cerr.Message, "duplicate 'else'")
}

func TestParseMotorCall(t *testing.T) {
	program := parseSource(t, "motor(B).coast()")
	call := program.Children[0]
	be.Equal(t, call.Kind, NodeMethodCall)
	be.Equal(t, call.Str, "B")
	be.Equal(t, call.Name, "coast")
	be.Equal(t, len(call.Children), 0)
}

func TestParseMotorUnknownMethod(t *testing.T) {
	cerr := parseFails(t, "motor(A).reverse(50)")
	be.Equal(t, cerr.Code, ParseError)
	be.Equal(t, cerr.Message, `unknown motor method "reverse" (expected on, off or coast)`)
}

func TestParseMotorPortMustBeIdent(t *testing.T) {
	cerr := parseFails(t, "motor(1).on(50)")
	be.Equal(t, cerr.Code, ParseError)
	be.Equal(t, cerr.Message, `expected motor port letter (A, B or C), got INT "1"`)
}

func TestParseStatementsNeedNewlines(t *testing.T) {
	cerr := parseFails(t, "x = 1 y = 2")
	be.Equal(t, cerr.Code, ParseError)
	be.Equal(t, cerr.Message, `expected end of statement, got IDENT "y"`)
}

func TestParseCallInExpression(t *testing.T) {
	program := parseSource(t, "x = light(2) + 5")
	be.Equal(t, ToSExpr(program),
		`(program (assign "x" (binary "+" (call "light" (integer 2)) (integer 5))))`)
}
