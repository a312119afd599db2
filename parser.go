package main

// Parser is a recursive descent parser over the token sequence. It halts at
// the first structural violation; there is no error recovery because the
// newline-and-`end` grammar cannot be reliably re-synchronized.
type Parser struct {
	tokens []Token
	pos    int
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse consumes the whole token sequence and returns one Program node.
func Parse(tokens []Token) (*Node, *CompileError) {
	p := NewParser(tokens)
	return p.ParseProgram()
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(typ TokenType) (Token, *CompileError) {
	tok := p.peek()
	if tok.Type != typ {
		return tok, errAt(ParseError, tok.Line, tok.Col,
			"expected %s, got %s %q", typ, tok.Type, tok.Literal)
	}
	return p.advance(), nil
}

func (p *Parser) skipNewlines() {
	for p.peek().Type == NEWLINE {
		p.advance()
	}
}

// endOfStatement consumes the newline terminating a statement. END, ELSE and
// EOF also delimit statements so the enclosing block can see them.
func (p *Parser) endOfStatement() *CompileError {
	tok := p.peek()
	switch tok.Type {
	case NEWLINE:
		p.advance()
		return nil
	case EOF, END, ELSE:
		return nil
	}
	return errAt(ParseError, tok.Line, tok.Col,
		"expected end of statement, got %s %q", tok.Type, tok.Literal)
}

func (p *Parser) ParseProgram() (*Node, *CompileError) {
	program := &Node{Kind: NodeProgram, Line: 1, Col: 1, Slot: -1}
	p.skipNewlines()
	for p.peek().Type != EOF {
		var stmt *Node
		var err *CompileError
		if p.peek().Type == DEF {
			stmt, err = p.parseFuncDef()
		} else {
			stmt, err = p.parseStatement()
		}
		if err != nil {
			return nil, err
		}
		program.Children = append(program.Children, stmt)
		p.skipNewlines()
	}
	return program, nil
}

// parseBlock parses statements until END or ELSE. Reaching EOF instead is a
// missing-`end` error citing the opening statement's location.
func (p *Parser) parseBlock(open Token, construct string) (*Node, *CompileError) {
	block := &Node{Kind: NodeBlock, Line: open.Line, Col: open.Col, Slot: -1}
	for {
		p.skipNewlines()
		switch p.peek().Type {
		case END, ELSE:
			return block, nil
		case EOF:
			return nil, errAt(ParseError, open.Line, open.Col,
				"missing 'end' for %s starting at line %d", construct, open.Line)
		case DEF:
			tok := p.peek()
			return nil, errAt(ParseError, tok.Line, tok.Col,
				"function definitions are only allowed at the top level")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Children = append(block.Children, stmt)
	}
}

func (p *Parser) parseStatement() (*Node, *CompileError) {
	tok := p.peek()
	switch tok.Type {
	case IF:
		return p.parseIf()
	case REPEAT:
		return p.parseRepeat()
	case FOREVER:
		return p.parseForever()
	case IDENT:
		return p.parseIdentStatement()
	}
	return nil, errAt(ParseError, tok.Line, tok.Col,
		"unexpected %s %q at start of statement", tok.Type, tok.Literal)
}

func (p *Parser) parseIf() (*Node, *CompileError) {
	open := p.advance() // 'if'
	node := newNode(NodeIf, open)

	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlock(open, "'if'")
	if err != nil {
		return nil, err
	}
	node.Children = []*Node{cond, thenBlock}

	if p.peek().Type == ELSE {
		elseTok := p.advance()
		if p.peek().Type == COLON { // colon after else is optional
			p.advance()
		}
		elseBlock, err := p.parseBlock(elseTok, "'else'")
		if err != nil {
			return nil, err
		}
		if p.peek().Type == ELSE {
			tok := p.peek()
			return nil, errAt(ParseError, tok.Line, tok.Col, "duplicate 'else'")
		}
		node.Children = append(node.Children, elseBlock)
	}
	if _, err := p.expect(END); err != nil {
		return nil, err
	}
	return node, p.endOfStatement()
}

func (p *Parser) parseRepeat() (*Node, *CompileError) {
	open := p.advance() // 'repeat'
	node := newNode(NodeRepeat, open)

	count, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	body, err := p.parseBlock(open, "'repeat'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(END); err != nil {
		return nil, err
	}
	node.Children = []*Node{count, body}
	return node, p.endOfStatement()
}

func (p *Parser) parseForever() (*Node, *CompileError) {
	open := p.advance() // 'forever'
	node := newNode(NodeForever, open)

	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	body, err := p.parseBlock(open, "'forever'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(END); err != nil {
		return nil, err
	}
	node.Children = []*Node{body}
	return node, p.endOfStatement()
}

func (p *Parser) parseFuncDef() (*Node, *CompileError) {
	open := p.advance() // 'def'
	node := newNode(NodeFuncDef, open)

	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	node.Name = name.Literal

	// The parameter list may be omitted entirely for zero-arity functions.
	if p.peek().Type == LPAREN {
		p.advance()
		for p.peek().Type != RPAREN {
			param, err := p.expect(IDENT)
			if err != nil {
				return nil, err
			}
			node.Params = append(node.Params, param.Literal)
			if p.peek().Type == COMMA {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	body, err := p.parseBlock(open, "'def'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(END); err != nil {
		return nil, err
	}
	node.Children = []*Node{body}
	return node, p.endOfStatement()
}

// parseIdentStatement handles the statements that start with an identifier:
// assignment, function call, and motor(PORT).method(...).
func (p *Parser) parseIdentStatement() (*Node, *CompileError) {
	name := p.advance()
	switch p.peek().Type {
	case ASSIGN:
		p.advance()
		node := newNode(NodeAssign, name)
		node.Name = name.Literal
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		node.Children = []*Node{value}
		return node, p.endOfStatement()

	case LPAREN:
		if name.Literal == "motor" {
			node, err := p.parseMotorCall(name)
			if err != nil {
				return nil, err
			}
			return node, p.endOfStatement()
		}
		node, err := p.parseCall(name)
		if err != nil {
			return nil, err
		}
		return node, p.endOfStatement()
	}

	tok := p.peek()
	return nil, errAt(ParseError, tok.Line, tok.Col,
		"expected '=' or '(' after %q, got %s %q", name.Literal, tok.Type, tok.Literal)
}

// parseMotorCall parses motor(PORT).method(args). The receiver kind is fixed
// and the method must be one of the fixed catalog.
func (p *Parser) parseMotorCall(name Token) (*Node, *CompileError) {
	node := newNode(NodeMethodCall, name)

	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	port := p.peek()
	if port.Type != IDENT {
		return nil, errAt(ParseError, port.Line, port.Col,
			"expected motor port letter (A, B or C), got %s %q", port.Type, port.Literal)
	}
	p.advance()
	node.Str = port.Literal
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(DOT); err != nil {
		return nil, err
	}
	method, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if _, ok := motorMethods[method.Literal]; !ok {
		return nil, errAt(ParseError, method.Line, method.Col,
			"unknown motor method %q (expected on, off or coast)", method.Literal)
	}
	node.Name = method.Literal

	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	args, cerr := p.parseArguments()
	if cerr != nil {
		return nil, cerr
	}
	node.Children = args
	return node, nil
}

// parseCall parses name(args); the opening '(' has not been consumed.
func (p *Parser) parseCall(name Token) (*Node, *CompileError) {
	node := newNode(NodeCall, name)
	node.Name = name.Literal
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	node.Children = args
	return node, nil
}

// parseArguments parses a comma-separated argument list up to and including
// the closing ')'.
func (p *Parser) parseArguments() ([]*Node, *CompileError) {
	var args []*Node
	if p.peek().Type == RPAREN {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.peek().Type == COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

// parseCondition parses a boolean condition:
//
//	cond   := andCond { 'or' andCond }
//	andCond := notCond { 'and' notCond }
//	notCond := 'not' notCond | comparison
//	comparison := expr (< > <= >= == !=) expr
func (p *Parser) parseCondition() (*Node, *CompileError) {
	left, err := p.parseAndCondition()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == OR {
		op := p.advance()
		right, err := p.parseAndCondition()
		if err != nil {
			return nil, err
		}
		node := newNode(NodeBinary, op)
		node.Op = "or"
		node.Children = []*Node{left, right}
		left = node
	}
	return left, nil
}

func (p *Parser) parseAndCondition() (*Node, *CompileError) {
	left, err := p.parseNotCondition()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == AND {
		op := p.advance()
		right, err := p.parseNotCondition()
		if err != nil {
			return nil, err
		}
		node := newNode(NodeBinary, op)
		node.Op = "and"
		node.Children = []*Node{left, right}
		left = node
	}
	return left, nil
}

func (p *Parser) parseNotCondition() (*Node, *CompileError) {
	if p.peek().Type == NOT {
		op := p.advance()
		operand, err := p.parseNotCondition()
		if err != nil {
			return nil, err
		}
		node := newNode(NodeUnary, op)
		node.Op = "not"
		node.Children = []*Node{operand}
		return node, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (*Node, *CompileError) {
	left, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	switch tok.Type {
	case LT, GT, LE, GE, EQ, NOT_EQ:
		p.advance()
	default:
		return nil, errAt(ParseError, tok.Line, tok.Col,
			"expected comparison operator, got %s %q", tok.Type, tok.Literal)
	}
	right, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	node := newNode(NodeBinary, tok)
	node.Op = tok.Literal
	node.Children = []*Node{left, right}
	return node, nil
}

// parseExpression parses an arithmetic expression: term ((+|-) term)*
func (p *Parser) parseExpression() (*Node, *CompileError) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == PLUS || p.peek().Type == MINUS {
		op := p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		node := newNode(NodeBinary, op)
		node.Op = op.Literal
		node.Children = []*Node{left, right}
		left = node
	}
	return left, nil
}

// parseTerm parses: factor ((*|/|%) factor)*
func (p *Parser) parseTerm() (*Node, *CompileError) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == ASTERISK || p.peek().Type == SLASH || p.peek().Type == PERCENT {
		op := p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		node := newNode(NodeBinary, op)
		node.Op = op.Literal
		node.Children = []*Node{left, right}
		left = node
	}
	return left, nil
}

// parseFactor parses: number | string | ident | call | (expr) | -factor
func (p *Parser) parseFactor() (*Node, *CompileError) {
	tok := p.peek()
	switch tok.Type {
	case INT:
		p.advance()
		node := newNode(NodeInteger, tok)
		node.Int = tok.Int
		return node, nil

	case STRING:
		p.advance()
		node := newNode(NodeString, tok)
		node.Str = tok.Literal
		return node, nil

	case MINUS:
		p.advance()
		inner, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		// Fold negated literals so -5 is one constant, not a NEG at runtime.
		if inner.Kind == NodeInteger {
			inner.Int = -inner.Int
			return inner, nil
		}
		node := newNode(NodeUnary, tok)
		node.Op = "-"
		node.Children = []*Node{inner}
		return node, nil

	case LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil

	case IDENT:
		p.advance()
		if p.peek().Type == LPAREN {
			return p.parseCall(tok)
		}
		node := newNode(NodeIdent, tok)
		node.Name = tok.Literal
		return node, nil
	}
	return nil, errAt(ParseError, tok.Line, tok.Col,
		"expected expression, got %s %q", tok.Type, tok.Literal)
}
