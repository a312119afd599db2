package main

// Function is a user-defined function: its parameters and body, plus the
// clump index and slots the code generator assigns later.
type Function struct {
	Name   string
	Params []string
	Body   *Node
	Line   int
	Col    int

	// Assigned by the code generator.
	Clump      int   // clump index of the function's code
	ParamSlots []int // one slot per parameter
	ReturnSlot int   // UBYTE slot holding the caller clump id for SUBRET
}

func (f *Function) Arity() int { return len(f.Params) }

// callEdge records one call site in the user-function call graph.
type callEdge struct {
	callee string
	line   int
	col    int
}

// SymbolTable is the resolver's output: variable slots in assignment order
// and the user function catalog.
type SymbolTable struct {
	vars     map[string]int
	VarNames []string // slot index → name; slots are exactly 0..len-1
	funcs    map[string]*Function
	FuncList []*Function // in definition order

	calls map[string][]callEdge // function name → calls in its body
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		vars:  make(map[string]int),
		funcs: make(map[string]*Function),
		calls: make(map[string][]callEdge),
	}
}

// VarSlot returns the slot for name, allocating the next index on first use.
// Slot indices are contiguous from 0 and stable for the whole compile.
func (st *SymbolTable) VarSlot(name string) int {
	if slot, ok := st.vars[name]; ok {
		return slot
	}
	slot := len(st.VarNames)
	st.vars[name] = slot
	st.VarNames = append(st.VarNames, name)
	return slot
}

// LookupVar returns the slot for name without allocating.
func (st *SymbolTable) LookupVar(name string) (int, bool) {
	slot, ok := st.vars[name]
	return slot, ok
}

func (st *SymbolTable) LookupFunc(name string) (*Function, bool) {
	fn, ok := st.funcs[name]
	return fn, ok
}

// resolver walks the AST once, binding identifiers to slots and calls to
// functions. It never mutates tree structure, only attaches metadata.
type resolver struct {
	st      *SymbolTable
	current string // name of the function whose body is being resolved
}

// Resolve annotates the program AST and returns the finished symbol table.
func Resolve(program *Node) (*SymbolTable, *CompileError) {
	r := &resolver{st: NewSymbolTable()}

	// Function names must all be known before any body is resolved, so
	// forward calls and the recursion check work.
	for _, stmt := range program.Children {
		if stmt.Kind != NodeFuncDef {
			continue
		}
		if err := r.declareFunc(stmt); err != nil {
			return nil, err
		}
	}

	for _, stmt := range program.Children {
		if stmt.Kind == NodeFuncDef {
			fn := r.st.funcs[stmt.Name]
			r.current = stmt.Name
			// Parameters are ordinary slots, bound before the body reads them.
			for _, p := range stmt.Params {
				r.st.VarSlot(p)
			}
			if err := r.resolveBlock(fn.Body); err != nil {
				return nil, err
			}
			r.current = ""
		} else if err := r.resolveStatement(stmt); err != nil {
			return nil, err
		}
	}

	if err := r.checkRecursion(); err != nil {
		return nil, err
	}
	return r.st, nil
}

func (r *resolver) declareFunc(def *Node) *CompileError {
	if isBuiltinName(def.Name) {
		return errAt(DuplicateDefinitionError, def.Line, def.Col,
			"cannot define %q: name is a built-in function", def.Name)
	}
	if prev, ok := r.st.funcs[def.Name]; ok {
		return errAt(DuplicateDefinitionError, def.Line, def.Col,
			"function %q already defined at line %d", def.Name, prev.Line)
	}
	fn := &Function{
		Name:   def.Name,
		Params: def.Params,
		Body:   def.Children[0],
		Line:   def.Line,
		Col:    def.Col,
		Clump:  -1,
	}
	r.st.funcs[def.Name] = fn
	r.st.FuncList = append(r.st.FuncList, fn)
	def.Fn = fn
	return nil
}

func (r *resolver) resolveBlock(block *Node) *CompileError {
	for _, stmt := range block.Children {
		if err := r.resolveStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) resolveStatement(stmt *Node) *CompileError {
	switch stmt.Kind {
	case NodeAssign:
		// Right-hand side first: `x = x + 1` needs x already assigned.
		if err := r.resolveExpr(stmt.Children[0]); err != nil {
			return err
		}
		stmt.Slot = r.st.VarSlot(stmt.Name)
		return nil

	case NodeIf:
		if err := r.resolveExpr(stmt.Children[0]); err != nil {
			return err
		}
		if err := r.resolveBlock(stmt.Children[1]); err != nil {
			return err
		}
		if len(stmt.Children) == 3 {
			return r.resolveBlock(stmt.Children[2])
		}
		return nil

	case NodeRepeat:
		if err := r.resolveExpr(stmt.Children[0]); err != nil {
			return err
		}
		return r.resolveBlock(stmt.Children[1])

	case NodeForever:
		return r.resolveBlock(stmt.Children[0])

	case NodeCall:
		return r.resolveCall(stmt, false)

	case NodeMethodCall:
		return r.resolveMotorCall(stmt)
	}
	return internalErr(ParseError, "resolver: unexpected statement %s", stmt.Kind)
}

func (r *resolver) resolveExpr(expr *Node) *CompileError {
	switch expr.Kind {
	case NodeInteger, NodeString:
		return nil

	case NodeIdent:
		slot, ok := r.st.LookupVar(expr.Name)
		if !ok {
			return errAt(UndefinedVariableError, expr.Line, expr.Col,
				"undefined variable %q", expr.Name)
		}
		expr.Slot = slot
		return nil

	case NodeBinary:
		if err := r.resolveExpr(expr.Children[0]); err != nil {
			return err
		}
		return r.resolveExpr(expr.Children[1])

	case NodeUnary:
		return r.resolveExpr(expr.Children[0])

	case NodeCall:
		return r.resolveCall(expr, true)
	}
	return internalErr(ParseError, "resolver: unexpected expression %s", expr.Kind)
}

// resolveCall binds a call against user functions first, then the builtin
// catalog, and checks arity and literal argument ranges.
func (r *resolver) resolveCall(call *Node, exprContext bool) *CompileError {
	for _, arg := range call.Children {
		if err := r.resolveExpr(arg); err != nil {
			return err
		}
	}

	if fn, ok := r.st.LookupFunc(call.Name); ok {
		if exprContext {
			return errAt(UndefinedFunctionError, call.Line, call.Col,
				"function %q has no return value and cannot be used in an expression", call.Name)
		}
		if len(call.Children) != fn.Arity() {
			return errAt(ArityMismatchError, call.Line, call.Col,
				"function %q takes %d argument(s), got %d", call.Name, fn.Arity(), len(call.Children))
		}
		call.Fn = fn
		if r.current != "" {
			r.st.calls[r.current] = append(r.st.calls[r.current],
				callEdge{callee: call.Name, line: call.Line, col: call.Col})
		}
		return nil
	}

	builtin, ok := builtinCatalog[call.Name]
	if !ok {
		return errAt(UndefinedFunctionError, call.Line, call.Col,
			"undefined function %q", call.Name)
	}
	if exprContext && !builtin.Expr {
		return errAt(UndefinedFunctionError, call.Line, call.Col,
			"built-in %q has no return value and cannot be used in an expression", call.Name)
	}
	if len(call.Children) != builtin.Arity() {
		return errAt(ArityMismatchError, call.Line, call.Col,
			"%s takes %d argument(s), got %d", call.Name, builtin.Arity(), len(call.Children))
	}
	if err := checkArgRanges(call, builtin); err != nil {
		return err
	}
	call.Builtin = builtin
	return nil
}

func (r *resolver) resolveMotorCall(call *Node) *CompileError {
	if _, ok := motorPorts[call.Str]; !ok {
		return errAt(ArgumentRangeError, call.Line, call.Col,
			"invalid motor port %q (must be A, B or C)", call.Str)
	}
	method := motorMethods[call.Name] // parser only accepts catalog methods
	if len(call.Children) != method.Arity() {
		return errAt(ArityMismatchError, call.Line, call.Col,
			"motor method %q takes %d argument(s), got %d", call.Name, method.Arity(), len(call.Children))
	}
	for _, arg := range call.Children {
		if err := r.resolveExpr(arg); err != nil {
			return err
		}
	}
	return checkArgRanges(call, method)
}

func checkArgRanges(call *Node, b *Builtin) *CompileError {
	for i, spec := range b.Args {
		arg := call.Children[i]
		if spec.Literal && arg.Kind != NodeInteger {
			return errAt(ArgumentRangeError, arg.Line, arg.Col,
				"%s %s must be a literal number between %d and %d", b.Name, spec.Name, spec.Min, spec.Max)
		}
		if spec.Ranged && arg.Kind == NodeInteger && (arg.Int < spec.Min || arg.Int > spec.Max) {
			return errAt(ArgumentRangeError, arg.Line, arg.Col,
				"%s %s must be between %d and %d, got %d", b.Name, spec.Name, spec.Min, spec.Max, arg.Int)
		}
	}
	return nil
}

// checkRecursion rejects any function that reaches itself through the call
// graph. The device VM has a single return slot per subroutine, so even
// indirect recursion would corrupt the return address. Simple DFS cycle
// detection; the error cites the call site that closes the cycle.
func (r *resolver) checkRecursion() *CompileError {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	color := make(map[string]int)

	var visit func(name string) *CompileError
	visit = func(name string) *CompileError {
		color[name] = gray
		for _, edge := range r.st.calls[name] {
			switch color[edge.callee] {
			case gray:
				return errAt(RecursionNotSupportedError, edge.line, edge.col,
					"function %q calls itself (directly or indirectly); recursion is not supported by the device", edge.callee)
			case white:
				if err := visit(edge.callee); err != nil {
					return err
				}
			}
		}
		color[name] = black
		return nil
	}

	for _, fn := range r.st.FuncList {
		if color[fn.Name] == white {
			if err := visit(fn.Name); err != nil {
				return err
			}
		}
	}
	return nil
}
