package main

import "fmt"

// Label is a symbolic jump target, resolved to a code offset by the encoder
// once the clump's instruction stream is complete.
type Label int

const noLabel Label = -1

// Instr is one abstract instruction: opcode plus operands that reference
// dataspace slots or immediates. Branch instructions carry a Target label
// instead of an offset; the encoder patches the offset in.
type Instr struct {
	Op       Opcode
	CC       byte  // comparison code for BRCMP/CMP
	Args     []int // slot indices; for SUBCALL the first arg is a clump index
	Target   Label
	Variadic bool // variable-length encoding (SETOUT): count word after the instruction word
}

// Clump is one independently addressable instruction stream in the image:
// the main program or one user function.
type Clump struct {
	Name      string
	FireCount byte // 0 = runs at program start, 1 = fired via SUBCALL
	Instrs    []Instr
	labels    map[Label]int // label → instruction index
}

func (c *Clump) emit(in Instr) {
	c.Instrs = append(c.Instrs, in)
}

// bind resolves a label to the next instruction position.
func (c *Clump) bind(l Label) {
	c.labels[l] = len(c.Instrs)
}

// Module is the code generator's output: the finished slot table and one
// clump per code block, main first.
type Module struct {
	DS     *Dataspace
	Clumps []*Clump
}

type constKey struct {
	value    int64
	typeCode byte
}

type generator struct {
	ds     *Dataspace
	st     *SymbolTable
	clump  *Clump
	clumps []*Clump

	consts    map[constKey]int
	tempPool  []int // free SLONG temporaries
	stmtTemps []int // temporaries acquired by the current statement
	tempSeq   int
	loopSeq   int
	labelSeq  Label

	sensorConfigured map[int64]bool
}

// Generate walks the annotated AST in program order and emits one abstract
// instruction stream per clump, completing the slot table with constants and
// temporaries along the way.
func Generate(program *Node, st *SymbolTable) (*Module, *CompileError) {
	g := &generator{
		ds:               NewDataspace(),
		st:               st,
		consts:           make(map[constKey]int),
		sensorConfigured: make(map[int64]bool),
	}

	// Variables first, in resolver slot order, so DSTOC index == slot index
	// and variable slots stay contiguous from 0.
	for _, name := range st.VarNames {
		g.ds.AddScalar(TC_SLONG, name, 0, entryFlagWritten)
	}

	// Clump indices are fixed before any call site is generated: main is 0,
	// functions follow in definition order.
	main := &Clump{Name: "main", FireCount: 0, labels: make(map[Label]int)}
	g.clumps = []*Clump{main}
	for i, fn := range st.FuncList {
		fn.Clump = i + 1
		fn.ParamSlots = make([]int, len(fn.Params))
		for j, p := range fn.Params {
			slot, ok := st.LookupVar(p)
			if !ok {
				return nil, internalErr(ImageAssemblyError, "codegen: parameter %q of %q has no slot", p, fn.Name)
			}
			fn.ParamSlots[j] = slot
		}
		fn.ReturnSlot = g.ds.AddScalar(TC_UBYTE, fn.Name+"_ret", 0, entryFlagWritten)
		g.clumps = append(g.clumps, &Clump{Name: fn.Name, FireCount: 1, labels: make(map[Label]int)})
	}

	// Main program clump.
	g.clump = main
	for _, stmt := range program.Children {
		if stmt.Kind == NodeFuncDef {
			continue
		}
		if err := g.emitStatement(stmt); err != nil {
			return nil, err
		}
	}
	g.clump.emit(Instr{Op: OP_STOP, Args: []int{0}, Target: noLabel})

	// One clump per user function, terminated by SUBRET through the
	// function's return-address slot.
	for i, fn := range st.FuncList {
		g.clump = g.clumps[i+1]
		for _, stmt := range fn.Body.Children {
			if err := g.emitStatement(stmt); err != nil {
				return nil, err
			}
		}
		g.clump.emit(Instr{Op: OP_SUBRET, Args: []int{fn.ReturnSlot}, Target: noLabel})
	}

	return &Module{DS: g.ds, Clumps: g.clumps}, nil
}

func (g *generator) newLabel() Label {
	g.labelSeq++
	return g.labelSeq
}

// allocTemp takes a SLONG temporary from the pool, growing the slot table
// only when the pool is empty. Statement-scoped: releaseStmtTemps returns
// everything the statement acquired.
func (g *generator) allocTemp() int {
	var idx int
	if n := len(g.tempPool); n > 0 {
		idx = g.tempPool[n-1]
		g.tempPool = g.tempPool[:n-1]
	} else {
		idx = g.ds.AddScalar(TC_SLONG, fmt.Sprintf("__tmp%d", g.tempSeq), 0, entryFlagWritten)
		g.tempSeq++
	}
	g.stmtTemps = append(g.stmtTemps, idx)
	return idx
}

func (g *generator) releaseStmtTemps(mark int) {
	g.tempPool = append(g.tempPool, g.stmtTemps[mark:]...)
	g.stmtTemps = g.stmtTemps[:mark]
}

// getConst returns the slot of a deduplicated read-only constant.
func (g *generator) getConst(value int64, typeCode byte) int {
	key := constKey{value, typeCode}
	if idx, ok := g.consts[key]; ok {
		return idx
	}
	idx := g.ds.AddConstant(typeCode, fmt.Sprintf("const_%d", value), value)
	g.consts[key] = idx
	return idx
}

func (g *generator) constUByte(value int64) int { return g.getConst(value, TC_UBYTE) }
func (g *generator) constLong(value int64) int  { return g.getConst(value, TC_SLONG) }

// ── Statements ──────────────────────────────────────────────────────────

func (g *generator) emitStatement(stmt *Node) *CompileError {
	mark := len(g.stmtTemps)
	defer g.releaseStmtTemps(mark)

	switch stmt.Kind {
	case NodeAssign:
		src, err := g.emitExpr(stmt.Children[0])
		if err != nil {
			return err
		}
		g.clump.emit(Instr{Op: OP_MOV, Args: []int{stmt.Slot, src}, Target: noLabel})
		return nil

	case NodeIf:
		return g.emitIf(stmt)

	case NodeRepeat:
		return g.emitRepeat(stmt)

	case NodeForever:
		return g.emitForever(stmt)

	case NodeCall:
		if stmt.Fn != nil {
			return g.emitUserCall(stmt)
		}
		return g.emitBuiltinCall(stmt)

	case NodeMethodCall:
		return g.emitMotor(stmt)
	}
	return internalErr(ImageAssemblyError, "codegen: unexpected statement %s", stmt.Kind)
}

func (g *generator) emitIf(stmt *Node) *CompileError {
	elseLabel := g.newLabel()

	if err := g.branchIfFalse(stmt.Children[0], elseLabel); err != nil {
		return err
	}
	if err := g.emitBlock(stmt.Children[1]); err != nil {
		return err
	}

	if len(stmt.Children) == 3 {
		endLabel := g.newLabel()
		g.clump.emit(Instr{Op: OP_JMP, Target: endLabel})
		g.clump.bind(elseLabel)
		if err := g.emitBlock(stmt.Children[2]); err != nil {
			return err
		}
		g.clump.bind(endLabel)
	} else {
		g.clump.bind(elseLabel)
	}
	return nil
}

// emitRepeat lowers `repeat N:` to a dedicated counter slot, an exit branch
// while counter <= 0, the body, a decrement and a back jump.
func (g *generator) emitRepeat(stmt *Node) *CompileError {
	count, err := g.emitExpr(stmt.Children[0])
	if err != nil {
		return err
	}
	// Not a pool temporary: the counter stays live across the whole body.
	counter := g.ds.AddScalar(TC_SLONG, fmt.Sprintf("__loop%d", g.loopSeq), 0, entryFlagWritten)
	g.loopSeq++
	g.clump.emit(Instr{Op: OP_MOV, Args: []int{counter, count}, Target: noLabel})

	top := g.newLabel()
	end := g.newLabel()
	g.clump.bind(top)
	g.clump.emit(Instr{Op: OP_BRCMP, CC: CC_LTEQ, Args: []int{counter, g.constLong(0)}, Target: end})

	if err := g.emitBlock(stmt.Children[1]); err != nil {
		return err
	}

	g.clump.emit(Instr{Op: OP_SUB, Args: []int{counter, counter, g.constLong(1)}, Target: noLabel})
	g.clump.emit(Instr{Op: OP_JMP, Target: top})
	g.clump.bind(end)
	return nil
}

func (g *generator) emitForever(stmt *Node) *CompileError {
	top := g.newLabel()
	g.clump.bind(top)
	if err := g.emitBlock(stmt.Children[0]); err != nil {
		return err
	}
	g.clump.emit(Instr{Op: OP_JMP, Target: top})
	return nil
}

func (g *generator) emitBlock(block *Node) *CompileError {
	for _, stmt := range block.Children {
		if err := g.emitStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// emitUserCall moves the arguments into the callee's parameter slots and
// transfers control with SUBCALL; the callee's SUBRET jumps back through its
// return-address slot.
func (g *generator) emitUserCall(call *Node) *CompileError {
	fn := call.Fn
	for i, arg := range call.Children {
		src, err := g.emitExpr(arg)
		if err != nil {
			return err
		}
		g.clump.emit(Instr{Op: OP_MOV, Args: []int{fn.ParamSlots[i], src}, Target: noLabel})
	}
	g.clump.emit(Instr{Op: OP_SUBCALL, Args: []int{fn.Clump, fn.ReturnSlot}, Target: noLabel})
	return nil
}

func (g *generator) emitBuiltinCall(call *Node) *CompileError {
	switch call.Name {
	case "play_tone":
		return g.emitPlayTone(call)
	case "display":
		return g.emitDisplay(call)
	case "clear_screen":
		return g.emitClearScreen()
	case "wait":
		ms, err := g.emitExpr(call.Children[0])
		if err != nil {
			return err
		}
		g.clump.emit(Instr{Op: OP_WAIT, Args: []int{ms}, Target: noLabel})
		return nil
	case "touch", "light", "sound", "ultrasonic":
		// A sensor read in statement position: read and discard.
		_, err := g.emitSensorRead(call)
		return err
	}
	return internalErr(ImageAssemblyError, "codegen: unknown builtin %q", call.Name)
}

// ── Expressions ─────────────────────────────────────────────────────────

// emitExpr emits code for an expression and returns the slot of the result.
func (g *generator) emitExpr(expr *Node) (int, *CompileError) {
	switch expr.Kind {
	case NodeInteger:
		return g.constLong(expr.Int), nil

	case NodeString:
		name := expr.Str
		if len(name) > 8 {
			name = name[:8]
		}
		return g.ds.AddString(expr.Str, "str_"+name), nil

	case NodeIdent:
		return expr.Slot, nil

	case NodeUnary:
		if expr.Op != "-" {
			break
		}
		inner, err := g.emitExpr(expr.Children[0])
		if err != nil {
			return 0, err
		}
		result := g.allocTemp()
		g.clump.emit(Instr{Op: OP_NEG, Args: []int{result, inner}, Target: noLabel})
		return result, nil

	case NodeBinary:
		var op Opcode
		switch expr.Op {
		case "+":
			op = OP_ADD
		case "-":
			op = OP_SUB
		case "*":
			op = OP_MUL
		case "/":
			op = OP_DIV
		case "%":
			op = OP_MOD
		default:
			return 0, internalErr(ImageAssemblyError, "codegen: operator %q outside a condition", expr.Op)
		}
		left, err := g.emitExpr(expr.Children[0])
		if err != nil {
			return 0, err
		}
		right, err := g.emitExpr(expr.Children[1])
		if err != nil {
			return 0, err
		}
		result := g.allocTemp()
		g.clump.emit(Instr{Op: op, Args: []int{result, left, right}, Target: noLabel})
		return result, nil

	case NodeCall:
		return g.emitSensorRead(expr)
	}
	return 0, internalErr(ImageAssemblyError, "codegen: unexpected expression %s", expr.Kind)
}

// ── Conditions ──────────────────────────────────────────────────────────

var compareCC = map[string]byte{
	"<": CC_LT, ">": CC_GT, "<=": CC_LTEQ, ">=": CC_GTEQ, "==": CC_EQ, "!=": CC_NEQ,
}

// invertCC maps a comparison to the code that branches when it is false.
var invertCC = map[string]byte{
	"<": CC_GTEQ, ">": CC_LTEQ, "<=": CC_GT, ">=": CC_LT, "==": CC_NEQ, "!=": CC_EQ,
}

// branchIfFalse emits a branch chain that jumps to target when the condition
// does not hold. and/or lower to short-circuit chains over BRCMP.
func (g *generator) branchIfFalse(cond *Node, target Label) *CompileError {
	switch {
	case cond.Kind == NodeBinary && cond.Op == "and":
		if err := g.branchIfFalse(cond.Children[0], target); err != nil {
			return err
		}
		return g.branchIfFalse(cond.Children[1], target)

	case cond.Kind == NodeBinary && cond.Op == "or":
		holds := g.newLabel()
		if err := g.branchIfTrue(cond.Children[0], holds); err != nil {
			return err
		}
		if err := g.branchIfFalse(cond.Children[1], target); err != nil {
			return err
		}
		g.clump.bind(holds)
		return nil

	case cond.Kind == NodeUnary && cond.Op == "not":
		return g.branchIfTrue(cond.Children[0], target)
	}
	return g.emitCompareBranch(cond, target, invertCC)
}

func (g *generator) branchIfTrue(cond *Node, target Label) *CompileError {
	switch {
	case cond.Kind == NodeBinary && cond.Op == "and":
		fails := g.newLabel()
		if err := g.branchIfFalse(cond.Children[0], fails); err != nil {
			return err
		}
		if err := g.branchIfTrue(cond.Children[1], target); err != nil {
			return err
		}
		g.clump.bind(fails)
		return nil

	case cond.Kind == NodeBinary && cond.Op == "or":
		if err := g.branchIfTrue(cond.Children[0], target); err != nil {
			return err
		}
		return g.branchIfTrue(cond.Children[1], target)

	case cond.Kind == NodeUnary && cond.Op == "not":
		return g.branchIfFalse(cond.Children[0], target)
	}
	return g.emitCompareBranch(cond, target, compareCC)
}

func (g *generator) emitCompareBranch(cond *Node, target Label, ccMap map[string]byte) *CompileError {
	cc, ok := ccMap[cond.Op]
	if !ok || cond.Kind != NodeBinary {
		return internalErr(ImageAssemblyError, "codegen: condition is not a comparison")
	}
	left, err := g.emitExpr(cond.Children[0])
	if err != nil {
		return err
	}
	right, err := g.emitExpr(cond.Children[1])
	if err != nil {
		return err
	}
	g.clump.emit(Instr{Op: OP_BRCMP, CC: cc, Args: []int{left, right}, Target: target})
	return nil
}

// ── Motors ──────────────────────────────────────────────────────────────

// emitMotor lowers motor(PORT).on/off/coast to one variable-length SETOUT
// carrying the port and field/value pairs the firmware expects.
func (g *generator) emitMotor(call *Node) *CompileError {
	port := g.constUByte(motorPorts[call.Str])

	var pairs [][2]int
	switch call.Name {
	case "on":
		power, err := g.emitExpr(call.Children[0])
		if err != nil {
			return err
		}
		pairs = [][2]int{
			{g.constUByte(OUT_FLAGS), g.constUByte(OUT_UPDATE_MODE | OUT_UPDATE_SPEED)},
			{g.constUByte(OUT_MODE), g.constUByte(OUT_MODE_MOTORON | OUT_MODE_BRAKE | OUT_MODE_REGULATED)},
			{g.constUByte(OUT_SPEED), power},
			{g.constUByte(OUT_RUN_STATE), g.constUByte(OUT_RUNSTATE_RUNNING)},
			{g.constUByte(OUT_REG_MODE), g.constUByte(OUT_REGMODE_SPEED)},
		}
	case "off":
		pairs = [][2]int{
			{g.constUByte(OUT_FLAGS), g.constUByte(OUT_UPDATE_MODE | OUT_UPDATE_SPEED)},
			{g.constUByte(OUT_MODE), g.constUByte(OUT_MODE_MOTORON | OUT_MODE_BRAKE)},
			{g.constUByte(OUT_SPEED), g.constUByte(0)},
			{g.constUByte(OUT_RUN_STATE), g.constUByte(OUT_RUNSTATE_RUNNING)},
		}
	case "coast":
		pairs = [][2]int{
			{g.constUByte(OUT_FLAGS), g.constUByte(OUT_UPDATE_MODE | OUT_UPDATE_SPEED)},
			{g.constUByte(OUT_MODE), g.constUByte(OUT_MODE_COAST)},
			{g.constUByte(OUT_SPEED), g.constUByte(0)},
			{g.constUByte(OUT_RUN_STATE), g.constUByte(OUT_RUNSTATE_IDLE)},
		}
	default:
		return internalErr(ImageAssemblyError, "codegen: unknown motor method %q", call.Name)
	}

	args := []int{port}
	for _, fv := range pairs {
		args = append(args, fv[0], fv[1])
	}
	g.clump.emit(Instr{Op: OP_SETOUT, Args: args, Target: noLabel, Variadic: true})
	return nil
}

// ── Sensors ─────────────────────────────────────────────────────────────

var sensorConfig = map[string]struct{ typ, mode int64 }{
	"touch":      {SENSOR_TYPE_TOUCH, SENSOR_MODE_BOOLEAN},
	"light":      {SENSOR_TYPE_LIGHT_ACTIVE, SENSOR_MODE_PCTFULLSCALE},
	"sound":      {SENSOR_TYPE_SOUND_DB, SENSOR_MODE_PCTFULLSCALE},
	"ultrasonic": {SENSOR_TYPE_LOWSPEED_9V, SENSOR_MODE_RAW},
}

// emitSensorRead configures the port on its first read (SETIN type, mode and
// an invalid-data reset for analog sensors) and reads the scaled value.
func (g *generator) emitSensorRead(call *Node) (int, *CompileError) {
	cfg := sensorConfig[call.Name]
	port := call.Children[0].Int - 1 // ports are 1-based in source
	portIdx := g.constUByte(port)
	result := g.allocTemp()

	if !g.sensorConfigured[port] {
		g.clump.emit(Instr{Op: OP_SETIN,
			Args: []int{portIdx, g.constUByte(IN_TYPE), g.constUByte(cfg.typ)}, Target: noLabel})
		g.clump.emit(Instr{Op: OP_SETIN,
			Args: []int{portIdx, g.constUByte(IN_MODE), g.constUByte(cfg.mode)}, Target: noLabel})
		if call.Name != "ultrasonic" {
			g.clump.emit(Instr{Op: OP_SETIN,
				Args: []int{portIdx, g.constUByte(IN_INVALID), g.constUByte(0)}, Target: noLabel})
		}
		g.sensorConfigured[port] = true
	}

	g.clump.emit(Instr{Op: OP_GETIN,
		Args: []int{result, portIdx, g.constUByte(IN_SCALED)}, Target: noLabel})
	return result, nil
}

// ── Sound, display, timing ──────────────────────────────────────────────

// emitPlayTone builds the SoundPlayTone syscall cluster
// {status UBYTE, frequency UWORD, duration UWORD, loop UBYTE, volume UBYTE}
// and fills frequency/duration from the call's expressions.
func (g *generator) emitPlayTone(call *Node) *CompileError {
	freq, err := g.emitExpr(call.Children[0])
	if err != nil {
		return err
	}
	dur, err := g.emitExpr(call.Children[1])
	if err != nil {
		return err
	}

	cluster, members := g.ds.AddCluster(
		[]byte{TC_UBYTE, TC_UWORD, TC_UWORD, TC_UBYTE, TC_UBYTE},
		"tone",
		[]int64{0, 0, 0, 0, 3}, // volume 3
	)
	g.clump.emit(Instr{Op: OP_MOV, Args: []int{members[1], freq}, Target: noLabel})
	g.clump.emit(Instr{Op: OP_MOV, Args: []int{members[2], dur}, Target: noLabel})
	g.clump.emit(Instr{Op: OP_SYSCALL,
		Args: []int{g.constUByte(SYSCALL_SOUND_PLAY_TONE), cluster}, Target: noLabel})
	return nil
}

// emitDisplay lowers display(text, line) to the DrawText syscall. The screen
// is 64 pixels tall with 8 text rows, so line n draws at y = 56 - n*8.
func (g *generator) emitDisplay(call *Node) *CompileError {
	text, err := g.emitExpr(call.Children[0])
	if err != nil {
		return err
	}
	line, err := g.emitExpr(call.Children[1])
	if err != nil {
		return err
	}

	rowHeight := g.allocTemp()
	g.clump.emit(Instr{Op: OP_MUL, Args: []int{rowHeight, line, g.constLong(8)}, Target: noLabel})
	y := g.allocTemp()
	g.clump.emit(Instr{Op: OP_SUB, Args: []int{y, g.constLong(56), rowHeight}, Target: noLabel})

	cluster, members := g.ds.AddClusterWithStrings(
		[]byte{TC_SWORD, TC_SWORD, TC_SWORD, TC_ARRAY},
		map[int]string{3: ""},
		"drawtext",
	)
	g.clump.emit(Instr{Op: OP_MOV, Args: []int{members[1], g.constLong(0)}, Target: noLabel}) // x
	g.clump.emit(Instr{Op: OP_MOV, Args: []int{members[2], y}, Target: noLabel})
	g.clump.emit(Instr{Op: OP_MOV, Args: []int{members[3], text}, Target: noLabel})
	g.clump.emit(Instr{Op: OP_SYSCALL,
		Args: []int{g.constUByte(SYSCALL_DRAW_TEXT), cluster}, Target: noLabel})
	return nil
}

func (g *generator) emitClearScreen() *CompileError {
	cluster, _ := g.ds.AddCluster([]byte{TC_SWORD, TC_UWORD}, "clrscr", []int64{0, 0})
	g.clump.emit(Instr{Op: OP_SYSCALL,
		Args: []int{g.constUByte(SYSCALL_CLEAR_SCREEN), cluster}, Target: noLabel})
	return nil
}
