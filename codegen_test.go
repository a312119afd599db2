package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nalgeon/be"
)

func generateModule(t *testing.T, input string) *Module {
	t.Helper()
	program, st := resolveSource(t, input)
	module, cerr := Generate(program, st)
	be.Equal(t, cerr, nil)
	return module
}

// opsOf flattens a clump to its opcode sequence for structural assertions.
func opsOf(c *Clump) []Opcode {
	ops := make([]Opcode, len(c.Instrs))
	for i, in := range c.Instrs {
		ops[i] = in.Op
	}
	return ops
}

func TestVariableSlotsMatchResolverOrder(t *testing.T) {
	module := generateModule(t, "a = 1\nb = 2\nc = 3")
	be.Equal(t, module.DS.Entries[0].Name, "a")
	be.Equal(t, module.DS.Entries[1].Name, "b")
	be.Equal(t, module.DS.Entries[2].Name, "c")
	for i := 0; i < 3; i++ {
		be.Equal(t, module.DS.Entries[i].TypeCode, byte(TC_SLONG))
		be.Equal(t, module.DS.Entries[i].Flags, byte(entryFlagWritten))
	}
}

func TestMainClumpEndsWithStop(t *testing.T) {
	module := generateModule(t, "x = 1")
	main := module.Clumps[0]
	be.Equal(t, main.FireCount, byte(0))
	last := main.Instrs[len(main.Instrs)-1]
	be.Equal(t, last.Op, OP_STOP)
}

func TestConstantsAreDeduplicated(t *testing.T) {
	module := generateModule(t, "x = 5 + 5\ny = 5")
	count := 0
	for _, e := range module.DS.Entries {
		if e.Name == "const_5" {
			count++
		}
	}
	be.Equal(t, count, 1)
}

func TestConstantsAreDistinctPerType(t *testing.T) {
	// The literal 0 (SLONG) and port 0 (UBYTE) need separate slots.
	module := generateModule(t, "x = 0\ny = touch(1)")
	var types []byte
	for _, e := range module.DS.Entries {
		if e.Name == "const_0" {
			types = append(types, e.TypeCode)
		}
	}
	be.Equal(t, types, []byte{TC_SLONG, TC_UBYTE})
}

func TestTemporariesAreReusedAcrossStatements(t *testing.T) {
	module := generateModule(t, "x = 1 + 2\ny = 3 + 4")
	main := module.Clumps[0]

	var addDests []int
	for _, in := range main.Instrs {
		if in.Op == OP_ADD {
			addDests = append(addDests, in.Args[0])
		}
	}
	be.Equal(t, len(addDests), 2)
	be.Equal(t, addDests[0], addDests[1])

	tmps := 0
	for _, e := range module.DS.Entries {
		if e.Name == "__tmp0" {
			tmps++
		}
	}
	be.Equal(t, tmps, 1)
}

func TestNestedExpressionUsesDistinctTemporaries(t *testing.T) {
	module := generateModule(t, "x = (1 + 2) * (3 + 4)")
	main := module.Clumps[0]
	// ADD, ADD, MUL, MOV, STOP with the MUL reading both ADD results.
	be.Equal(t, opsOf(main), []Opcode{OP_ADD, OP_ADD, OP_MUL, OP_MOV, OP_STOP})
	mul := main.Instrs[2]
	be.Equal(t, mul.Args[1], main.Instrs[0].Args[0])
	be.Equal(t, mul.Args[2], main.Instrs[1].Args[0])
	be.True(t, main.Instrs[0].Args[0] != main.Instrs[1].Args[0])
}

func TestForeverJumpsBackToTop(t *testing.T) {
	module := generateModule(t, "forever:\n  wait(10)\nend")
	main := module.Clumps[0]
	be.Equal(t, opsOf(main), []Opcode{OP_WAIT, OP_JMP, OP_STOP})

	jmp := main.Instrs[1]
	be.True(t, jmp.Target != noLabel)
	be.Equal(t, main.labels[jmp.Target], 0)
}

func TestRepeatLowering(t *testing.T) {
	module := generateModule(t, "repeat 3:\n  wait(10)\nend")
	main := module.Clumps[0]
	be.Equal(t, opsOf(main), []Opcode{OP_MOV, OP_BRCMP, OP_WAIT, OP_SUB, OP_JMP, OP_STOP})

	brcmp := main.Instrs[1]
	be.Equal(t, brcmp.CC, byte(CC_LTEQ))
	be.Equal(t, main.labels[brcmp.Target], 5) // past the back jump
	be.Equal(t, main.labels[main.Instrs[4].Target], 1)

	// The counter is written by MOV and SUB, never shared with the pool.
	counter := main.Instrs[0].Args[0]
	be.Equal(t, main.Instrs[3].Args[0], counter)
	be.Equal(t, module.DS.Entries[counter].Name, "__loop0")
}

func TestIfElseBranchShape(t *testing.T) {
	module := generateModule(t, "x = 1\nif x > 5:\n  wait(1)\nelse:\n  wait(2)\nend")
	main := module.Clumps[0]
	be.Equal(t, opsOf(main), []Opcode{OP_MOV, OP_BRCMP, OP_WAIT, OP_JMP, OP_WAIT, OP_STOP})

	brcmp := main.Instrs[1]
	be.Equal(t, brcmp.CC, byte(CC_LTEQ)) // inverted >
	be.Equal(t, main.labels[brcmp.Target], 4)
	be.Equal(t, main.labels[main.Instrs[3].Target], 5)
}

func TestAndConditionBranchesShareFalseTarget(t *testing.T) {
	module := generateModule(t, "a = 1\nb = 2\nif a > 1 and b > 2:\n  wait(1)\nend")
	main := module.Clumps[0]

	var branches []Instr
	for _, in := range main.Instrs {
		if in.Op == OP_BRCMP {
			branches = append(branches, in)
		}
	}
	be.Equal(t, len(branches), 2)
	be.Equal(t, main.labels[branches[0].Target], main.labels[branches[1].Target])
	be.Equal(t, branches[0].CC, byte(CC_LTEQ))
	be.Equal(t, branches[1].CC, byte(CC_LTEQ))
}

func TestOrConditionShortCircuits(t *testing.T) {
	module := generateModule(t, "a = 1\nif a > 1 or a < 0:\n  wait(1)\nend")
	main := module.Clumps[0]

	var branches []Instr
	for _, in := range main.Instrs {
		if in.Op == OP_BRCMP {
			branches = append(branches, in)
		}
	}
	be.Equal(t, len(branches), 2)
	// First comparison keeps its sense (branch into the body when true),
	// second is inverted (branch past the body when false).
	be.Equal(t, branches[0].CC, byte(CC_GT))
	be.Equal(t, branches[1].CC, byte(CC_GTEQ))
	be.True(t, main.labels[branches[0].Target] != main.labels[branches[1].Target])
}

func TestNotInvertsComparison(t *testing.T) {
	module := generateModule(t, "a = 1\nif not a == 1:\n  wait(1)\nend")
	main := module.Clumps[0]
	// branch-if-false of (not a == 1) is branch-if-true of (a == 1).
	be.Equal(t, main.Instrs[1].Op, OP_BRCMP)
	be.Equal(t, main.Instrs[1].CC, byte(CC_EQ))
}

func TestSensorConfiguredOncePerPort(t *testing.T) {
	module := generateModule(t, "a = light(2)\nb = light(2)\nc = light(3)")
	main := module.Clumps[0]

	setins, getins := 0, 0
	for _, in := range main.Instrs {
		switch in.Op {
		case OP_SETIN:
			setins++
		case OP_GETIN:
			getins++
		}
	}
	be.Equal(t, setins, 6) // 3 per port, 2 ports
	be.Equal(t, getins, 3)
}

func TestUltrasonicSkipsInvalidReset(t *testing.T) {
	module := generateModule(t, "d = ultrasonic(4)")
	main := module.Clumps[0]

	setins := 0
	for _, in := range main.Instrs {
		if in.Op == OP_SETIN {
			setins++
		}
	}
	be.Equal(t, setins, 2) // type and mode only for I2C sensors
}

func TestMotorOnEmitsVariadicSetout(t *testing.T) {
	module := generateModule(t, "motor(B).on(70)")
	main := module.Clumps[0]
	setout := main.Instrs[0]
	be.Equal(t, setout.Op, OP_SETOUT)
	be.True(t, setout.Variadic)
	be.Equal(t, len(setout.Args), 11) // port + 5 field/value pairs
	be.Equal(t, module.DS.Entries[setout.Args[0]].Default, int64(MOTOR_B))
}

func TestFunctionClumps(t *testing.T) {
	module := generateModule(t, "def beep(freq):\n  play_tone(freq, 100)\nend\n\nbeep(440)\nbeep(880)")
	be.Equal(t, len(module.Clumps), 2)
	be.Equal(t, module.Clumps[0].FireCount, byte(0))
	be.Equal(t, module.Clumps[1].FireCount, byte(1))
	be.Equal(t, module.Clumps[1].Name, "beep")

	fn := module.Clumps[1]
	last := fn.Instrs[len(fn.Instrs)-1]
	be.Equal(t, last.Op, OP_SUBRET)

	// Each call moves the argument into the parameter slot, then SUBCALLs
	// with the callee clump index and the shared return slot.
	main := module.Clumps[0]
	be.Equal(t, opsOf(main), []Opcode{OP_MOV, OP_SUBCALL, OP_MOV, OP_SUBCALL, OP_STOP})
	be.Equal(t, main.Instrs[1].Args[0], 1)
	be.Equal(t, main.Instrs[1].Args, main.Instrs[3].Args)
	be.Equal(t, main.Instrs[0].Args[0], main.Instrs[2].Args[0])
	be.Equal(t, module.DS.Entries[main.Instrs[1].Args[1]].Name, "beep_ret")
}

func TestDisplayBuildsDrawTextCluster(t *testing.T) {
	module := generateModule(t, `display("hi", 2)`)
	main := module.Clumps[0]
	be.Equal(t, opsOf(main), []Opcode{OP_MUL, OP_SUB, OP_MOV, OP_MOV, OP_MOV, OP_SYSCALL, OP_STOP})

	syscall := main.Instrs[5]
	be.Equal(t, module.DS.Entries[syscall.Args[0]].Default, int64(SYSCALL_DRAW_TEXT))
	be.Equal(t, module.DS.Entries[syscall.Args[1]].TypeCode, byte(TC_CLUSTER))
}

func TestGeneratedModulesAreStructurallyEqual(t *testing.T) {
	source := "x = 1\nrepeat 2:\n  motor(A).on(x + 10)\nend"
	a := generateModule(t, source)
	b := generateModule(t, source)
	if diff := cmp.Diff(a.DS.Entries, b.DS.Entries); diff != "" {
		t.Errorf("dataspace mismatch (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(opsOf(a.Clumps[0]), opsOf(b.Clumps[0])); diff != "" {
		t.Errorf("instruction mismatch (-first +second):\n%s", diff)
	}
}
