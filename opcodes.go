package main

// NXT bytecode constants: type codes, opcodes, comparison codes, IO map
// fields and syscall IDs. Reference: LEGO MINDSTORMS NXT Executable File
// Specification and firmware sources (c_cmd.c).

// Type codes (for DSTOC entries)
const (
	TC_VOID    = 0x00
	TC_UBYTE   = 0x01
	TC_SBYTE   = 0x02
	TC_UWORD   = 0x03
	TC_SWORD   = 0x04
	TC_ULONG   = 0x05
	TC_SLONG   = 0x06
	TC_ARRAY   = 0x07
	TC_CLUSTER = 0x08
	TC_MUTEX   = 0x09
)

// typeSizes maps scalar type codes to their byte widths.
var typeSizes = map[byte]int{
	TC_UBYTE: 1,
	TC_SBYTE: 1,
	TC_UWORD: 2,
	TC_SWORD: 2,
	TC_ULONG: 4,
	TC_SLONG: 4,
}

// Opcode identifies one abstract (and encoded) instruction.
type Opcode byte

const (
	OP_ADD Opcode = 0x00
	OP_SUB Opcode = 0x01
	OP_NEG Opcode = 0x02
	OP_MUL Opcode = 0x03
	OP_DIV Opcode = 0x04
	OP_MOD Opcode = 0x05

	OP_CMP Opcode = 0x11
	OP_TST Opcode = 0x12

	OP_MOV Opcode = 0x19
	OP_SET Opcode = 0x1A

	OP_JMP     Opcode = 0x23
	OP_BRCMP   Opcode = 0x24
	OP_BRTST   Opcode = 0x25
	OP_SYSCALL Opcode = 0x28
	OP_STOP    Opcode = 0x29

	OP_FINCLUMP      Opcode = 0x2A
	OP_FINCLUMPIMMED Opcode = 0x2B
	OP_ACQUIRE       Opcode = 0x2C
	OP_RELEASE       Opcode = 0x2D
	OP_SUBCALL       Opcode = 0x2E
	OP_SUBRET        Opcode = 0x2F

	OP_SETIN  Opcode = 0x30
	OP_SETOUT Opcode = 0x31
	OP_GETIN  Opcode = 0x32
	OP_GETOUT Opcode = 0x33

	OP_WAIT    Opcode = 0x34
	OP_GETTICK Opcode = 0x35
)

// opcodeNames is used by the dump listing.
var opcodeNames = map[Opcode]string{
	OP_ADD: "ADD", OP_SUB: "SUB", OP_NEG: "NEG", OP_MUL: "MUL",
	OP_DIV: "DIV", OP_MOD: "MOD", OP_CMP: "CMP", OP_TST: "TST",
	OP_MOV: "MOV", OP_SET: "SET", OP_JMP: "JMP", OP_BRCMP: "BRCMP",
	OP_BRTST: "BRTST", OP_SYSCALL: "SYSCALL", OP_STOP: "STOP",
	OP_SUBCALL: "SUBCALL", OP_SUBRET: "SUBRET", OP_SETIN: "SETIN",
	OP_SETOUT: "SETOUT", OP_GETIN: "GETIN", OP_GETOUT: "GETOUT",
	OP_WAIT: "WAIT", OP_GETTICK: "GETTICK",
}

// Comparison codes (bits 10-8 of the instruction word)
const (
	CC_LT   = 0x00
	CC_GT   = 0x01
	CC_LTEQ = 0x02
	CC_GTEQ = 0x03
	CC_EQ   = 0x04
	CC_NEQ  = 0x05
)

// Input fields (for SETIN / GETIN)
const (
	IN_TYPE    = 0
	IN_MODE    = 1
	IN_SCALED  = 4
	IN_INVALID = 5
)

// Sensor types (InType values)
const (
	SENSOR_TYPE_TOUCH        = 0x01
	SENSOR_TYPE_LIGHT_ACTIVE = 0x05
	SENSOR_TYPE_SOUND_DB     = 0x07
	SENSOR_TYPE_LOWSPEED_9V  = 0x0B // I2C (ultrasonic)
)

// Sensor modes (InMode values)
const (
	SENSOR_MODE_RAW          = 0x00
	SENSOR_MODE_BOOLEAN      = 0x20
	SENSOR_MODE_PCTFULLSCALE = 0x80
)

// Output fields (for SETOUT / GETOUT)
const (
	OUT_FLAGS     = 0
	OUT_MODE      = 1
	OUT_SPEED     = 2
	OUT_RUN_STATE = 6
	OUT_REG_MODE  = 8
)

// Output UpdateFlags bits
const (
	OUT_UPDATE_MODE  = 0x01
	OUT_UPDATE_SPEED = 0x02
)

// Output modes
const (
	OUT_MODE_COAST     = 0x00
	OUT_MODE_MOTORON   = 0x01
	OUT_MODE_BRAKE     = 0x02
	OUT_MODE_REGULATED = 0x04
)

// Output run states
const (
	OUT_RUNSTATE_IDLE    = 0x00
	OUT_RUNSTATE_RUNNING = 0x20
)

// Output regulation modes
const (
	OUT_REGMODE_IDLE  = 0
	OUT_REGMODE_SPEED = 1
)

// Motor port numbers
const (
	MOTOR_A = 0
	MOTOR_B = 1
	MOTOR_C = 2
)

// Syscall IDs
const (
	SYSCALL_SOUND_PLAY_TONE = 10
	SYSCALL_DRAW_TEXT       = 13
	SYSCALL_CLEAR_SCREEN    = 38 // NXT 2.0 firmware
)

// Size nibble values for the instruction word's bits 15-12.
const (
	SIZE_4   = 0x0 // instruction word + 1 operand word
	SIZE_6   = 0x1 // + 2 operand words
	SIZE_8   = 0x2 // + 3 operand words
	SIZE_10  = 0x3 // + 4 operand words
	SIZE_12  = 0x4
	SIZE_14  = 0x5
	SIZE_VAR = 0xE // variable length: count word follows the instruction word
)

// opcodeSizes maps fixed-format opcodes to their total size in bytes.
// Variable-length opcodes (SETOUT) are absent.
var opcodeSizes = map[Opcode]int{
	OP_ADD:     8,
	OP_SUB:     8,
	OP_NEG:     6,
	OP_MUL:     8,
	OP_DIV:     8,
	OP_MOD:     8,
	OP_CMP:     8,
	OP_TST:     6,
	OP_MOV:     6,
	OP_SET:     6,
	OP_JMP:     4,
	OP_BRCMP:   8,
	OP_BRTST:   6,
	OP_SYSCALL: 6,
	OP_STOP:    4,
	OP_SUBCALL: 6,
	OP_SUBRET:  4,
	OP_SETIN:   8,
	OP_GETIN:   8,
	OP_GETOUT:  8,
	OP_WAIT:    4,
	OP_GETTICK: 6,
}
