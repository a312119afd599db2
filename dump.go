package main

import (
	"fmt"
	"io"
)

var typeCodeNames = map[byte]string{
	TC_VOID:    "void",
	TC_UBYTE:   "ubyte",
	TC_SBYTE:   "sbyte",
	TC_UWORD:   "uword",
	TC_SWORD:   "sword",
	TC_ULONG:   "ulong",
	TC_SLONG:   "slong",
	TC_ARRAY:   "array",
	TC_CLUSTER: "cluster",
	TC_MUTEX:   "mutex",
}

// dumpImage prints a human-readable listing of a compiled image: header
// fields, the slot table, clump records and a disassembly of the codespace.
func dumpImage(w io.Writer, img *Image) {
	fmt.Fprintf(w, "version:       %d.%d\n", img.VersionMajor, img.VersionMinor)
	fmt.Fprintf(w, "dataspace:     %d entries, %d bytes (%d static)\n",
		img.DataspaceCount, img.DataspaceSize, img.DSStaticSize)
	fmt.Fprintf(w, "defaults:      %d bytes (%d dynamic at %d)\n",
		img.DSDefaultsSize, img.DynDSDefaultsSize, img.DynDSDefaultsOffset)
	fmt.Fprintf(w, "clumps:        %d\n", len(img.Clumps))
	fmt.Fprintf(w, "code words:    %d\n", len(img.CodeWords))

	fmt.Fprintf(w, "\nslot table:\n")
	slots := ReplaySlots(img.TOC, img.StaticDefaults, img.DynamicDefaults)
	for i, e := range img.TOC {
		name, ok := typeCodeNames[e.TypeCode]
		if !ok {
			name = fmt.Sprintf("type(%d)", e.TypeCode)
		}
		line := fmt.Sprintf("  %3d  %-8s flags=%d desc=%d", i, name, e.Flags, e.DataDesc)
		if v, ok := slots[i]; ok {
			line += fmt.Sprintf("  = %d", v)
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "\nclump records:\n")
	for i, c := range img.Clumps {
		fmt.Fprintf(w, "  %3d  fire=%d deps=%d start=%d\n",
			i, c.FireCount, c.DependentCount, c.CodeStart)
	}

	fmt.Fprintf(w, "\ncode:\n")
	dumpCode(w, img.CodeWords)
}

// dumpCode walks the word stream using each instruction word's size nibble.
func dumpCode(w io.Writer, words []int16) {
	pos := 0
	for pos < len(words) {
		instrWord := uint16(words[pos])
		sizeNibble := int(instrWord >> 12)
		cc := byte(instrWord >> 8 & 0x7)
		op := Opcode(instrWord & 0xFF)

		var total int // instruction length in words
		if sizeNibble == SIZE_VAR {
			if pos+1 >= len(words) {
				fmt.Fprintf(w, "  %4d  truncated instruction\n", pos)
				return
			}
			total = 2 + int(uint16(words[pos+1]))
		} else {
			total = (sizeNibble*2 + 4) / 2
		}
		if pos+total > len(words) {
			fmt.Fprintf(w, "  %4d  truncated instruction\n", pos)
			return
		}

		name, ok := opcodeNames[op]
		if !ok {
			name = fmt.Sprintf("OP(%#02x)", byte(op))
		}
		line := fmt.Sprintf("  %4d  %-8s", pos, name)
		if cc != 0 || op == OP_BRCMP || op == OP_CMP {
			line += fmt.Sprintf(" cc=%d", cc)
		}
		start := pos + 1
		if sizeNibble == SIZE_VAR {
			start = pos + 2
		}
		for _, operand := range words[start : pos+total] {
			line += fmt.Sprintf(" %d", operand)
		}
		fmt.Fprintln(w, line)
		pos += total
	}
}
