package main

import "encoding/binary"

// The instruction word packs the size nibble in bits 15-12, the comparison
// code in bits 10-8 and the opcode in bits 7-0. Fixed-size instructions
// carry their total byte length in the nibble; variable-length instructions
// use SIZE_VAR and put the word count in a count word after the instruction
// word.

// instrWordCount returns the encoded length of one instruction in 16-bit
// words, including the instruction word and any count word.
func instrWordCount(in Instr) (int, *CompileError) {
	operands := len(in.Args)
	if in.Target != noLabel {
		operands++ // branch offset operand
	}
	if in.Variadic {
		return 2 + operands, nil
	}
	size, ok := opcodeSizes[in.Op]
	if !ok {
		return 0, internalErr(ImageAssemblyError, "code section: opcode %s has no fixed size", opcodeNames[in.Op])
	}
	words := size / 2
	if operands != words-1 {
		return 0, internalErr(ImageAssemblyError,
			"code section: %s encoded with %d operands, wants %d", opcodeNames[in.Op], operands, words-1)
	}
	return words, nil
}

// instrOffsets returns each instruction's offset from the start of the
// clump, in words.
func instrOffsets(c *Clump) ([]int, *CompileError) {
	offsets := make([]int, len(c.Instrs))
	off := 0
	for i, in := range c.Instrs {
		offsets[i] = off
		n, err := instrWordCount(in)
		if err != nil {
			return nil, err
		}
		off += n
	}
	return offsets, nil
}

// EncodeClump resolves the clump's labels and encodes its instructions into
// code words. Branch offsets are signed byte distances from the branch
// instruction's own first word.
func EncodeClump(c *Clump) ([]int16, *CompileError) {
	offsets, err := instrOffsets(c)
	if err != nil {
		return nil, err
	}

	var words []int16
	for i, in := range c.Instrs {
		sizeNibble := SIZE_VAR
		count, err := instrWordCount(in)
		if err != nil {
			return nil, err
		}
		if !in.Variadic {
			sizeNibble, err = sizeNibbleFor(in.Op, count*2)
			if err != nil {
				return nil, err
			}
		}

		instrWord := sizeNibble<<12 | int(in.CC)<<8 | int(in.Op)
		words = append(words, int16(instrWord))
		if in.Variadic {
			// The count word carries the operand word count.
			words = append(words, int16(count-2))
		}

		if in.Target != noLabel {
			targetInstr, ok := c.labels[in.Target]
			if !ok {
				return nil, internalErr(ImageAssemblyError,
					"code section: unresolved label in clump %q", c.Name)
			}
			var targetOff int
			if targetInstr == len(c.Instrs) {
				// Bound past the last instruction: the clump's end.
				last, lerr := instrWordCount(c.Instrs[len(c.Instrs)-1])
				if lerr != nil {
					return nil, lerr
				}
				targetOff = offsets[len(offsets)-1] + last
			} else {
				targetOff = offsets[targetInstr]
			}
			disp := (targetOff - offsets[i]) * 2
			if disp < -0x8000 || disp > 0x7FFF {
				return nil, internalErr(EncodingOverflowError,
					"branch in clump %q spans %d bytes, beyond a signed 16-bit offset", c.Name, disp)
			}
			words = append(words, int16(disp))
		}

		for _, arg := range in.Args {
			if arg < 0 || arg > 0xFFFF {
				return nil, internalErr(EncodingOverflowError,
					"operand %d in clump %q does not fit an unsigned 16-bit word", arg, c.Name)
			}
			words = append(words, int16(uint16(arg)))
		}
	}
	return words, nil
}

// sizeNibbleFor maps a fixed instruction byte length to its size nibble.
func sizeNibbleFor(op Opcode, byteLen int) (int, *CompileError) {
	switch byteLen {
	case 4:
		return SIZE_4, nil
	case 6:
		return SIZE_6, nil
	case 8:
		return SIZE_8, nil
	case 10:
		return SIZE_10, nil
	case 12:
		return SIZE_12, nil
	case 14:
		return SIZE_14, nil
	}
	return 0, internalErr(ImageAssemblyError,
		"code section: %s has unencodable length %d", opcodeNames[op], byteLen)
}

// wordsToBytes serializes code words little-endian.
func wordsToBytes(words []int16) []byte {
	buf := make([]byte, 2*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(w))
	}
	return buf
}
