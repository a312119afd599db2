package main

import (
	"fmt"
	"strings"
)

var ccNames = map[byte]string{
	CC_LT: "lt", CC_GT: "gt", CC_LTEQ: "lteq", CC_GTEQ: "gteq", CC_EQ: "eq", CC_NEQ: "neq",
}

// SlotListing renders the module's slot table one entry per line, used by
// the Markdown corpus assertions.
func (m *Module) SlotListing() string {
	var b strings.Builder
	for i, e := range m.DS.Entries {
		name, ok := typeCodeNames[e.TypeCode]
		if !ok {
			name = fmt.Sprintf("type(%d)", e.TypeCode)
		}
		switch e.TypeCode {
		case TC_ARRAY, TC_CLUSTER:
			fmt.Fprintf(&b, "%d %s %s\n", i, name, e.Name)
		default:
			fmt.Fprintf(&b, "%d %s %s = %d\n", i, name, e.Name, e.Default)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ClumpListing renders every clump's instructions with resolved branch
// targets as word offsets, one clump per stanza.
func (m *Module) ClumpListing() (string, *CompileError) {
	var b strings.Builder
	for ci, c := range m.Clumps {
		offsets, err := instrOffsets(c)
		if err != nil {
			return "", err
		}
		if ci > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "clump %d (%s):\n", ci, c.Name)
		for i, in := range c.Instrs {
			line := fmt.Sprintf("%4d: %s", offsets[i], opcodeNames[in.Op])
			if in.Op == OP_BRCMP || in.Op == OP_CMP || in.Op == OP_BRTST {
				line += " " + ccNames[in.CC]
			}
			if in.Target != noLabel {
				targetInstr, ok := c.labels[in.Target]
				if !ok {
					return "", internalErr(ImageAssemblyError,
						"code section: unresolved label in clump %q", c.Name)
				}
				var off int
				if targetInstr == len(c.Instrs) {
					last, lerr := instrWordCount(c.Instrs[len(c.Instrs)-1])
					if lerr != nil {
						return "", lerr
					}
					off = offsets[len(offsets)-1] + last
				} else {
					off = offsets[targetInstr]
				}
				line += fmt.Sprintf(" &%d", off)
			}
			for _, arg := range in.Args {
				line += fmt.Sprintf(" %d", arg)
			}
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
