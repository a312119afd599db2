package main

// CompileSource runs the whole pipeline on one source file and returns
// either the RXE image bytes or the diagnostics that stopped compilation.
// Exactly one of the two is non-empty.
func CompileSource(source []byte) ([]byte, []Diagnostic) {
	module, cerr := compileToModule(source)
	if cerr != nil {
		return nil, []Diagnostic{cerr.Diagnostic()}
	}

	image, cerr := assembleModule(module)
	if cerr != nil {
		return nil, []Diagnostic{cerr.Diagnostic()}
	}
	return image, nil
}

// compileToModule runs the front half of the pipeline: source text to
// abstract clumps plus a finished dataspace.
func compileToModule(source []byte) (*Module, *CompileError) {
	tokens, cerr := Tokenize(source)
	if cerr != nil {
		return nil, cerr
	}
	program, cerr := Parse(tokens)
	if cerr != nil {
		return nil, cerr
	}
	st, cerr := Resolve(program)
	if cerr != nil {
		return nil, cerr
	}
	return Generate(program, st)
}

// assembleModule runs the back half: encode each clump, lay out the
// dataspace and assemble the container.
func assembleModule(module *Module) ([]byte, *CompileError) {
	var codeWords []int16
	records := make([]ClumpRecord, 0, len(module.Clumps))
	for _, clump := range module.Clumps {
		words, cerr := EncodeClump(clump)
		if cerr != nil {
			return nil, cerr
		}
		records = append(records, ClumpRecord{
			FireCount: clump.FireCount,
			CodeStart: len(codeWords),
		})
		codeWords = append(codeWords, words...)
	}

	layout, cerr := module.DS.Serialize()
	if cerr != nil {
		return nil, cerr
	}
	return BuildImage(layout, records, codeWords)
}
