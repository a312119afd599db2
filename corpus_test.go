package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"nxtc/mdtest"
)

// TestCorpus runs every test case extracted from the Markdown files under
// testdata/. Each case pairs a program with expected compiler output: its
// s-expression AST, slot table, clump listing or first diagnostic.
func TestCorpus(t *testing.T) {
	testFiles, err := filepath.Glob("testdata/*_test.md")
	be.Err(t, err, nil)
	be.True(t, len(testFiles) > 0)

	for _, testFile := range testFiles {
		testName := strings.TrimSuffix(filepath.Base(testFile), ".md")

		t.Run(testName, func(t *testing.T) {
			content, err := os.ReadFile(testFile)
			be.Err(t, err, nil)

			testCases, err := mdtest.ExtractTestCases(string(content))
			be.Err(t, err, nil)

			for _, tc := range testCases {
				t.Run(tc.Name, func(t *testing.T) {
					for _, assertion := range tc.Assertions {
						runAssertion(t, tc.Input, assertion)
					}
				})
			}
		})
	}
}

func runAssertion(t *testing.T, input string, assertion mdtest.Assertion) {
	t.Helper()
	source := []byte(input + "\n")

	switch assertion.Type {
	case mdtest.AssertionTypeAST:
		tokens, cerr := Tokenize(source)
		be.Equal(t, cerr, nil)
		program, cerr := Parse(tokens)
		be.Equal(t, cerr, nil)
		be.Equal(t, ToSExpr(program), assertion.Content)

	case mdtest.AssertionTypeCompileError:
		image, diags := CompileSource(source)
		be.Equal(t, image, nil)
		be.True(t, len(diags) == 1)
		be.Equal(t, diags[0].String(), assertion.Content)

	case mdtest.AssertionTypeSlots:
		module, cerr := compileToModule(source)
		be.Equal(t, cerr, nil)
		be.Equal(t, module.SlotListing(), assertion.Content)

	case mdtest.AssertionTypeClumps:
		module, cerr := compileToModule(source)
		be.Equal(t, cerr, nil)
		listing, cerr := module.ClumpListing()
		be.Equal(t, cerr, nil)
		be.Equal(t, listing, assertion.Content)

	default:
		t.Fatalf("unknown assertion type: %s", assertion.Type)
	}
}
