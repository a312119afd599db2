// Package mdtest extracts compiler test cases from Markdown documents.
//
// A test case is a heading starting with "Test: ", followed by one
// nxt-program input fence and one or more assertion fences:
//
//	## Test: repeat lowers to a counter loop
//
//	```nxt-program
//	repeat 3:
//	  wait(100)
//	end
//	```
//
//	```clumps
//	...expected clump listing...
//	```
package mdtest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType is the language of a test's input code fence.
type InputType string

const InputTypeProgram InputType = "nxt-program"

// AssertionType is the language of an assertion code fence.
type AssertionType string

const (
	AssertionTypeAST          AssertionType = "ast"
	AssertionTypeCompileError AssertionType = "compile-error"
	AssertionTypeSlots        AssertionType = "slots"
	AssertionTypeClumps       AssertionType = "clumps"
)

// Assertion is one expected-output fence in a test case.
type Assertion struct {
	Type    AssertionType
	Content string
}

// TestCase is one complete test case extracted from Markdown.
type TestCase struct {
	Name       string // the heading text after "Test: "
	Input      string // the program source from the input fence
	Assertions []Assertion
}

// ExtractTestCases parses a Markdown document and extracts all test cases.
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	md := goldmark.New()
	source := []byte(markdownContent)

	doc := md.Parser().Parse(text.NewReader(source))

	var testCases []TestCase
	var current *TestCase

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			headingText := extractTextFromNode(n, source)
			if strings.HasPrefix(headingText, "Test: ") {
				if current != nil {
					if err := validateTestCase(current); err != nil {
						return ast.WalkStop, err
					}
					testCases = append(testCases, *current)
				}
				current = &TestCase{
					Name:       strings.TrimPrefix(headingText, "Test: "),
					Assertions: []Assertion{},
				}
			}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			content := extractCodeBlockContent(n, source)
			lineNum := getLineNumber(n, source)

			if current == nil {
				if language != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", lineNum, language)
				}
				return ast.WalkContinue, nil
			}

			if language != "" && !isInputFence(language) && !isAssertionFence(language) {
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", lineNum, language, current.Name)
			}

			if isInputFence(language) {
				if current.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences found in test '%s'", lineNum, current.Name)
				}
				current.Input = strings.TrimRight(content, "\n")
			} else if isAssertionFence(language) {
				current.Assertions = append(current.Assertions, Assertion{
					Type:    AssertionType(language),
					Content: strings.TrimRight(content, "\n"),
				})
			}
		}

		return ast.WalkContinue, nil
	})

	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}

	if current != nil {
		if err := validateTestCase(current); err != nil {
			return nil, err
		}
		testCases = append(testCases, *current)
	}

	return testCases, nil
}

// extractTextFromNode extracts plain text content from a markdown node
func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer

	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if text, ok := n.(*ast.Text); ok {
				buf.Write(text.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})

	return buf.String()
}

// extractCodeBlockContent extracts the content from a fenced code block
func extractCodeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer

	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		buf.Write(line.Value(source))
	}

	return buf.String()
}

func isInputFence(language string) bool {
	return language == string(InputTypeProgram)
}

func isAssertionFence(language string) bool {
	return language == string(AssertionTypeAST) ||
		language == string(AssertionTypeCompileError) ||
		language == string(AssertionTypeSlots) ||
		language == string(AssertionTypeClumps)
}

// validateTestCase ensures a test case has both input and at least one assertion
func validateTestCase(testCase *TestCase) error {
	if testCase.Input == "" {
		return fmt.Errorf("test '%s' has no input fence", testCase.Name)
	}
	if len(testCase.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", testCase.Name)
	}
	return nil
}

// getLineNumber calculates the line number of a given AST node
func getLineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	startPos := node.Lines().At(0).Start
	lineNum := 1
	for i := 0; i < startPos && i < len(source); i++ {
		if source[i] == '\n' {
			lineNum++
		}
	}
	return lineNum
}
