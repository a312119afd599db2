package main

import "fmt"

// Severity distinguishes user-authored mistakes from compiler defects.
type Severity string

const (
	SeverityError    Severity = "error"    // fix your program
	SeverityInternal Severity = "internal" // report a bug
)

// ErrorCode identifies which contract a program (or the compiler) violated.
type ErrorCode string

const (
	LexicalError               ErrorCode = "LexicalError"
	ParseError                 ErrorCode = "ParseError"
	UndefinedVariableError     ErrorCode = "UndefinedVariableError"
	UndefinedFunctionError     ErrorCode = "UndefinedFunctionError"
	ArityMismatchError         ErrorCode = "ArityMismatchError"
	DuplicateDefinitionError   ErrorCode = "DuplicateDefinitionError"
	RecursionNotSupportedError ErrorCode = "RecursionNotSupportedError"
	ArgumentRangeError         ErrorCode = "ArgumentRangeError"
	EncodingOverflowError      ErrorCode = "EncodingOverflowError"
	ImageAssemblyError         ErrorCode = "ImageAssemblyError"
)

// Diagnostic is one entry of the compiler's error output.
// Line and Col are 1-based; Col may be 0 when no column is meaningful
// (e.g. image assembly failures).
type Diagnostic struct {
	Severity Severity
	Code     ErrorCode
	Message  string
	Line     int
	Col      int
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("line %d:%d: %s: %s", d.Line, d.Col, d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// CompileError is the error value every stage fails with. Each stage stops
// at its first error, so a CompileError always converts to a single-entry
// diagnostic list.
type CompileError struct {
	Code    ErrorCode
	Message string
	Line    int
	Col     int
}

func (e *CompileError) Error() string {
	return e.Diagnostic().String()
}

func (e *CompileError) Diagnostic() Diagnostic {
	sev := SeverityError
	if e.Code == EncodingOverflowError || e.Code == ImageAssemblyError {
		sev = SeverityInternal
	}
	return Diagnostic{Severity: sev, Code: e.Code, Message: e.Message, Line: e.Line, Col: e.Col}
}

func errAt(code ErrorCode, line, col int, format string, args ...any) *CompileError {
	return &CompileError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Col:     col,
	}
}

// internalErr reports a compiler defect (unresolved label, operand overflow,
// malformed section). These carry no useful source location.
func internalErr(code ErrorCode, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Message: fmt.Sprintf(format, args...)}
}
