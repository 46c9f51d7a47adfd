package queryaql

import (
	"errors"
	"fmt"

	"github.com/quilldb/quill/internal/queryir"
)

// CompileErrorCode categorizes compile-time failures.
type CompileErrorCode string

const (
	// ErrCodeUnknownNode indicates the lowering pass has no handler for a
	// node variant.
	ErrCodeUnknownNode CompileErrorCode = "UNKNOWN_NODE"

	// ErrCodeUnboundVariable indicates a variable was referenced in a
	// scope that never introduced it.
	ErrCodeUnboundVariable CompileErrorCode = "UNBOUND_VARIABLE"

	// ErrCodeDoubleIntroduction indicates a variable identity was
	// introduced again while already in scope.
	ErrCodeDoubleIntroduction CompileErrorCode = "DOUBLE_INTRODUCTION"

	// ErrCodeUnsupportedOperator indicates an operator with no lowering
	// rule.
	ErrCodeUnsupportedOperator CompileErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrCodeInvalidIdentifier indicates a collection or field name failed
	// the safety whitelist.
	ErrCodeInvalidIdentifier CompileErrorCode = "INVALID_IDENTIFIER"

	// ErrCodeMalformedIR indicates a node violated its structural
	// invariants.
	ErrCodeMalformedIR CompileErrorCode = "MALFORMED_IR"
)

// CompileError is a fatal compilation failure. It carries the failing
// node for source-identifying context; none of these errors is retried.
type CompileError struct {
	Code    CompileErrorCode
	Message string
	Node    queryir.Node
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Node != nil {
		return fmt.Sprintf("%s: %s (node %T)", e.Code, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HasCode reports whether err is a CompileError with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code CompileErrorCode) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func compileErrorf(code CompileErrorCode, node queryir.Node, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Message: fmt.Sprintf(format, args...), Node: node}
}
