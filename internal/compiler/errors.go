package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError locates a problem in a plan document.
//
// Field is the argument (or, for syntax errors, the dotted CUE path) the
// problem was found in. Pos is valid when the document came with a filename
// or the problem could be traced to a value.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	msg := e.Field + ": " + e.Message
	if !e.Pos.IsValid() {
		return msg
	}
	return e.Pos.Position().String() + ": " + msg
}

// documentError converts the first CUE error in err into a CompileError.
func documentError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]

	field := strings.Join(first.Path(), ".")
	if field == "" {
		field = "document"
	}
	format, args := first.Msg()
	compileErr := &CompileError{Field: field, Message: fmt.Sprintf(format, args...)}
	if pos := errors.Positions(first); len(pos) > 0 {
		compileErr.Pos = pos[0]
	}
	return compileErr
}
