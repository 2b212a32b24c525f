package compiler

import "github.com/pkg/errors"

var (
	errRegistersExhausted = errors.New("compiler: more than 256 live registers in one frame")
	errUnknownIdent       = errors.New("compiler: unknown identifier")
	errUnknownFunc        = errors.New("compiler: unknown function")
	errTypeMismatch       = errors.New("compiler: type mismatch")
	errAssignToNonIdent   = errors.New("compiler: left-hand side of assignment must be an identifier")
	errConcatNonAdd       = errors.New("compiler: only + is legal between two strings")
	errUnfoldableOperator = errors.New("compiler: operator not implemented by the constant folder")
	errUnsupportedExpr    = errors.New("compiler: expression form is not compiled in this revision")
)
