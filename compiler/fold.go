package compiler

import (
	"rvm/ast"
	"rvm/value"

	"github.com/pkg/errors"
)

// isConstant is true for literal numbers and booleans, for a prefix over a
// constant, and for an infix of two constants. Identifiers, strings,
// calls, and blocks are never constant - strings stay out so every string
// literal still gets pool-interned.
func isConstant(e ast.Expr) bool {
	switch n := e.(type) {
	case ast.Lit:
		return n.Value.Kind != ast.LitString
	case ast.Prefix:
		return isConstant(n.Expr)
	case ast.Infix:
		if n.Op == ast.OpAssign {
			return false
		}
		return isConstant(n.Lhs) && isConstant(n.Rhs)
	default:
		return false
	}
}

// computeConstant evaluates a constant expression at compile time using
// the same value arithmetic the VM applies at runtime, so folding can
// never disagree with execution.
func computeConstant(e ast.Expr) (value.Value, error) {
	switch n := e.(type) {
	case ast.Lit:
		switch n.Value.Kind {
		case ast.LitInt:
			return value.NewInt(n.Value.Int), nil
		case ast.LitFloat:
			return value.NewFloat(n.Value.Flt), nil
		case ast.LitBool:
			return value.NewBool(n.Value.Bool), nil
		default:
			return value.Value{}, errors.Errorf("compiler: %s literal is not constant-foldable", n.Value.Kind)
		}
	case ast.Prefix:
		v, err := computeConstant(n.Expr)
		if err != nil {
			return value.Value{}, err
		}
		return applyPrefix(n.Op, v)
	case ast.Infix:
		lhs, op, rhs := n.Lhs, n.Op, n.Rhs
		if op == ast.OpGt {
			op, lhs, rhs = ast.OpLt, n.Rhs, n.Lhs
		}
		l, err := computeConstant(lhs)
		if err != nil {
			return value.Value{}, err
		}
		r, err := computeConstant(rhs)
		if err != nil {
			return value.Value{}, err
		}
		return applyInfix(op, l, r)
	default:
		return value.Value{}, errors.New("compiler: expression is not constant")
	}
}

func applyPrefix(op ast.PrefixOp, v value.Value) (value.Value, error) {
	switch op {
	case ast.PrefixNot:
		if v.Kind() != value.Bool {
			return value.Value{}, errors.Wrapf(errTypeMismatch, "! on %s", v.Kind())
		}
		return value.NewBool(!v.AsBool()), nil
	case ast.PrefixPlus:
		return v, nil
	case ast.PrefixMinus:
		switch v.Kind() {
		case value.Int:
			return value.NewInt(-v.AsInt()), nil
		case value.Float:
			return value.NewFloat(-v.AsFloat()), nil
		}
		return value.Value{}, errUnfoldableOperator
	case ast.PrefixBitNot:
		if v.Kind() == value.Int {
			return value.NewInt(^v.AsInt()), nil
		}
		return value.Value{}, errors.Wrapf(errUnfoldableOperator, "~ on %s", v.Kind())
	default:
		return value.Value{}, errors.Wrapf(errUnfoldableOperator, "prefix operator %d", op)
	}
}

func applyInfix(op ast.Operator, l, r value.Value) (value.Value, error) {
	switch op {
	case ast.OpAdd:
		return value.Add(l, r)
	case ast.OpSub:
		return value.Sub(l, r)
	case ast.OpMul:
		return value.Mul(l, r)
	case ast.OpDiv:
		return value.Div(l, r)
	case ast.OpLt:
		lt, err := value.Less(l, r)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewBool(lt), nil
	default:
		return value.Value{}, errors.Wrapf(errUnfoldableOperator, "%s", op)
	}
}
