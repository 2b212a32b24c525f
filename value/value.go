// Package value implements the VM's tagged runtime value and the mixed
// numeric arithmetic/comparison rules shared by constant folding (in the
// compiler) and instruction dispatch (in the VM). It is grounded on the
// same coercion table in both places so the two never disagree about what
// `1 + 2.0` means.
package value

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	Int Kind = iota
	Float
	Bool
	Function
	String
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "Int"
	case Float:
		return "Float"
	case Bool:
		return "Bool"
	case Function:
		return "Function"
	case String:
		return "String"
	default:
		return "?"
	}
}

// Value is a tagged union over the five runtime value variants. It is
// deliberately a plain struct rather than an interface: registers are
// copied by value very frequently in the dispatch loop, and an interface
// would put every Int and Bool on the heap.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	fn   uint16
	s    string
}

// Zero is the default register value: Int(0), matching the VM's
// preallocation-on-write behavior.
var Zero = NewInt(0)

func NewInt(v int64) Value       { return Value{kind: Int, i: v} }
func NewFloat(v float64) Value   { return Value{kind: Float, f: v} }
func NewBool(v bool) Value       { return Value{kind: Bool, b: v} }
func NewFunction(id uint16) Value { return Value{kind: Function, fn: id} }
func NewString(v string) Value   { return Value{kind: String, s: v} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsInt() int64 {
	if v.kind != Int {
		panic(errors.Errorf("value: expected Int, got %s", v.kind))
	}
	return v.i
}

func (v Value) AsFloat() float64 {
	if v.kind != Float {
		panic(errors.Errorf("value: expected Float, got %s", v.kind))
	}
	return v.f
}

func (v Value) AsBool() bool {
	if v.kind != Bool {
		panic(errors.Errorf("value: expected Bool, got %s", v.kind))
	}
	return v.b
}

func (v Value) AsFunction() uint16 {
	if v.kind != Function {
		panic(errors.Errorf("value: expected Function, got %s", v.kind))
	}
	return v.fn
}

func (v Value) AsString() string {
	if v.kind != String {
		panic(errors.Errorf("value: expected String, got %s", v.kind))
	}
	return v.s
}

// String renders the debug form used by the Print opcode:
// "Int(10)", "Float(1.5)", "Bool(true)", "String(\"ab\")", "Function(2)".
func (v Value) String() string {
	switch v.kind {
	case Int:
		return fmt.Sprintf("Int(%d)", v.i)
	case Float:
		return fmt.Sprintf("Float(%s)", formatFloat(v.f))
	case Bool:
		return fmt.Sprintf("Bool(%t)", v.b)
	case Function:
		return fmt.Sprintf("Function(%d)", v.fn)
	case String:
		return fmt.Sprintf("String(%q)", v.s)
	default:
		return "?"
	}
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}

// errMixedNonNumeric is returned whenever an arithmetic opcode is asked to
// operate on an operand pairing that the mixed-numeric coercion rules do
// not define (bool, function, or string mixed with anything but the
// string-concat special case).
var errMixedNonNumeric = errors.New("value: arithmetic requires numeric operands")

// Add implements `+` for the numeric variants. Int+Int stays Int; any float
// operand promotes the result to Float. Strings and bools are rejected
// here; string `+` is handled separately by Concat.
func Add(a, b Value) (Value, error) { return numericOp(a, b, false, opAdd) }

// Sub implements `-`.
func Sub(a, b Value) (Value, error) { return numericOp(a, b, false, opSub) }

// Mul implements `*` as real multiplication.
func Mul(a, b Value) (Value, error) { return numericOp(a, b, false, opMul) }

// Div implements `/`. Division always promotes to Float, even for two Ints.
func Div(a, b Value) (Value, error) { return numericOp(a, b, true, opDiv) }

type binOp func(x, y float64) float64

func opAdd(x, y float64) float64 { return x + y }
func opSub(x, y float64) float64 { return x - y }
func opMul(x, y float64) float64 { return x * y }
func opDiv(x, y float64) float64 { return x / y }

func numericOp(a, b Value, alwaysFloat bool, op binOp) (Value, error) {
	switch a.kind {
	case Int:
		switch b.kind {
		case Int:
			if alwaysFloat {
				return NewFloat(op(float64(a.i), float64(b.i))), nil
			}
			return NewInt(int64(op(float64(a.i), float64(b.i)))), nil
		case Float:
			return NewFloat(op(float64(a.i), b.f)), nil
		}
	case Float:
		switch b.kind {
		case Float:
			return NewFloat(op(a.f, b.f)), nil
		case Int:
			return NewFloat(op(a.f, float64(b.i))), nil
		}
	}
	return Value{}, errors.Wrapf(errMixedNonNumeric, "%s and %s", a.kind, b.kind)
}

// intOp performs the `*l` immediate family (Addl/Subl/Mull/Divl), where the
// right operand is always an untyped Int literal baked into the bytecode.
func intOp(a Value, lit int64, alwaysFloat bool, op binOp) (Value, error) {
	return numericOp(a, NewInt(lit), alwaysFloat, op)
}

func AddLit(a Value, lit int64) (Value, error) { return intOp(a, lit, false, opAdd) }
func SubLit(a Value, lit int64) (Value, error) { return intOp(a, lit, false, opSub) }
func MulLit(a Value, lit int64) (Value, error) { return intOp(a, lit, false, opMul) }
func DivLit(a Value, lit int64) (Value, error) { return intOp(a, lit, true, opDiv) }

// floatEpsilon is the tolerance used when one side of a comparison is a
// Float: two numbers within epsilon of each other compare equal rather
// than falling through to a fragile bit-exact comparison.
const floatEpsilon = 1e-9

// Less implements the VM's sole comparison opcode, Lt. Int-Int comparison
// is exact; any comparison touching a Float goes through the epsilon rule
// so that e.g. `3.0 < 3.0000000001` reads as false-via-equal rather than
// true-by-a-rounding-error.
func Less(a, b Value) (bool, error) {
	switch a.kind {
	case Int:
		switch b.kind {
		case Int:
			return a.i < b.i, nil
		case Float:
			return lessFloat(float64(a.i), b.f), nil
		}
	case Float:
		switch b.kind {
		case Float:
			return lessFloat(a.f, b.f), nil
		case Int:
			return lessFloat(a.f, float64(b.i)), nil
		}
	}
	return false, errors.Wrapf(errMixedNonNumeric, "compare %s and %s", a.kind, b.kind)
}

// LessLit is Ltl: the right operand is an immediate Int.
func LessLit(a Value, lit int64) (bool, error) {
	return Less(a, NewInt(lit))
}

func lessFloat(x, y float64) bool {
	if math.Abs(x-y) < floatEpsilon {
		return false
	}
	return x < y
}

var errConcatRequiresStrings = errors.New("value: concat requires two strings")

// Concat implements the Concat opcode: string ++ string only.
func Concat(a, b Value) (Value, error) {
	if a.kind != String || b.kind != String {
		return Value{}, errors.Wrapf(errConcatRequiresStrings, "got %s and %s", a.kind, b.kind)
	}
	return NewString(a.s + b.s), nil
}
