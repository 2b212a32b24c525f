package value

import "testing"

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestAddIntInt(t *testing.T) {
	v, err := Add(NewInt(3), NewInt(4))
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, v.Kind() == Int, "expected Int, got %s", v.Kind())
	assert(t, v.AsInt() == 7, "expected 7, got %d", v.AsInt())
}

func TestAddIntFloatPromotes(t *testing.T) {
	v, err := Add(NewInt(3), NewFloat(0.5))
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, v.Kind() == Float, "expected Float, got %s", v.Kind())
	assert(t, v.AsFloat() == 3.5, "expected 3.5, got %v", v.AsFloat())
}

func TestMulIsMultiplication(t *testing.T) {
	v, err := Mul(NewInt(6), NewInt(7))
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, v.AsInt() == 42, "expected 42, got %d", v.AsInt())
}

func TestDivAlwaysFloat(t *testing.T) {
	v, err := Div(NewInt(3), NewInt(2))
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, v.Kind() == Float, "expected Float, got %s", v.Kind())
	assert(t, v.AsFloat() == 1.5, "expected 1.5, got %v", v.AsFloat())
}

func TestLessIntInt(t *testing.T) {
	lt, err := Less(NewInt(1), NewInt(2))
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, lt, "expected 1 < 2")
}

func TestLessFloatEpsilon(t *testing.T) {
	lt, err := Less(NewFloat(3.0), NewFloat(3.0000000000001))
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, !lt, "expected near-equal floats to not compare less")
}

func TestConcatStrings(t *testing.T) {
	v, err := Concat(NewString("ab"), NewString("cd"))
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, v.AsString() == "abcd", "expected abcd, got %s", v.AsString())
}

func TestConcatRejectsNonString(t *testing.T) {
	_, err := Concat(NewInt(1), NewString("x"))
	assert(t, err != nil, "expected error concatenating Int with String")
}

func TestArithmeticRejectsBool(t *testing.T) {
	_, err := Add(NewBool(true), NewBool(false))
	assert(t, err != nil, "expected error adding two bools")
}

func TestStringRendering(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{NewInt(10), "Int(10)"},
		{NewFloat(1.5), "Float(1.5)"},
		{NewBool(true), "Bool(true)"},
		{NewString("ababab"), `String("ababab")`},
		{NewFunction(2), "Function(2)"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}
