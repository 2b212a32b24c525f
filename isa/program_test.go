package isa

import (
	"testing"

	"rvm/value"
)

func TestAddConstantAssignsSequentialIds(t *testing.T) {
	p := New()
	id0, err := p.AddConstant(value.NewString("a"))
	assert(t, err == nil, "unexpected error: %v", err)
	id1, err := p.AddConstant(value.NewString("b"))
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, id0 == 0, "expected id 0, got %d", id0)
	assert(t, id1 == 1, "expected id 1, got %d", id1)
}

func TestAddFunctionAssignsSequentialIds(t *testing.T) {
	root := New()
	fn0, err := root.AddFunction(New())
	assert(t, err == nil, "unexpected error: %v", err)
	fn1, err := root.AddFunction(New())
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, fn0 == 0, "expected id 0, got %d", fn0)
	assert(t, fn1 == 1, "expected id 1, got %d", fn1)
	assert(t, len(root.Functions) == 2, "expected 2 functions, got %d", len(root.Functions))
}
