package isa

import (
	"bytes"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func buildSample() []byte {
	var code []byte
	// Load r0, 10
	code = append(code, byte(Load), 0)
	lit := make([]byte, 8)
	PutI64(lit, 10)
	code = append(code, lit...)
	// Addl r0, r0, 5
	code = append(code, byte(Addl), 0, 0)
	lit2 := make([]byte, 8)
	PutI64(lit2, 5)
	code = append(code, lit2...)
	// Print r0
	code = append(code, byte(Print), 0)
	// Halt
	code = append(code, byte(Halt))
	return code
}

func TestDisassembleLineCount(t *testing.T) {
	code := buildSample()
	lines, err := Disassemble(code)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, len(lines) == 4, "expected 4 lines, got %d", len(lines))
	assert(t, lines[0].Op == Load, "expected Load, got %s", lines[0].Op)
	assert(t, lines[3].Op == Halt, "expected Halt, got %s", lines[3].Op)
}

func TestRoundTrip(t *testing.T) {
	code := buildSample()
	lines, err := Disassemble(code)
	assert(t, err == nil, "unexpected error: %v", err)
	got := Reassemble(lines)
	assert(t, bytes.Equal(got, code), "round trip mismatch:\n got  %v\n want %v", got, code)
}

func TestTruncatedInstructionErrors(t *testing.T) {
	code := []byte{byte(Load), 0, 1, 2} // missing remaining Lit bytes
	_, err := Disassemble(code)
	assert(t, err != nil, "expected error on truncated instruction")
}

func TestSizeMatchesShape(t *testing.T) {
	assert(t, Size(Halt) == 1, "Halt size")
	assert(t, Size(Load) == 10, "Load size")
	assert(t, Size(Call) == 4, "Call size")
	assert(t, Size(Jmp) == 3, "Jmp size")
}
