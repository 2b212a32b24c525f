package isa

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Line is one decoded instruction, annotated with the byte offset it
// starts at.
type Line struct {
	Offset int
	Op     Opcode
	Text   string
	Size   int
	Raw    []byte
}

// Disassemble decodes code into an ordered list of Lines. It never follows
// jumps; it is a linear scan from offset 0.
func Disassemble(code []byte) ([]Line, error) {
	var lines []Line
	off := 0
	for off < len(code) {
		op := Opcode(code[off])
		size := Size(op)
		if off+size > len(code) {
			return nil, errors.Errorf("isa: truncated instruction %s at offset %d", op, off)
		}
		text, err := render(op, code[off:off+size])
		if err != nil {
			return nil, errors.Wrapf(err, "at offset %d", off)
		}
		raw := make([]byte, size)
		copy(raw, code[off:off+size])
		lines = append(lines, Line{Offset: off, Op: op, Text: text, Size: size, Raw: raw})
		off += size
	}
	return lines, nil
}

// Reassemble reconstructs the original byte sequence from a decoded
// listing. Disassemble followed by Reassemble is the identity function on
// well-formed code.
func Reassemble(lines []Line) []byte {
	var out []byte
	for _, l := range lines {
		out = append(out, l.Raw...)
	}
	return out
}

func render(op Opcode, b []byte) (string, error) {
	if op > Print {
		return "", errors.Errorf("isa: unknown opcode byte %d", byte(op))
	}
	switch Shape(op) {
	case ShapeNone:
		return op.String(), nil
	case ShapeReg:
		return fmt.Sprintf("%-8s r%d", op, b[1]), nil
	case ShapeRegLit:
		return fmt.Sprintf("%-8s r%d, %d", op, b[1], I64(b[2:10])), nil
	case ShapeRegFloat:
		return fmt.Sprintf("%-8s r%d, %g", op, b[1], F64(b[2:10])), nil
	case ShapeRegU16:
		return fmt.Sprintf("%-8s r%d, #%d", op, b[1], U16(b[2:4])), nil
	case ShapeRegReg:
		return fmt.Sprintf("%-8s r%d, r%d", op, b[1], b[2]), nil
	case ShapeAddress:
		return fmt.Sprintf("%-8s @%d", op, U16(b[1:3])), nil
	case ShapeRegAddress:
		return fmt.Sprintf("%-8s r%d, @%d", op, b[1], U16(b[2:4])), nil
	case ShapeRegRegReg:
		return fmt.Sprintf("%-8s r%d, r%d, r%d", op, b[1], b[2], b[3]), nil
	case ShapeRegRegLit:
		return fmt.Sprintf("%-8s r%d, r%d, %d", op, b[1], b[2], I64(b[3:11])), nil
	case ShapeRegU8U8:
		return fmt.Sprintf("%-8s r%d, %d, %d", op, b[1], b[2], b[3]), nil
	case ShapeRegU8:
		return fmt.Sprintf("%-8s r%d, %d", op, b[1], b[2]), nil
	default:
		return "", errors.Errorf("isa: unknown opcode byte %d", byte(op))
	}
}

// Listing renders a full human-readable disassembly of code, one line per
// instruction, each prefixed with its byte offset.
func Listing(code []byte) (string, error) {
	lines, err := Disassemble(code)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&sb, "%04d  %s\n", l.Offset, l.Text)
	}
	return sb.String(), nil
}
