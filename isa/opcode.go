// Package isa defines the instruction set, the binary Program
// representation, and a disassembler used by both the compiler and the VM.
package isa

// Opcode is the single byte that leads every instruction. The ordering
// below is the stable encoding; appending new opcodes must go at the end.
type Opcode byte

const (
	Halt Opcode = iota
	Nop
	Load
	LoadTrue
	LoadFalse
	LoadFloat
	LoadF
	LoadConstant
	Move
	Jmp
	JmpIfTrue
	JmpIfFalse
	Add
	Sub
	Mul
	Div
	Lt
	Addl
	Subl
	Mull
	Divl
	Ltl
	Concat
	Call
	Ret
	Clock
	Print
)

func (op Opcode) String() string {
	switch op {
	case Halt:
		return "Halt"
	case Nop:
		return "Nop"
	case Load:
		return "Load"
	case LoadTrue:
		return "LoadTrue"
	case LoadFalse:
		return "LoadFalse"
	case LoadFloat:
		return "LoadFloat"
	case LoadF:
		return "LoadF"
	case LoadConstant:
		return "LoadConstant"
	case Move:
		return "Move"
	case Jmp:
		return "Jmp"
	case JmpIfTrue:
		return "JmpIfTrue"
	case JmpIfFalse:
		return "JmpIfFalse"
	case Add:
		return "Add"
	case Sub:
		return "Sub"
	case Mul:
		return "Mul"
	case Div:
		return "Div"
	case Lt:
		return "Lt"
	case Addl:
		return "Addl"
	case Subl:
		return "Subl"
	case Mull:
		return "Mull"
	case Divl:
		return "Divl"
	case Ltl:
		return "Ltl"
	case Concat:
		return "Concat"
	case Call:
		return "Call"
	case Ret:
		return "Ret"
	case Clock:
		return "Clock"
	case Print:
		return "Print"
	default:
		return "???"
	}
}

// OperandShape enumerates the fixed operand layout of each opcode, used by
// both the assembler's sizing and the disassembler's decode step.
type OperandShape int

const (
	ShapeNone          OperandShape = iota // Halt, Nop
	ShapeReg                               // LoadTrue, LoadFalse, Clock, Print: Reg
	ShapeRegLit                            // Load: Reg, Lit(i64)
	ShapeRegFloat                          // LoadFloat: Reg, f64
	ShapeRegU16                            // LoadF, LoadConstant: Reg, u16
	ShapeRegReg                            // Move: Reg, Reg
	ShapeAddress                           // Jmp: Address
	ShapeRegAddress                        // JmpIfTrue, JmpIfFalse: Reg, Address
	ShapeRegRegReg                         // Add/Sub/Mul/Div/Lt: Reg, Reg, Reg
	ShapeRegRegLit                         // Addl/Subl/Mull/Divl/Ltl: Reg, Reg, Lit(i64)
	ShapeRegU8U8                           // Call: Reg, u8, u8
	ShapeRegU8                             // Ret: Reg, u8
)

// Shape returns the operand layout for op.
func Shape(op Opcode) OperandShape {
	switch op {
	case Halt, Nop:
		return ShapeNone
	case LoadTrue, LoadFalse, Clock, Print:
		return ShapeReg
	case Load:
		return ShapeRegLit
	case LoadFloat:
		return ShapeRegFloat
	case LoadF, LoadConstant:
		return ShapeRegU16
	case Move:
		return ShapeRegReg
	case Jmp:
		return ShapeAddress
	case JmpIfTrue, JmpIfFalse:
		return ShapeRegAddress
	case Add, Sub, Mul, Div, Lt:
		return ShapeRegRegReg
	case Addl, Subl, Mull, Divl, Ltl:
		return ShapeRegRegLit
	case Concat:
		return ShapeRegRegReg
	case Call:
		return ShapeRegU8U8
	case Ret:
		return ShapeRegU8
	default:
		return ShapeNone
	}
}

// Size returns the total encoded instruction length (opcode byte included)
// for op.
func Size(op Opcode) int {
	switch Shape(op) {
	case ShapeNone:
		return 1
	case ShapeReg:
		return 2
	case ShapeRegLit:
		return 1 + 1 + 8
	case ShapeRegFloat:
		return 1 + 1 + 8
	case ShapeRegU16:
		return 1 + 1 + 2
	case ShapeRegReg:
		return 1 + 1 + 1
	case ShapeAddress:
		return 1 + 2
	case ShapeRegAddress:
		return 1 + 1 + 2
	case ShapeRegRegReg:
		return 1 + 1 + 1 + 1
	case ShapeRegRegLit:
		return 1 + 1 + 1 + 8
	case ShapeRegU8U8:
		return 1 + 1 + 1 + 1
	case ShapeRegU8:
		return 1 + 1 + 1
	default:
		return 1
	}
}
