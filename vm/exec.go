package vm

import (
	"rvm/isa"
	"rvm/value"

	"github.com/pkg/errors"
)

// step decodes and executes a single instruction under the current frame.
// This is considered a tight loop: avoid allocating on paths that run once
// per opcode.
func (v *Vm) step() bool {
	frame := v.current()
	code := frame.prog.Code
	if frame.pc >= len(code) {
		v.errcode = errCodeBoundsOverrun
		return false
	}

	op := isa.Opcode(code[frame.pc])
	frame.pc++

	switch op {
	case isa.Halt:
		return false

	case isa.Nop:

	case isa.Load:
		r := v.readByte(frame)
		lit := v.readI64(frame)
		v.setReg(frame, r, value.NewInt(lit))

	case isa.LoadTrue:
		r := v.readByte(frame)
		v.setReg(frame, r, value.NewBool(true))

	case isa.LoadFalse:
		r := v.readByte(frame)
		v.setReg(frame, r, value.NewBool(false))

	case isa.LoadFloat:
		r := v.readByte(frame)
		f := v.readF64(frame)
		v.setReg(frame, r, value.NewFloat(f))

	case isa.LoadF:
		r := v.readByte(frame)
		id := v.readU16(frame)
		v.setReg(frame, r, value.NewFunction(id))

	case isa.LoadConstant:
		r := v.readByte(frame)
		id := v.readU16(frame)
		if int(id) >= len(frame.prog.Constants) {
			v.errcode = errors.Errorf("vm: constant id %d out of range", id)
			return false
		}
		v.setReg(frame, r, frame.prog.Constants[id])

	case isa.Move:
		dst := v.readByte(frame)
		src := v.readByte(frame)
		sv, err := v.getReg(frame, src)
		if err != nil {
			v.errcode = err
			return false
		}
		v.setReg(frame, dst, sv)

	case isa.Jmp:
		addr := v.readU16(frame)
		frame.pc = int(addr)

	case isa.JmpIfTrue:
		r := v.readByte(frame)
		addr := v.readU16(frame)
		rv, err := v.getReg(frame, r)
		if err != nil {
			v.errcode = err
			return false
		}
		if rv.Kind() == value.Bool && rv.AsBool() {
			frame.pc = int(addr)
		}

	case isa.JmpIfFalse:
		r := v.readByte(frame)
		addr := v.readU16(frame)
		rv, err := v.getReg(frame, r)
		if err != nil {
			v.errcode = err
			return false
		}
		if rv.Kind() == value.Bool && !rv.AsBool() {
			frame.pc = int(addr)
		}

	case isa.Add, isa.Sub, isa.Mul, isa.Div, isa.Lt, isa.Concat:
		if !v.execRegOp(frame, op) {
			return false
		}

	case isa.Addl, isa.Subl, isa.Mull, isa.Divl, isa.Ltl:
		if !v.execImmediateOp(frame, op) {
			return false
		}

	case isa.Call:
		if !v.execCall(frame) {
			return false
		}

	case isa.Ret:
		if !v.execRet(frame) {
			return false
		}

	case isa.Clock:
		r := v.readByte(frame)
		v.setReg(frame, r, clockValue())

	case isa.Print:
		r := v.readByte(frame)
		rv, err := v.getReg(frame, r)
		if err != nil {
			v.errcode = err
			return false
		}
		printValue(rv)

	default:
		v.errcode = errors.Wrapf(errUnknownOpcode, "byte %d", byte(op))
		return false
	}

	return true
}

func (v *Vm) readByte(frame *CallFrame) byte {
	b := frame.prog.Code[frame.pc]
	frame.pc++
	return b
}

func (v *Vm) readU16(frame *CallFrame) uint16 {
	b := frame.prog.Code[frame.pc : frame.pc+2]
	frame.pc += 2
	return isa.U16(b)
}

func (v *Vm) readI64(frame *CallFrame) int64 {
	b := frame.prog.Code[frame.pc : frame.pc+8]
	frame.pc += 8
	return isa.I64(b)
}

func (v *Vm) readF64(frame *CallFrame) float64 {
	b := frame.prog.Code[frame.pc : frame.pc+8]
	frame.pc += 8
	return isa.F64(b)
}

func (v *Vm) execRegOp(frame *CallFrame, op isa.Opcode) bool {
	dst := v.readByte(frame)
	x := v.readByte(frame)
	y := v.readByte(frame)
	a, err := v.getReg(frame, x)
	if err != nil {
		v.errcode = err
		return false
	}
	b, err := v.getReg(frame, y)
	if err != nil {
		v.errcode = err
		return false
	}
	result, err := applyBinOp(op, a, b)
	if err != nil {
		v.errcode = err
		return false
	}
	v.setReg(frame, dst, result)
	return true
}

func (v *Vm) execImmediateOp(frame *CallFrame, op isa.Opcode) bool {
	dst := v.readByte(frame)
	x := v.readByte(frame)
	lit := v.readI64(frame)
	a, err := v.getReg(frame, x)
	if err != nil {
		v.errcode = err
		return false
	}
	result, err := applyImmediateOp(op, a, lit)
	if err != nil {
		v.errcode = err
		return false
	}
	v.setReg(frame, dst, result)
	return true
}

func applyBinOp(op isa.Opcode, a, b value.Value) (value.Value, error) {
	switch op {
	case isa.Add:
		return value.Add(a, b)
	case isa.Sub:
		return value.Sub(a, b)
	case isa.Mul:
		return value.Mul(a, b)
	case isa.Div:
		return value.Div(a, b)
	case isa.Lt:
		lt, err := value.Less(a, b)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewBool(lt), nil
	case isa.Concat:
		return value.Concat(a, b)
	default:
		return value.Value{}, errors.Errorf("vm: %s is not a register binary op", op)
	}
}

func applyImmediateOp(op isa.Opcode, a value.Value, lit int64) (value.Value, error) {
	switch op {
	case isa.Addl:
		return value.AddLit(a, lit)
	case isa.Subl:
		return value.SubLit(a, lit)
	case isa.Mull:
		return value.MulLit(a, lit)
	case isa.Divl:
		return value.DivLit(a, lit)
	case isa.Ltl:
		lt, err := value.LessLit(a, lit)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewBool(lt), nil
	default:
		return value.Value{}, errors.Errorf("vm: %s is not an immediate op", op)
	}
}
