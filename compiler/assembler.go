package compiler

import "rvm/isa"

// Assembler is an append-only bytecode emitter bound to one Program's code
// buffer, with in-place patch-by-offset for the u16 addresses that
// forward control flow needs (an if/while condition's jump target isn't
// known until its body has been compiled).
type Assembler struct {
	code []byte
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Len is the current number of emitted bytes, used both as "current code
// length" when patching a forward jump and as the loop-head address when
// emitting a backward Jmp.
func (a *Assembler) Len() int { return len(a.code) }

// Code returns the assembled bytes. The caller must not emit further
// instructions after taking this reference.
func (a *Assembler) Code() []byte { return a.code }

func (a *Assembler) emitByte(b byte) {
	a.code = append(a.code, b)
}

func (a *Assembler) emitU16(v uint16) {
	var b [2]byte
	isa.PutU16(b[:], v)
	a.code = append(a.code, b[:]...)
}

func (a *Assembler) emitI64(v int64) {
	var b [8]byte
	isa.PutI64(b[:], v)
	a.code = append(a.code, b[:]...)
}

func (a *Assembler) emitF64(v float64) {
	var b [8]byte
	isa.PutF64(b[:], v)
	a.code = append(a.code, b[:]...)
}

// patchU16 overwrites the u16 at byte offset off, used once a forward
// jump's real target is known.
func (a *Assembler) patchU16(off int, v uint16) {
	isa.PutU16(a.code[off:off+2], v)
}

const addressPlaceholder = 0xFFFF

func (a *Assembler) Halt() { a.emitByte(byte(isa.Halt)) }
func (a *Assembler) Nop()  { a.emitByte(byte(isa.Nop)) }

func (a *Assembler) Load(r byte, lit int64) {
	a.emitByte(byte(isa.Load))
	a.emitByte(r)
	a.emitI64(lit)
}

func (a *Assembler) LoadTrue(r byte)  { a.emitByte(byte(isa.LoadTrue)); a.emitByte(r) }
func (a *Assembler) LoadFalse(r byte) { a.emitByte(byte(isa.LoadFalse)); a.emitByte(r) }

func (a *Assembler) LoadFloat(r byte, v float64) {
	a.emitByte(byte(isa.LoadFloat))
	a.emitByte(r)
	a.emitF64(v)
}

func (a *Assembler) LoadF(r byte, id uint16) {
	a.emitByte(byte(isa.LoadF))
	a.emitByte(r)
	a.emitU16(id)
}

func (a *Assembler) LoadConstant(r byte, id uint16) {
	a.emitByte(byte(isa.LoadConstant))
	a.emitByte(r)
	a.emitU16(id)
}

func (a *Assembler) Move(dst, src byte) {
	a.emitByte(byte(isa.Move))
	a.emitByte(dst)
	a.emitByte(src)
}

// Jmp emits an unconditional jump to a known address (used for the
// backward edge of a while loop, where the target is already known).
func (a *Assembler) Jmp(addr uint16) {
	a.emitByte(byte(isa.Jmp))
	a.emitU16(addr)
}

// jmpPlaceholder emits a jump opcode with a placeholder address and
// returns the byte offset of that placeholder, to be overwritten later via
// Patch once the real target is known.
func (a *Assembler) jmpPlaceholder(op isa.Opcode, r byte, hasReg bool) int {
	a.emitByte(byte(op))
	if hasReg {
		a.emitByte(r)
	}
	off := a.Len()
	a.emitU16(addressPlaceholder)
	return off
}

func (a *Assembler) JmpIfTruePlaceholder(r byte) int {
	return a.jmpPlaceholder(isa.JmpIfTrue, r, true)
}

func (a *Assembler) JmpIfFalsePlaceholder(r byte) int {
	return a.jmpPlaceholder(isa.JmpIfFalse, r, true)
}

// Patch overwrites the address placeholder at offset off with the current
// code length (the instruction boundary the jump should land on).
func (a *Assembler) Patch(off int) {
	a.patchU16(off, uint16(a.Len()))
}

// PatchTo overwrites the address placeholder at offset off with an
// explicit target address.
func (a *Assembler) PatchTo(off int, addr uint16) {
	a.patchU16(off, addr)
}

func (a *Assembler) regReg3(op isa.Opcode, dst, x, y byte) {
	a.emitByte(byte(op))
	a.emitByte(dst)
	a.emitByte(x)
	a.emitByte(y)
}

func (a *Assembler) Add(dst, x, y byte) { a.regReg3(isa.Add, dst, x, y) }
func (a *Assembler) Sub(dst, x, y byte) { a.regReg3(isa.Sub, dst, x, y) }
func (a *Assembler) Mul(dst, x, y byte) { a.regReg3(isa.Mul, dst, x, y) }
func (a *Assembler) Div(dst, x, y byte) { a.regReg3(isa.Div, dst, x, y) }
func (a *Assembler) Lt(dst, x, y byte)  { a.regReg3(isa.Lt, dst, x, y) }
func (a *Assembler) Concat(dst, x, y byte) { a.regReg3(isa.Concat, dst, x, y) }

func (a *Assembler) regRegLit(op isa.Opcode, dst, x byte, lit int64) {
	a.emitByte(byte(op))
	a.emitByte(dst)
	a.emitByte(x)
	a.emitI64(lit)
}

func (a *Assembler) Addl(dst, x byte, lit int64) { a.regRegLit(isa.Addl, dst, x, lit) }
func (a *Assembler) Subl(dst, x byte, lit int64) { a.regRegLit(isa.Subl, dst, x, lit) }
func (a *Assembler) Mull(dst, x byte, lit int64) { a.regRegLit(isa.Mull, dst, x, lit) }
func (a *Assembler) Divl(dst, x byte, lit int64) { a.regRegLit(isa.Divl, dst, x, lit) }
func (a *Assembler) Ltl(dst, x byte, lit int64)  { a.regRegLit(isa.Ltl, dst, x, lit) }

func (a *Assembler) Call(ra byte, argc, retc byte) {
	a.emitByte(byte(isa.Call))
	a.emitByte(ra)
	a.emitByte(argc)
	a.emitByte(retc)
}

func (a *Assembler) Ret(ra byte, retc byte) {
	a.emitByte(byte(isa.Ret))
	a.emitByte(ra)
	a.emitByte(retc)
}

func (a *Assembler) Clock(r byte) { a.emitByte(byte(isa.Clock)); a.emitByte(r) }
func (a *Assembler) Print(r byte) { a.emitByte(byte(isa.Print)); a.emitByte(r) }
