package vm

import "rvm/isa"

// CallFrame is one activation on the call stack. It carries the Program
// actually executing (its own code, own constant pool) and the register
// window it was given - the function table used to resolve Call/LoadF
// targets always comes from the VM's single root Program, never from a
// frame's own Program (see DESIGN.md "flat function table").
type CallFrame struct {
	prog   *isa.Program
	pc     int
	argc   byte
	retc   byte
	reg0   int
	retReg byte
}

const callStackSize = 256
