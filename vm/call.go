package vm

import (
	"rvm/value"

	"github.com/pkg/errors"
)

// scratchRegisters reserves a few extra registers beyond argc on Call, to
// avoid an immediate growth on the callee's first few temporaries.
const scratchRegisters = 5

// execCall implements Call(ra, argc, retc).
func (v *Vm) execCall(frame *CallFrame) bool {
	ra := v.readByte(frame)
	argc := v.readByte(frame)
	retc := v.readByte(frame)

	fnVal, err := v.getReg(frame, ra)
	if err != nil {
		v.errcode = err
		return false
	}
	if fnVal.Kind() != value.Function {
		v.errcode = errors.Wrapf(errCallNotFunction, "register r%d holds %s", ra, fnVal.Kind())
		return false
	}
	fid := fnVal.AsFunction()
	if int(fid) >= len(v.root.Functions) {
		v.errcode = errors.Errorf("vm: function id %d out of range", fid)
		return false
	}
	callee := v.root.Functions[fid]

	if len(v.frames) >= callStackSize {
		v.errcode = errCallStackOverflow
		return false
	}

	callerBase := frame.reg0
	newBase := len(v.regs)
	v.ensureReg(newBase + int(argc) + scratchRegisters - 1)

	for i := 0; i < int(argc); i++ {
		src := callerBase + int(ra) + 1 + i
		if src >= len(v.regs) {
			v.ensureReg(src)
		}
		v.regs[newBase+i] = v.regs[src]
	}

	v.frames = append(v.frames, CallFrame{
		prog:   callee,
		pc:     0,
		argc:   argc,
		retc:   retc,
		reg0:   newBase,
		retReg: ra,
	})
	return true
}

// execRet implements Ret(ra, retc).
func (v *Vm) execRet(frame *CallFrame) bool {
	ra := v.readByte(frame)
	retc := v.readByte(frame)

	if len(v.frames) <= 1 {
		v.errcode = errCallStackUnderrun
		return false
	}

	calleeBase := frame.reg0
	retReg := frame.retReg

	results := make([]value.Value, retc)
	for i := 0; i < int(retc); i++ {
		src := calleeBase + int(ra) + i
		if src >= len(v.regs) {
			v.ensureReg(src)
		}
		results[i] = v.regs[src]
	}

	v.frames = v.frames[:len(v.frames)-1]
	caller := v.current()

	for i, rv := range results {
		v.setReg(caller, retReg+byte(i), rv)
	}

	// Truncate the register stack back to the callee's base, discarding
	// its window and scratch registers.
	if calleeBase < len(v.regs) {
		v.regs = v.regs[:calleeBase]
	}

	return true
}
