// Package vm executes a compiled isa.Program against a register stack and
// a call-frame stack, implementing the Call/Ret register-window protocol.
package vm

import (
	"rvm/isa"
	"rvm/value"

	"github.com/sirupsen/logrus"
)

// Options tunes VM behavior that has no bearing on program semantics.
type Options struct {
	// InitialRegisterStackSize pre-grows the register stack to amortize
	// early allocation.
	InitialRegisterStackSize int
	// DisableGCDuringRun disables the garbage collector for the duration
	// of Run, restoring the prior GOGC percentage afterward. Execution
	// allocates everything up front, so a GC pause mid-dispatch is pure
	// overhead.
	DisableGCDuringRun bool
	Log                *logrus.Logger
}

// DefaultOptions returns the VM's recommended defaults.
func DefaultOptions() Options {
	return Options{InitialRegisterStackSize: 150, DisableGCDuringRun: true}
}

// Vm holds one program's execution state. Not safe for concurrent use.
type Vm struct {
	root    *isa.Program
	regs    []value.Value
	frames  []CallFrame
	errcode error
	log     *logrus.Logger
}

// New constructs a Vm over root. root's code must be non-empty.
func New(root *isa.Program, opts Options) (*Vm, error) {
	if len(root.Code) == 0 {
		return nil, errEmptyProgram
	}
	log := opts.Log
	if log == nil {
		log = logrus.New()
		log.SetOutput(discardWriter{})
	}
	v := &Vm{root: root, log: log}
	v.frames = append(v.frames, CallFrame{prog: root, pc: 0, reg0: 0, retReg: 0})
	size := opts.InitialRegisterStackSize
	if size <= 0 {
		size = 1
	}
	v.regs = make([]value.Value, size)
	for i := range v.regs {
		v.regs[i] = value.Zero
	}
	return v, nil
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func (v *Vm) current() *CallFrame {
	return &v.frames[len(v.frames)-1]
}

// ensureReg grows the register stack with default Int(0) values up to and
// including abs: writing to a register past the current stack extends it.
func (v *Vm) ensureReg(abs int) {
	if abs < len(v.regs) {
		return
	}
	grown := make([]value.Value, abs+1)
	copy(grown, v.regs)
	for i := len(v.regs); i <= abs; i++ {
		grown[i] = value.Zero
	}
	v.regs = grown
}

func (v *Vm) setReg(frame *CallFrame, r byte, val value.Value) {
	abs := frame.reg0 + int(r)
	v.ensureReg(abs)
	v.regs[abs] = val
}

func (v *Vm) getReg(frame *CallFrame, r byte) (value.Value, error) {
	abs := frame.reg0 + int(r)
	if abs >= len(v.regs) {
		return value.Value{}, errCodeBoundsOverrun
	}
	return v.regs[abs], nil
}
