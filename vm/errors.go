package vm

import "github.com/pkg/errors"

var (
	errEmptyProgram      = errors.New("vm: program has no code")
	errUnknownOpcode     = errors.New("vm: unknown opcode byte")
	errCodeBoundsOverrun = errors.New("vm: read past end of code")
	errCallNotFunction   = errors.New("vm: Call target register does not hold a Function")
	errCallStackOverflow = errors.New("vm: call stack exceeds 256 frames")
	errCallStackUnderrun = errors.New("vm: Ret popped the root frame")
	errSegfault          = errors.New("vm: internal fault")
)
