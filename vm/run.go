package vm

import (
	"os"
	"runtime/debug"
	"strconv"

	"github.com/pkg/errors"
)

func recoverInto(v *Vm) func() {
	return func() {
		if r := recover(); r != nil {
			if v.errcode == nil {
				v.errcode = errors.Wrapf(errSegfault, "recovered panic: %v", r)
			}
		}
	}
}

// Run drives the dispatch loop to completion, returning the terminal error
// (nil on a normal Halt). Defense-in-depth only: expected traps set
// v.errcode and exit step() cleanly; the recover() here is a backstop for
// anything that reaches a genuine Go panic (e.g. a malformed Program built
// outside the compiler).
func (v *Vm) Run(opts Options) (err error) {
	defer func() {
		if err == nil && v.errcode != nil {
			err = errors.Wrapf(v.errcode, "at frame %d, pc %d", len(v.frames)-1, v.current().pc)
		}
	}()
	defer recoverInto(v)()

	if opts.DisableGCDuringRun {
		restore := disableGC()
		defer restore()
	}

	for v.step() {
	}

	if v.errcode != nil {
		return errors.Wrapf(v.errcode, "at frame %d, pc %d", len(v.frames)-1, v.current().pc)
	}
	return nil
}

// disableGC turns the collector off for the duration of a run: memory is
// allocated up front (compile time and initial register-stack growth), so
// a GC pause mid-dispatch is pure overhead. Returns a function that
// restores the prior GOGC percentage.
func disableGC() func() {
	key, ok := os.LookupEnv("GOGC")
	percent := int64(100)
	if ok {
		if parsed, err := strconv.ParseInt(key, 10, 32); err == nil {
			percent = parsed
		}
	}
	debug.SetGCPercent(-1)
	return func() { debug.SetGCPercent(int(percent)) }
}
