package vm

import (
	"fmt"
	"time"

	"rvm/value"
)

// printValue implements the Print opcode's diagnostic format:
// "[Print] val: (...)" followed by a newline, written unconditionally to
// stdout regardless of any logrus configuration the host may have set up
// for internal VM tracing.
func printValue(v value.Value) {
	fmt.Printf("[Print] val: (%s)\n", v)
}

// clockValue implements the Clock opcode: milliseconds since the Unix
// epoch.
func clockValue() value.Value {
	return value.NewInt(time.Now().UnixMilli())
}
