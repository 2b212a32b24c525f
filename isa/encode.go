package isa

import (
	"encoding/binary"
	"math"
)

// Low-level little-endian encode/decode helpers shared by the assembler
// (compiler package) and the dispatch loop (vm package). Kept here, next
// to the opcode table they serialize, rather than duplicated in both
// consumers.

func PutU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func U16(b []byte) uint16       { return binary.LittleEndian.Uint16(b) }

func PutI64(b []byte, v int64) { binary.LittleEndian.PutUint64(b, uint64(v)) }
func I64(b []byte) int64       { return int64(binary.LittleEndian.Uint64(b)) }

func PutF64(b []byte, v float64) { binary.LittleEndian.PutUint64(b, math.Float64bits(v)) }
func F64(b []byte) float64       { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }
