package isa

import "github.com/pkg/errors"

var (
	errTooManyFunctions = errors.New("isa: function table exceeds 65535 entries")
	errTooManyConstants = errors.New("isa: constant pool exceeds 65535 entries")
	errAddressOverflow  = errors.New("isa: code exceeds 65535 bytes")
)
