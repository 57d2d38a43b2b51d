package mif

import (
	"errors"

	"github.com/ezrec/emu16/translate"
)

var f = translate.From

var (
	ErrSyntax        = errors.New(f("assignment syntax"))
	ErrRangeReversed = errors.New(f("range start after end"))
)

// ErrDecode locates a malformed line in a MIF text.
type ErrDecode struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrDecode) Error() string {
	return f("mif line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrDecode) Unwrap() error {
	return err.Err
}

// ErrOutOfRange reports an address outside of the addressable memory.
type ErrOutOfRange struct {
	Address int
	Limit   int
}

func (err *ErrOutOfRange) Error() string {
	return f("address %#x outside [0, %#x)", err.Address, err.Limit)
}
