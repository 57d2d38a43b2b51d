package region

import (
	"errors"

	"github.com/ezrec/emu16/translate"
)

var f = translate.From

var (
	ErrOrder = errors.New(f("symbols out of address order"))
)

// ErrConflict reports two symbols starting at the same address.
type ErrConflict struct {
	Name    string
	Other   string
	Address int
}

func (err *ErrConflict) Error() string {
	return f("region %v conflicts with %v at %#04x", err.Name, err.Other, err.Address)
}

// ErrOutOfRange reports a symbol outside of the mapped memory.
type ErrOutOfRange struct {
	Name    string
	Address int
	Limit   int
}

func (err *ErrOutOfRange) Error() string {
	return f("region %v at %#x outside [0, %#x)", err.Name, err.Address, err.Limit)
}

// ErrSymbolSyntax locates a malformed line of a symbol table.
type ErrSymbolSyntax struct {
	LineNo int
	Line   string
}

func (err *ErrSymbolSyntax) Error() string {
	return f("symbol line %d '%v' is not 'name = address'", err.LineNo, err.Line)
}
