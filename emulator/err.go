package emulator

import (
	"errors"

	"github.com/ezrec/emu16/machine"
	"github.com/ezrec/emu16/translate"
)

var f = translate.From

var (
	ErrNotLoaded         = errors.New(f("no program loaded"))
	ErrAssemblerMissing  = errors.New(f("no assembler"))
	ErrMemoryWriteDenied = errors.New(f("machine memory is not writable"))
)

// ErrRuntime indicates the program counter of a failed machine step.
type ErrRuntime struct {
	Pc  int
	Err error
}

func (err *ErrRuntime) Error() string {
	return f("pc %04X %v", err.Pc, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrCompile wraps an assembler failure.
type ErrCompile struct {
	Err error
}

func (err *ErrCompile) Error() string {
	return f("compile: %v", err.Err)
}

func (err *ErrCompile) Unwrap() error {
	return err.Err
}

// ErrInvalidStep reports a machine effect that references a cell or screen
// position outside of the view. Index is the referenced position, Limit the
// size of the view it was checked against.
type ErrInvalidStep struct {
	Effect machine.Effect
	Index  int
	Limit  int
}

func (err *ErrInvalidStep) Error() string {
	return f("invalid step %T: index %v outside of [0, %v)", err.Effect, err.Index, err.Limit)
}
