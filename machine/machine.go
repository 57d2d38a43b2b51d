// Package machine defines the contract between the emulator view and the
// machine and assembler it drives.
//
// A Machine executes one instruction per Step. Side effects of that
// instruction are reported synchronously, in order, to the sink passed to
// Step, before Step returns.
package machine

const (
	REGISTER_COUNT = 11 // Size of the register file.
	REGISTER_SP    = 9  // Stack pointer register index.
	REGISTER_PC    = 10 // Program counter register index.
)

// Registers is a snapshot of the register file.
type Registers [REGISTER_COUNT]uint16

// Machine is a single-stepped 16-bit machine.
type Machine interface {
	// Load installs a program image and resets the machine state.
	Load(binary []byte) error
	// Step executes exactly one instruction, reporting its effects to sink.
	Step(sink func(Effect)) error
	// ReadMemory returns a copy of length words starting at offset.
	ReadMemory(offset, length int) []uint16
	// ReadRegisters returns the current register file.
	ReadRegisters() Registers
}

// MemoryWriter is implemented by machines whose memory can be preloaded.
type MemoryWriter interface {
	WriteMemory(offset int, words []uint16) error
}

// Assembler turns source text into a program image and its symbol table.
type Assembler interface {
	// Compile returns the binary image of source.
	Compile(source string) ([]byte, error)
	// Symbols returns the 'name = address' symbol table of source.
	Symbols(source string) (string, error)
}
