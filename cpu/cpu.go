// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"log"

	"github.com/ezrec/emu16/machine"
)

const (
	MEMORY_SIZE = 1 << 16 // Words of memory.
	SP_RESET    = 0xffff  // Initial stack pointer, the next free stack slot.
)

// Cpu is the simulation context of the 16-bit machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory   []uint16          // Word addressed memory.
	Register machine.Registers // Register file.
	Halted   bool              // Set once a halt instruction executed.

	Ticks int // Instructions executed since reset.
}

var _ machine.Machine = (*Cpu)(nil)
var _ machine.MemoryWriter = (*Cpu)(nil)

// NewCpu creates a new CPU with cleared memory.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Memory: make([]uint16, MEMORY_SIZE),
	}

	cpu.Reset()

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	for n, val := range cpu.Register {
		text += fmt.Sprintf("% 3s: %04X\n", CodeReg(n).String(), val)
	}

	return
}

// Reset the CPU state.
// - Clears the registers.
// - Sets the stack pointer to the top of memory.
// - Clears the halted state and the tick counter.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.Register[REG_SP] = SP_RESET
	cpu.Halted = false
	cpu.Ticks = 0
}

// Load clears memory, copies in a big-endian binary image at address 0,
// and resets the CPU.
func (cpu *Cpu) Load(binary []byte) (err error) {
	if len(binary) > 2*len(cpu.Memory) {
		err = ErrProgramSize
		return
	}

	clear(cpu.Memory)
	for n, b := range binary {
		if n&1 == 0 {
			cpu.Memory[n/2] = uint16(b) << 8
		} else {
			cpu.Memory[n/2] |= uint16(b)
		}
	}

	cpu.Reset()

	if cpu.Verbose {
		log.Printf("cpu: loaded %d words", (len(binary)+1)/2)
	}

	return
}

// ReadMemory returns a copy of memory, clipped to the memory size.
func (cpu *Cpu) ReadMemory(offset, length int) (words []uint16) {
	offset = max(0, min(offset, len(cpu.Memory)))
	end := max(offset, min(offset+length, len(cpu.Memory)))

	words = make([]uint16, end-offset)
	copy(words, cpu.Memory[offset:end])

	return
}

// WriteMemory copies words into memory at offset.
func (cpu *Cpu) WriteMemory(offset int, words []uint16) (err error) {
	if offset < 0 || offset+len(words) > len(cpu.Memory) {
		err = ErrAddressRange
		return
	}

	copy(cpu.Memory[offset:], words)

	return
}

// ReadRegisters returns the register file.
func (cpu *Cpu) ReadRegisters() machine.Registers {
	return cpu.Register
}

// fetch reads the word at pc and advances pc.
func (cpu *Cpu) fetch() (word uint16) {
	pc := cpu.Register[REG_PC]
	word = cpu.Memory[int(pc)%len(cpu.Memory)]
	cpu.Register[REG_PC] = pc + 1
	return
}

// store writes memory and reports the change.
func (cpu *Cpu) store(sink func(machine.Effect), address, value uint16) {
	cpu.Memory[int(address)%len(cpu.Memory)] = value
	if sink != nil {
		sink(machine.Store{Address: address, Value: value})
	}
}

// push stores value at sp, then decrements sp.
func (cpu *Cpu) push(sink func(machine.Effect), value uint16) {
	sp := cpu.Register[REG_SP]
	cpu.store(sink, sp, value)
	cpu.Register[REG_SP] = sp - 1
}

// pop increments sp, then reads the value at sp.
func (cpu *Cpu) pop() (value uint16) {
	sp := cpu.Register[REG_SP] + 1
	cpu.Register[REG_SP] = sp
	value = cpu.Memory[int(sp)%len(cpu.Memory)]
	return
}

// setFlags updates the flags register from an ALU result.
func (cpu *Cpu) setFlags(result uint16, carry bool) {
	var fl uint16
	if result == 0 {
		fl |= FLAG_Z
	}
	if carry {
		fl |= FLAG_C
	}
	cpu.Register[REG_FL] = fl
}

// Step executes a single instruction, reporting memory stores, character
// output and halting to sink as they happen.
func (cpu *Cpu) Step(sink func(machine.Effect)) (err error) {
	if cpu.Halted {
		err = ErrHalted
		return
	}

	pc := cpu.Register[REG_PC]
	code := Code{Word: cpu.fetch()}
	op, rd, rs, mode := code.Decode()

	if !op.Valid() || mode > MODE_IMM || int(rd) >= machine.REGISTER_COUNT || int(rs) >= machine.REGISTER_COUNT {
		cpu.Register[REG_PC] = pc
		err = &ErrOpcode{Pc: pc, Word: code.Word}
		return
	}

	var src uint16
	if mode == MODE_IMM {
		imm := cpu.fetch()
		code.Immediates = []uint16{imm}
		src = imm
	} else {
		src = cpu.Register[rs]
	}

	if cpu.Verbose {
		log.Printf("%04x: %v", pc, code)
	}

	fl := cpu.Register[REG_FL]
	dst := cpu.Register[rd]

	switch op {
	case OP_HALT:
		cpu.Register[REG_PC] = pc
		cpu.Halted = true
		if sink != nil {
			sink(machine.Halt{})
		}
	case OP_NOP:
	case OP_MOV:
		cpu.Register[rd] = src
	case OP_LOAD:
		cpu.Register[rd] = cpu.Memory[int(src)%len(cpu.Memory)]
	case OP_STORE:
		cpu.store(sink, src, dst)
	case OP_ADD:
		sum := uint32(dst) + uint32(src)
		cpu.Register[rd] = uint16(sum)
		cpu.setFlags(uint16(sum), sum > 0xffff)
	case OP_SUB, OP_CMP:
		diff := dst - src
		if op == OP_SUB {
			cpu.Register[rd] = diff
		}
		cpu.setFlags(diff, dst < src)
	case OP_AND:
		cpu.Register[rd] = dst & src
		cpu.setFlags(dst&src, false)
	case OP_OR:
		cpu.Register[rd] = dst | src
		cpu.setFlags(dst|src, false)
	case OP_XOR:
		cpu.Register[rd] = dst ^ src
		cpu.setFlags(dst^src, false)
	case OP_SHL:
		wide := uint32(dst) << (src & 0xf)
		cpu.Register[rd] = uint16(wide)
		cpu.setFlags(uint16(wide), wide&0x10000 != 0)
	case OP_SHR:
		shift := src & 0xf
		carry := shift > 0 && (dst>>(shift-1))&1 != 0
		cpu.Register[rd] = dst >> shift
		cpu.setFlags(dst>>shift, carry)
	case OP_JMP:
		cpu.Register[REG_PC] = src
	case OP_JZ:
		if fl&FLAG_Z != 0 {
			cpu.Register[REG_PC] = src
		}
	case OP_JNZ:
		if fl&FLAG_Z == 0 {
			cpu.Register[REG_PC] = src
		}
	case OP_JC:
		if fl&FLAG_C != 0 {
			cpu.Register[REG_PC] = src
		}
	case OP_JNC:
		if fl&FLAG_C == 0 {
			cpu.Register[REG_PC] = src
		}
	case OP_PUSH:
		cpu.push(sink, src)
	case OP_POP:
		cpu.Register[rd] = cpu.pop()
	case OP_CALL:
		cpu.push(sink, cpu.Register[REG_PC])
		cpu.Register[REG_PC] = src
	case OP_RET:
		cpu.Register[REG_PC] = cpu.pop()
	case OP_OUT:
		if sink != nil {
			sink(machine.Write{Char: dst, Offset: src})
		}
	}

	cpu.Ticks++

	return
}
