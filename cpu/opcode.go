package cpu

import (
	"fmt"
)

// CodeOp is an operation code.
type CodeOp int

const (
	OP_HALT  = CodeOp(0x00) // halt
	OP_NOP   = CodeOp(0x01) // nop
	OP_MOV   = CodeOp(0x02) // mov rd src
	OP_LOAD  = CodeOp(0x03) // load rd [src]
	OP_STORE = CodeOp(0x04) // store rd [src]
	OP_ADD   = CodeOp(0x05) // add rd src
	OP_SUB   = CodeOp(0x06) // sub rd src
	OP_AND   = CodeOp(0x07) // and rd src
	OP_OR    = CodeOp(0x08) // or rd src
	OP_XOR   = CodeOp(0x09) // xor rd src
	OP_SHL   = CodeOp(0x0a) // shl rd src
	OP_SHR   = CodeOp(0x0b) // shr rd src
	OP_CMP   = CodeOp(0x0c) // cmp rd src
	OP_JMP   = CodeOp(0x0d) // jmp src
	OP_JZ    = CodeOp(0x0e) // jz src
	OP_JNZ   = CodeOp(0x0f) // jnz src
	OP_JC    = CodeOp(0x10) // jc src
	OP_JNC   = CodeOp(0x11) // jnc src
	OP_PUSH  = CodeOp(0x12) // push src
	OP_POP   = CodeOp(0x13) // pop rd
	OP_CALL  = CodeOp(0x14) // call src
	OP_RET   = CodeOp(0x15) // ret
	OP_OUT   = CodeOp(0x16) // out rd src
)

var opNames = map[CodeOp]string{
	OP_HALT:  "halt",
	OP_NOP:   "nop",
	OP_MOV:   "mov",
	OP_LOAD:  "load",
	OP_STORE: "store",
	OP_ADD:   "add",
	OP_SUB:   "sub",
	OP_AND:   "and",
	OP_OR:    "or",
	OP_XOR:   "xor",
	OP_SHL:   "shl",
	OP_SHR:   "shr",
	OP_CMP:   "cmp",
	OP_JMP:   "jmp",
	OP_JZ:    "jz",
	OP_JNZ:   "jnz",
	OP_JC:    "jc",
	OP_JNC:   "jnc",
	OP_PUSH:  "push",
	OP_POP:   "pop",
	OP_CALL:  "call",
	OP_RET:   "ret",
	OP_OUT:   "out",
}

// Valid returns true for a defined operation code.
func (op CodeOp) Valid() bool {
	_, ok := opNames[op]
	return ok
}

func (op CodeOp) String() string {
	name, ok := opNames[op]
	if !ok {
		return fmt.Sprintf("op%02x", int(op))
	}
	return name
}

// CodeReg is a register index.
type CodeReg int

const (
	REG_R0 = CodeReg(0)
	REG_R1 = CodeReg(1)
	REG_R2 = CodeReg(2)
	REG_R3 = CodeReg(3)
	REG_R4 = CodeReg(4)
	REG_R5 = CodeReg(5)
	REG_R6 = CodeReg(6)
	REG_R7 = CodeReg(7)
	REG_FL = CodeReg(8)  // Flags.
	REG_SP = CodeReg(9)  // Stack pointer.
	REG_PC = CodeReg(10) // Program counter.
)

var regNames = [...]string{"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7", "fl", "sp", "pc"}

func (reg CodeReg) String() string {
	if reg < 0 || int(reg) >= len(regNames) {
		return fmt.Sprintf("r?%d", int(reg))
	}
	return regNames[reg]
}

// Flag bits of REG_FL.
const (
	FLAG_Z = uint16(1 << 0) // Result was zero.
	FLAG_C = uint16(1 << 1) // Carry, borrow or shifted-out bit.
)

// CodeMode selects the source operand of an instruction.
type CodeMode int

const (
	MODE_REG = CodeMode(0) // Source is register rs.
	MODE_IMM = CodeMode(1) // Source is the following word.
)

// Code is a single instruction word with its optional immediate.
type Code struct {
	Word       uint16
	Immediates []uint16
}

// MakeCode creates an instruction. With an immediate the source is the
// immediate, otherwise it is register rs.
func MakeCode(op CodeOp, rd, rs CodeReg, imms ...uint16) Code {
	mode := MODE_REG
	if len(imms) > 0 {
		mode = MODE_IMM
		rs = 0
	}

	return Code{
		Word:       (uint16(op) << 10) | ((uint16(rd) & 0xf) << 6) | ((uint16(rs) & 0xf) << 2) | uint16(mode),
		Immediates: imms,
	}
}

// MakeData creates a raw data word.
func MakeData(value uint16) Code {
	return Code{Word: value}
}

// Decode returns the fields of the instruction word.
func (code Code) Decode() (op CodeOp, rd, rs CodeReg, mode CodeMode) {
	word := code.Word
	op = CodeOp((word >> 10) & 0x3f)
	rd = CodeReg((word >> 6) & 0xf)
	rs = CodeReg((word >> 2) & 0xf)
	mode = CodeMode(word & 0x3)
	return
}

// ImmediateNeed returns the number of immediate words following the instruction.
func (code Code) ImmediateNeed() int {
	_, _, _, mode := code.Decode()
	if mode == MODE_IMM {
		return 1
	}
	return 0
}

// Words returns the instruction word followed by its immediates.
func (code Code) Words() []uint16 {
	return append([]uint16{code.Word}, code.Immediates...)
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	op, rd, rs, mode := code.Decode()

	src := rs.String()
	if mode == MODE_IMM {
		src = "imm"
		if len(code.Immediates) > 0 {
			src = fmt.Sprintf("0x%04x", code.Immediates[0])
		}
	}

	switch op {
	case OP_HALT, OP_NOP, OP_RET:
		out = op.String()
	case OP_POP:
		out = fmt.Sprintf("%v %v", op, rd)
	case OP_JMP, OP_JZ, OP_JNZ, OP_JC, OP_JNC, OP_PUSH, OP_CALL:
		out = fmt.Sprintf("%v %v", op, src)
	default:
		out = fmt.Sprintf("%v %v %v", op, rd, src)
	}

	return
}

// Opcode represents a line of assembled code with its source location and generated words.
type Opcode struct {
	LineNo    int
	Address   int
	Words     []string
	Codes     []Code
	LinkLabel string // Label resolved into the last immediate or data word.
}

// Size returns the number of memory words of the opcode.
func (op *Opcode) Size() (size int) {
	for _, code := range op.Codes {
		size += 1 + len(code.Immediates)
	}
	return
}
