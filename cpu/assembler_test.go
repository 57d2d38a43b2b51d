package cpu

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doParse(t *testing.T, program []string) (prog *Program) {
	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	require.NoError(t, err)

	return
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))
	assert.Equal("", prog.Symbols())

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal(fmt.Sprintf("%#x", MEMORY_SIZE), asm.Equate["MEMORY_SIZE"])
	assert.Equal(fmt.Sprintf("%#x", SP_RESET), asm.Equate["SP_RESET"])
}

func TestAssemblerEncoding(t *testing.T) {
	assert := assert.New(t)

	prog := doParse(t, []string{
		"mov r1 0x41",  // 0, 1
		"add r1, r2",   // 2
		"store r1 [5]", // 3, 4
		"out r1 r0",    // 5
		"pop r3",       // 6
		"ret",          // 7
		"halt",         // 8
	})

	expected := []Opcode{
		{1, 0, []string{"mov", "r1", "0x41"}, []Code{MakeCode(OP_MOV, REG_R1, 0, 0x41)}, ""},
		{2, 2, []string{"add", "r1", "r2"}, []Code{MakeCode(OP_ADD, REG_R1, REG_R2)}, ""},
		{3, 3, []string{"store", "r1", "[5]"}, []Code{MakeCode(OP_STORE, REG_R1, 0, 5)}, ""},
		{4, 5, []string{"out", "r1", "r0"}, []Code{MakeCode(OP_OUT, REG_R1, REG_R0)}, ""},
		{5, 6, []string{"pop", "r3"}, []Code{MakeCode(OP_POP, REG_R3, 0)}, ""},
		{6, 7, []string{"ret"}, []Code{MakeCode(OP_RET, 0, 0)}, ""},
		{7, 8, []string{"halt"}, []Code{MakeCode(OP_HALT, 0, 0)}, ""},
	}

	assert.Equal(expected, prog.Opcodes)

	assert.Equal(uint16(0x0801|(1<<6)), prog.Opcodes[0].Codes[0].Word)
	assert.Equal(uint16(0), prog.Opcodes[6].Codes[0].Word)
}

func TestAssemblerLabels(t *testing.T) {
	assert := assert.New(t)

	prog := doParse(t, []string{
		"main:",
		"  jmp start",   // 0, 1
		"data: .word 1 2 end", // 2, 3, 4
		"start: mov r0 data",  // 5, 6
		"  call sub",          // 7, 8
		"end: halt",           // 9
		"sub: ret",            // 10
	})

	assert.Equal(map[string]int{"main": 0, "data": 2, "start": 5, "end": 9, "sub": 10}, prog.Labels)

	words := []uint16{}
	for word := range prog.Words() {
		words = append(words, word)
	}

	assert.Equal(11, len(words))
	assert.Equal(uint16(5), words[1])
	assert.Equal([]uint16{1, 2, 9}, words[2:5])
	assert.Equal(uint16(2), words[6])
	assert.Equal(uint16(10), words[8])

	assert.Equal("main = 0\ndata = 2\nstart = 5\nend = 9\nsub = 10\n", prog.Symbols())
}

func TestAssemblerDirectives(t *testing.T) {
	assert := assert.New(t)

	prog := doParse(t, []string{
		".equ SCREEN 0x10",
		".equ WIDTH $(SCREEN * 2 + 8)",
		"mov r0 WIDTH",
		"mov r1 'A'",
		"mov r2 '\\s'",
		".fill 2 0xbeef",
		".org SCREEN",
		"buffer: .word $(LINENO)",
	})

	bin := prog.Binary()
	assert.Equal(2*(0x10+1), len(bin))
	assert.Equal([]byte{0x08, 0x01, 0x00, 40}, bin[0:4])
	assert.Equal([]byte{0x00, 65}, bin[6:8])
	assert.Equal([]byte{0x00, 32}, bin[10:12])
	assert.Equal([]byte{0xbe, 0xef, 0xbe, 0xef}, bin[12:16])
	assert.Equal([]byte{0x00, 8}, bin[0x20:0x22])
	assert.Equal(0x10, prog.Labels["buffer"])
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	prog := doParse(t, []string{
		".macro PUTC ch at",
		"mov r7 ch",
		"out r7 at",
		".endm",
		"PUTC 'H' 0",
		"PUTC 'i' 1",
	})

	var codes []Code
	for _, code := range prog.Codes() {
		codes = append(codes, code)
	}

	assert.Equal([]Code{
		MakeCode(OP_MOV, REG_R7, 0, 'H'),
		MakeCode(OP_OUT, REG_R7, 0, 0),
		MakeCode(OP_MOV, REG_R7, 0, 'i'),
		MakeCode(OP_OUT, REG_R7, 0, 1),
	}, codes)
}

func TestAssemblerErrors(t *testing.T) {
	table := [](struct {
		name    string
		program []string
		lineno  int
		err     error
	}){
		{"invalid", []string{"nop", "frob r0"}, 2, ErrInstructionInvalid},
		{"register", []string{"mov q0 1"}, 1, ErrRegisterInvalid},
		{"extra", []string{"halt 1"}, 1, ErrOpcodeExtraArgs},
		{"missing", []string{"jmp"}, 1, ErrOpcodeMissing},
		{"value", []string{"mov r0"}, 1, ErrOpcodeValueMissing},
		{"label dup", []string{"a:", "a:"}, 2, ErrLabelDuplicate},
		{"label reg", []string{"sp: nop"}, 1, ErrLabelReserved},
		{"equ dup", []string{".equ A 1", ".equ A 2"}, 2, ErrEquateDuplicate},
		{"endm", []string{".endm"}, 1, ErrMacroLonelyEndm},
		{"macro", []string{".macro M", "nop"}, 2, ErrMacroLonely},
		{"nested", []string{".macro M", ".macro N"}, 2, ErrMacroNesting},
		{"org", []string{"nop", "nop", ".org 1"}, 3, ErrOrgBackwards},
		{"overflow", []string{".org 0xffff", "mov r0 1"}, 2, ErrProgramOverflow},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(strings.Join(entry.program, "\n")))
		assert.ErrorIs(t, err, entry.err, entry.name)

		var syntax *ErrSyntax
		if assert.ErrorAs(t, err, &syntax, entry.name) {
			assert.Equal(t, entry.lineno, syntax.LineNo, entry.name)
		}
	}
}

func TestAssemblerLabelMissing(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("nop\njmp nowhere\nhalt"))

	var missing ErrLabelMissing
	assert.True(errors.As(err, &missing))
	assert.Equal(ErrLabelMissing("nowhere"), missing)

	var syntax *ErrSyntax
	if assert.ErrorAs(err, &syntax) {
		assert.Equal(2, syntax.LineNo)
	}
}

func TestAssemblerNumber(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("mov r0 0x10000"))

	var number ErrParseNumber
	assert.ErrorAs(err, &number)

	prog, err := asm.Parse(strings.NewReader("mov r0 -1\nmov r1 ~0x00ff"))
	assert.NoError(err)
	assert.Equal([]uint16{0xffff}, prog.Opcodes[0].Codes[0].Immediates)
	assert.Equal([]uint16{0xff00}, prog.Opcodes[1].Codes[0].Immediates)
}

func TestAssemblerInterface(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	source := "start: mov r0 1\nloop: jmp loop\n"

	bin, err := asm.Compile(source)
	assert.NoError(err)
	assert.Equal([]byte{0x08, 0x01, 0x00, 0x01, 0x34, 0x01, 0x00, 0x02}, bin)

	symbols, err := asm.Symbols(source)
	assert.NoError(err)
	assert.Equal("start = 0\nloop = 2\n", symbols)

	_, err = asm.Compile("bogus")
	assert.ErrorIs(err, ErrInstructionInvalid)
}
