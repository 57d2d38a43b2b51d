// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/emu16/machine"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":      "0",
	"MEMORY_SIZE": fmt.Sprintf("%#x", MEMORY_SIZE),
	"SP_RESET":    fmt.Sprintf("%#x", SP_RESET),
	"FLAG_Z":      fmt.Sprintf("%#x", FLAG_Z),
	"FLAG_C":      fmt.Sprintf("%#x", FLAG_C),
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
	reIdentifier = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
)

// Assembler is a single pass macro assembler for the 16-bit machine.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	order []string // Labels in definition order.
}

var _ machine.Assembler = (*Assembler)(nil)

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regMap is a map of register names to register codes.
var regMap = map[string]CodeReg{
	"r0": REG_R0,
	"r1": REG_R1,
	"r2": REG_R2,
	"r3": REG_R3,
	"r4": REG_R4,
	"r5": REG_R5,
	"r6": REG_R6,
	"r7": REG_R7,
	"fl": REG_FL,
	"sp": REG_SP,
	"pc": REG_PC,
}

// opMap maps mnemonics to operation codes.
var opMap = map[string]CodeOp{}

func init() {
	for op, name := range opNames {
		opMap[name] = op
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	invert := false
	if strings.HasPrefix(word, "~") {
		invert = true
		word = word[1:]
	}

	v64, perr := strconv.ParseInt(strings.ReplaceAll(word, "_", ""), 0, 32)
	if perr != nil || v64 > 0xffff || v64 < -0x8000 {
		err = ErrParseNumber(word)
		return
	}

	value = uint16(v64)

	if invert {
		value = ^value
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value16 uint16
		value16, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(int(value16))
	}
	for key, address := range asm.Label {
		pred[key] = starlark.MakeInt(address)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint16(st_int64)
	return
}

// parseLine expands a single line into words, handling equates, labels and macros.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			case "s":
				str = " "
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#x", value)
	})
	if err != nil {
		return
	}

	words = strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}
		_, ok = regMap[label]
		if ok {
			err = ErrLabelReserved
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddress()
		asm.order = append(asm.order, label)
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", fmt.Sprintf("%v_%v_", name, lineno))
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddress gets the address of the next generated word.
func (asm *Assembler) currentAddress() int {
	if len(asm.Opcode) == 0 {
		return 0
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Address + last.Size()
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]int, 16)
	asm.order = asm.order[:0]
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		address, ok := asm.Label[label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		linked := &op.Codes[len(op.Codes)-1]
		if len(linked.Immediates) > 0 {
			linked.Immediates[len(linked.Immediates)-1] = uint16(address)
		} else {
			linked.Word = uint16(address)
		}
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
		Labels:  maps.Clone(asm.Label),
		order:   slices.Clone(asm.order),
	}

	return
}

// Compile assembles source into a big-endian binary image.
func (asm *Assembler) Compile(source string) (bin []byte, err error) {
	prog, err := asm.Parse(strings.NewReader(source))
	if err != nil {
		return
	}

	bin = prog.Binary()
	return
}

// Symbols assembles source and returns its symbol table.
func (asm *Assembler) Symbols(source string) (symbols string, err error) {
	prog, err := asm.Parse(strings.NewReader(source))
	if err != nil {
		return
	}

	symbols = prog.Symbols()
	return
}

// operand decodes a source operand as a register, a value, or a label to link.
func (asm *Assembler) operand(word string) (rs CodeReg, imms []uint16, label string, err error) {
	word = strings.TrimSuffix(strings.TrimPrefix(word, "["), "]")

	rs, ok := regMap[word]
	if ok {
		return
	}

	value, err := asm.valueOf(word)
	if err == nil {
		imms = []uint16{value}
		return
	}

	if reIdentifier.MatchString(word) {
		err = nil
		imms = []uint16{0}
		label = word
		return
	}

	return
}

// register decodes a destination register.
func (asm *Assembler) register(word string) (rd CodeReg, err error) {
	rd, ok := regMap[word]
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

// data decodes a data word as a value or a label to link.
func (asm *Assembler) data(word string) (code Code, label string, err error) {
	value, err := asm.valueOf(word)
	if err == nil {
		code = MakeData(value)
		return
	}

	if reIdentifier.MatchString(word) {
		err = nil
		code = MakeData(0)
		label = word
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []Code
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if len(codes) == 0 || err != nil {
			return
		}
		opcode := Opcode{LineNo: lineno, Address: asm.currentAddress(), Words: initial_words, Codes: codes, LinkLabel: label}
		if opcode.Address+opcode.Size() > MEMORY_SIZE {
			err = ErrProgramOverflow
			return
		}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	switch words[0] {
	case ".word":
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range words[1:] {
			var code Code
			var link string
			code, link, err = asm.data(word)
			if err != nil {
				return
			}
			opcode := Opcode{LineNo: lineno, Address: asm.currentAddress(), Words: initial_words, Codes: []Code{code}, LinkLabel: link}
			if opcode.Address+opcode.Size() > MEMORY_SIZE {
				err = ErrProgramOverflow
				return
			}
			asm.Opcode = append(asm.Opcode, opcode)
		}
		return
	case ".fill":
		if len(words) != 3 {
			err = ErrOpcodeValueMissing
			return
		}
		var count, value uint16
		count, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		value, err = asm.valueOf(words[2])
		if err != nil {
			return
		}
		for range int(count) {
			codes = append(codes, MakeData(value))
		}
		return
	case ".org":
		if len(words) != 2 {
			err = ErrOpcodeValueMissing
			return
		}
		var address uint16
		address, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		here := asm.currentAddress()
		if int(address) < here {
			err = ErrOrgBackwards
			return
		}
		for range int(address) - here {
			codes = append(codes, MakeData(0))
		}
		return
	}

	op, ok := opMap[words[0]]
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	args := words[1:]
	var rd, rs CodeReg
	var imms []uint16

	switch op {
	case OP_HALT, OP_NOP, OP_RET:
		if len(args) > 0 {
			err = ErrOpcodeExtraArgs
			return
		}
	case OP_POP:
		if len(args) < 1 {
			err = ErrOpcodeMissing
			return
		}
		if len(args) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		rd, err = asm.register(args[0])
		if err != nil {
			return
		}
	case OP_JMP, OP_JZ, OP_JNZ, OP_JC, OP_JNC, OP_PUSH, OP_CALL:
		if len(args) < 1 {
			err = ErrOpcodeMissing
			return
		}
		if len(args) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		rs, imms, label, err = asm.operand(args[0])
		if err != nil {
			return
		}
	default:
		if len(args) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		rd, err = asm.register(args[0])
		if err != nil {
			return
		}
		rs, imms, label, err = asm.operand(args[1])
		if err != nil {
			return
		}
	}

	codes = append(codes, MakeCode(op, rd, rs, imms...))

	return
}
