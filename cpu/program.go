package cpu

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/ezrec/emu16/internal"
)

// Program is an assembled program: its opcodes and its labels.
type Program struct {
	Opcodes []Opcode
	Labels  map[string]int // Label name to address.
	order   []string       // Labels in definition order.
}

// Debug locates the opcode covering an address.
type Debug struct {
	*Opcode
	Index int // Word offset of the address within the opcode.
}

// Debug returns the opcode covering address, with a nil Opcode if none does.
func (prog *Program) Debug(address uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(address) >= op.Address && int(address) < op.Address+op.Size() {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(address) - op.Address,
			}
			break
		}
	}

	return
}

// Codes iterates all codes with their addresses.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(address uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			address := op.Address
			for _, code := range op.Codes {
				if !yield(uint16(address), code) {
					return
				}
				address += 1 + len(code.Immediates)
			}
		}
	}
}

// Words iterates the memory words of the program, starting at address 0.
func (prog *Program) Words() iter.Seq[uint16] {
	seqs := make([]iter.Seq[uint16], 0, len(prog.Opcodes))
	for _, op := range prog.Opcodes {
		for _, code := range op.Codes {
			seqs = append(seqs, slices.Values(code.Words()))
		}
	}

	return internal.IterSeqConcat(seqs...)
}

// Binary returns the program image as big-endian words.
func (prog *Program) Binary() (bin []byte) {
	for word := range prog.Words() {
		bin = binary.BigEndian.AppendUint16(bin, word)
	}

	return
}

// Symbols returns the 'name = address' table of the labels, in address
// order. Labels sharing an address keep their definition order.
func (prog *Program) Symbols() string {
	names := slices.Clone(prog.order)
	slices.SortStableFunc(names, func(a, b string) int {
		return cmp.Compare(prog.Labels[a], prog.Labels[b])
	})

	var text strings.Builder
	for _, name := range names {
		fmt.Fprintf(&text, "%v = %d\n", name, prog.Labels[name])
	}

	return text.String()
}
