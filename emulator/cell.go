package emulator

import (
	"fmt"
	"iter"
	"strings"

	"github.com/ezrec/emu16/region"
)

// Marker flags the cells under the program counter and stack pointer.
type Marker uint8

const (
	MARK_PC = Marker(1 << 0)
	MARK_SP = Marker(1 << 1)
)

func (mark Marker) String() string {
	var names []string
	if mark&MARK_PC != 0 {
		names = append(names, "pc")
	}
	if mark&MARK_SP != 0 {
		names = append(names, "sp")
	}
	return strings.Join(names, ",")
}

// Cell is the rendering of one memory word.
type Cell struct {
	Address int
	Region  int    // Index of the containing region.
	Value   uint16 // Last rendered value.
	Hex     string // Four digit hexadecimal glyph.
	Char    string // Printable character, or "." if not printable.
	Marker  Marker
}

func makeCell(address, index int, value uint16) (cell Cell) {
	cell = Cell{
		Address: address,
		Region:  index,
	}
	cell.set(value)
	return
}

func (cell *Cell) set(value uint16) {
	cell.Value = value
	cell.Hex = fmt.Sprintf("%04X", value)
	cell.Char = printable(value)
}

func printable(value uint16) string {
	if value >= 32 && value <= 126 {
		return string(rune(value))
	}
	return "."
}

// regionCells iterates the cells of a region, valued from words. Addresses
// past the end of words read as zero.
func regionCells(index int, r region.Region, words []uint16) iter.Seq2[int, Cell] {
	return func(yield func(int, Cell) bool) {
		for address := r.Start; address < r.End(); address++ {
			var value uint16
			if address < len(words) {
				value = words[address]
			}
			if !yield(address, makeCell(address, index, value)) {
				return
			}
		}
	}
}
