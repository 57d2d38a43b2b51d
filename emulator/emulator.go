// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"image"
	"image/color"
	"io"
	"iter"
	"log"
	"slices"
	"strings"

	"golang.org/x/image/draw"

	"github.com/ezrec/emu16/charmap"
	"github.com/ezrec/emu16/internal"
	"github.com/ezrec/emu16/machine"
	"github.com/ezrec/emu16/mif"
	"github.com/ezrec/emu16/region"
)

const (
	LINE_WIDTH  = 40      // Default glyphs per screen line.
	LINES       = 25      // Default screen lines.
	MEMORY_SIZE = 1 << 16 // Default words of viewed memory.
)

// Emulator keeps a view of a machine: memory cells partitioned into
// regions, the register file, the PC and SP markers, and the screen. Every
// change of the view is sent to the subscribers as a Delta.
type Emulator struct {
	Verbose    bool              // If set, enables verbose logging.
	Machine    machine.Machine   // Machine being viewed.
	Assembler  machine.Assembler // Assembler used by LoadAsm.
	CharMap    *charmap.CharMap  // Font for screen writes.
	Screen     *image.RGBA       // Screen, allocated by Load.
	LineWidth  int               // Glyphs per screen line.
	Lines      int               // Screen lines.
	MemorySize int               // Words of viewed memory.

	regions   []region.Region
	cells     []Cell
	registers machine.Registers
	halted    bool
	loaded    bool
	binary    []byte
	symbols   string
	handlers  []func(Delta)
	fonts     map[*charmap.CharMap]bool // Charmaps already subscribed to.
}

// NewEmulator creates a new, unloaded, view of m.
func NewEmulator(m machine.Machine) (emu *Emulator) {
	emu = &Emulator{
		Machine:    m,
		LineWidth:  LINE_WIDTH,
		Lines:      LINES,
		MemorySize: MEMORY_SIZE,
	}

	return
}

// Subscribe registers handler to receive every delta, in registration order.
func (emu *Emulator) Subscribe(handler func(Delta)) {
	emu.handlers = append(emu.handlers, handler)
}

func (emu *Emulator) emit(delta Delta) {
	for _, handler := range emu.handlers {
		handler(delta)
	}
}

// SetCharMap selects the screen font. Toggled font pixels are forwarded
// as PixelDelta for as long as cm is the selected font.
func (emu *Emulator) SetCharMap(cm *charmap.CharMap) {
	emu.CharMap = cm
	if cm == nil || emu.fonts[cm] {
		return
	}

	if emu.fonts == nil {
		emu.fonts = make(map[*charmap.CharMap]bool)
	}
	emu.fonts[cm] = true

	cm.Subscribe(func(px charmap.Pixel) {
		if emu.CharMap == cm {
			emu.emit(PixelDelta{Pixel: px})
		}
	})
}

// Load installs a binary image with its 'name = address' symbol table and
// rebuilds the whole view. On error the previous view is kept.
func (emu *Emulator) Load(binary []byte, symbols string) (err error) {
	syms, err := region.ParseSymbols(strings.NewReader(symbols))
	if err != nil {
		return
	}

	regions, err := region.BuildRegions(syms, emu.MemorySize)
	if err != nil {
		return
	}

	err = emu.Machine.Load(binary)
	if err != nil {
		return
	}

	words := emu.Machine.ReadMemory(0, emu.MemorySize)

	seqs := make([]iter.Seq2[int, Cell], len(regions))
	for n, r := range regions {
		seqs[n] = regionCells(n, r, words)
	}

	cells := make([]Cell, 0, emu.MemorySize)
	for _, cell := range internal.IterSeq2Concat(seqs...) {
		cells = append(cells, cell)
	}

	emu.regions = regions
	emu.cells = cells
	emu.registers = emu.Machine.ReadRegisters()
	emu.halted = false
	emu.loaded = true
	emu.binary = slices.Clone(binary)
	emu.symbols = symbols

	emu.mark(emu.Pc(), MARK_PC, true)
	emu.mark(emu.Sp(), MARK_SP, true)

	bounds := image.Rect(0, 0, emu.LineWidth*charmap.GLYPH_WIDTH, emu.Lines*charmap.GLYPH_HEIGHT)
	if emu.Screen == nil || emu.Screen.Bounds() != bounds {
		emu.Screen = image.NewRGBA(bounds)
	}
	draw.Draw(emu.Screen, bounds, image.NewUniform(color.Black), image.Point{}, draw.Src)

	if emu.Verbose {
		log.Printf("emulator: loaded %v regions, %v cells, pc %04X sp %04X", len(regions), len(cells), emu.Pc(), emu.Sp())
	}

	emu.emit(LoadDelta{Regions: emu.Regions(), Cells: slices.Clone(emu.cells)})
	emu.emit(RegisterDelta{Registers: emu.registers})

	return
}

// LoadAsm assembles source and loads the result.
func (emu *Emulator) LoadAsm(source string) (err error) {
	if emu.Assembler == nil {
		err = &ErrCompile{Err: ErrAssemblerMissing}
		return
	}

	binary, err := emu.Assembler.Compile(source)
	if err != nil {
		err = &ErrCompile{Err: err}
		return
	}

	symbols, err := emu.Assembler.Symbols(source)
	if err != nil {
		err = &ErrCompile{Err: err}
		return
	}

	err = emu.Load(binary, symbols)

	return
}

// LoadMif applies a MIF memory image over the machine memory, then
// refreshes the view if a program is loaded.
func (emu *Emulator) LoadMif(input io.Reader) (err error) {
	writer, ok := emu.Machine.(machine.MemoryWriter)
	if !ok {
		err = ErrMemoryWriteDenied
		return
	}

	img, err := mif.Decode(input)
	if err != nil {
		return
	}

	words := make([]uint16, emu.MemorySize)
	copy(words, emu.Machine.ReadMemory(0, emu.MemorySize))

	err = mif.Apply(img, words)
	if err != nil {
		return
	}

	err = writer.WriteMemory(0, words)
	if err != nil {
		return
	}

	if emu.loaded {
		err = emu.Refresh()
	}

	return
}

// Reset reloads the last loaded binary and symbols.
func (emu *Emulator) Reset() (err error) {
	if !emu.loaded {
		err = ErrNotLoaded
		return
	}

	err = emu.Load(emu.binary, emu.symbols)

	return
}

// Refresh re-reads memory and registers from the machine, updating the
// cells and markers that differ from the view.
func (emu *Emulator) Refresh() (err error) {
	if !emu.loaded {
		err = ErrNotLoaded
		return
	}

	pc, sp := emu.Pc(), emu.Sp()

	words := emu.Machine.ReadMemory(0, len(emu.cells))
	for address := range emu.cells {
		var value uint16
		if address < len(words) {
			value = words[address]
		}
		emu.store(address, value)
	}

	emu.refreshRegisters(pc, sp)

	return
}

// Tick executes a single machine step. A halted view does not step, and
// returns false with no deltas. Effects the view cannot apply are reported
// in err, while the step itself still counts.
func (emu *Emulator) Tick() (stepped bool, err error) {
	if !emu.loaded {
		err = ErrNotLoaded
		return
	}

	if emu.halted {
		return
	}

	pc, sp := emu.Pc(), emu.Sp()

	var errs []error
	index := 0
	sink := func(eff machine.Effect) {
		e := emu.apply(eff)
		if e != nil {
			if emu.Verbose {
				log.Printf("emulator: pc %04X effect %v: %v", pc, index, e)
			}
			errs = append(errs, e)
		}
		index++
	}

	stepErr := emu.Machine.Step(sink)
	if stepErr != nil {
		errs = append(errs, &ErrRuntime{Pc: pc, Err: stepErr})
	} else {
		stepped = true
	}

	emu.refreshRegisters(pc, sp)

	err = errors.Join(errs...)

	return
}

// apply updates the view with one machine effect.
func (emu *Emulator) apply(eff machine.Effect) (err error) {
	switch eff := eff.(type) {
	case machine.Store:
		if int(eff.Address) >= len(emu.cells) {
			err = &ErrInvalidStep{Effect: eff, Index: int(eff.Address), Limit: len(emu.cells)}
			return
		}
		emu.store(int(eff.Address), eff.Value)
	case machine.Write:
		err = emu.write(eff)
	case machine.Halt:
		emu.halted = true
		emu.emit(HaltDelta{})
	default:
		err = &ErrInvalidStep{Effect: eff, Index: -1}
	}

	return
}

// store renders a new value into a cell, if it changed.
func (emu *Emulator) store(address int, value uint16) {
	cell := &emu.cells[address]
	if cell.Value == value {
		return
	}

	cell.set(value)
	emu.emit(CellDelta{Cell: *cell})
}

// refreshRegisters reloads the register file and moves the markers away
// from the previous pc and sp.
func (emu *Emulator) refreshRegisters(pc, sp int) {
	emu.registers = emu.Machine.ReadRegisters()

	var touched []int
	if emu.Pc() != pc {
		touched = append(touched, emu.mark(pc, MARK_PC, false)...)
		touched = append(touched, emu.mark(emu.Pc(), MARK_PC, true)...)
	}
	if emu.Sp() != sp {
		touched = append(touched, emu.mark(sp, MARK_SP, false)...)
		touched = append(touched, emu.mark(emu.Sp(), MARK_SP, true)...)
	}

	slices.Sort(touched)
	for _, address := range slices.Compact(touched) {
		emu.emit(MarkerDelta{Address: address, Marker: emu.cells[address].Marker})
	}

	emu.emit(RegisterDelta{Registers: emu.registers})
}

// mark sets or clears a marker bit, returning the address if it changed.
func (emu *Emulator) mark(address int, bit Marker, on bool) (touched []int) {
	if address < 0 || address >= len(emu.cells) {
		return
	}

	cell := &emu.cells[address]
	marker := cell.Marker &^ bit
	if on {
		marker |= bit
	}
	if marker != cell.Marker {
		cell.Marker = marker
		touched = []int{address}
	}

	return
}

// Regions returns a copy of the region partition.
func (emu *Emulator) Regions() []region.Region {
	return slices.Clone(emu.regions)
}

// Cells iterates the memory cells in region order.
func (emu *Emulator) Cells() iter.Seq2[int, Cell] {
	return slices.All(emu.cells)
}

// Cell returns the cell at address.
func (emu *Emulator) Cell(address int) (cell Cell, ok bool) {
	if address < 0 || address >= len(emu.cells) {
		return
	}

	cell, ok = emu.cells[address], true
	return
}

// Registers returns the register file as last read.
func (emu *Emulator) Registers() machine.Registers {
	return emu.registers
}

// Pc returns the program counter as last read.
func (emu *Emulator) Pc() int {
	return int(emu.registers[machine.REGISTER_PC])
}

// Sp returns the stack pointer as last read.
func (emu *Emulator) Sp() int {
	return int(emu.registers[machine.REGISTER_SP])
}

// Halted returns true once the machine reported a halt.
func (emu *Emulator) Halted() bool {
	return emu.halted
}

// Loaded returns true once a program is loaded.
func (emu *Emulator) Loaded() bool {
	return emu.loaded
}
