package emulator

import (
	"fmt"
	"image"

	"github.com/ezrec/emu16/charmap"
	"github.com/ezrec/emu16/machine"
	"github.com/ezrec/emu16/region"
)

// Delta is a change of the view, delivered to subscribers. The set of
// deltas is closed.
type Delta interface {
	delta()
}

// LoadDelta replaces the whole view.
type LoadDelta struct {
	Regions []region.Region
	Cells   []Cell
}

// CellDelta updates the value of one cell.
type CellDelta struct {
	Cell Cell
}

// MarkerDelta updates the PC and SP markers of one cell.
type MarkerDelta struct {
	Address int
	Marker  Marker
}

// RegisterDelta refreshes the register file.
type RegisterDelta struct {
	Registers machine.Registers
}

// Text returns the registers as fixed width hexadecimal fields.
func (rd RegisterDelta) Text() (text [machine.REGISTER_COUNT]string) {
	for n, reg := range rd.Registers {
		text[n] = fmt.Sprintf("%04X", reg)
	}
	return
}

// BlitDelta reports a glyph drawn onto the screen.
type BlitDelta struct {
	Rect      image.Rectangle // Screen area updated.
	Composite int
	Glyph     int
}

// PixelDelta reports a toggled charmap pixel.
type PixelDelta struct {
	Pixel charmap.Pixel
}

// HaltDelta reports that the machine halted.
type HaltDelta struct{}

func (LoadDelta) delta()     {}
func (CellDelta) delta()     {}
func (MarkerDelta) delta()   {}
func (RegisterDelta) delta() {}
func (BlitDelta) delta()     {}
func (PixelDelta) delta()    {}
func (HaltDelta) delta()     {}
