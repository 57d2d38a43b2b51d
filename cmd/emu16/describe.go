package main

import (
	"fmt"

	"github.com/ezrec/emu16/emulator"
)

// describe formats a delta for the verbose log.
func describe(delta emulator.Delta) string {
	switch delta := delta.(type) {
	case emulator.LoadDelta:
		return fmt.Sprintf("load: %d regions, %d cells", len(delta.Regions), len(delta.Cells))
	case emulator.CellDelta:
		return fmt.Sprintf("cell %04X: %v %q", delta.Cell.Address, delta.Cell.Hex, delta.Cell.Char)
	case emulator.MarkerDelta:
		return fmt.Sprintf("marker %04X: [%v]", delta.Address, delta.Marker)
	case emulator.RegisterDelta:
		return fmt.Sprintf("registers: %v", delta.Text())
	case emulator.BlitDelta:
		return fmt.Sprintf("blit %v: composite %d glyph %d", delta.Rect, delta.Composite, delta.Glyph)
	case emulator.PixelDelta:
		return fmt.Sprintf("pixel %d,%d", delta.Pixel.X, delta.Pixel.Y)
	case emulator.HaltDelta:
		return "halt"
	}

	return fmt.Sprintf("%T", delta)
}
