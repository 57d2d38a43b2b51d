package emulator

import (
	"image"

	"github.com/ezrec/emu16/charmap"
	"github.com/ezrec/emu16/machine"
)

// write draws a character onto the screen. The low byte of the character
// selects the glyph, the high byte the palette composite.
func (emu *Emulator) write(eff machine.Write) (err error) {
	limit := emu.LineWidth * emu.Lines
	if emu.CharMap == nil || emu.Screen == nil {
		err = &ErrInvalidStep{Effect: eff, Index: int(eff.Offset), Limit: 0}
		return
	}
	if int(eff.Offset) >= limit {
		err = &ErrInvalidStep{Effect: eff, Index: int(eff.Offset), Limit: limit}
		return
	}

	glyph := int(eff.Char & 0xff)
	composite := int(eff.Char>>8) % emu.CharMap.Composites()

	offset := int(eff.Offset)
	// The atlas row of the glyph cancels out of the dirty-rect put offset.
	at := image.Pt((offset%emu.LineWidth)*charmap.GLYPH_WIDTH, (offset/emu.LineWidth)*charmap.GLYPH_HEIGHT)

	err = emu.CharMap.Blit(emu.Screen, at, composite, glyph)
	if err != nil {
		return
	}

	emu.emit(BlitDelta{
		Rect:      image.Rect(0, 0, charmap.GLYPH_WIDTH, charmap.GLYPH_HEIGHT).Add(at),
		Composite: composite,
		Glyph:     glyph,
	})

	return
}
