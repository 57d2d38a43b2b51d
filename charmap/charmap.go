// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package charmap expands a monochrome 8x8 bitmap font into a palette
// colored glyph atlas.
//
// The atlas holds one composite per palette color, side by side: composite
// i occupies columns [8*i, 8*i+8). A set bit renders black, a clear bit
// renders the composite's palette color (a multiply blend of a white-on-black
// glyph plane against the palette color).
package charmap

import (
	"errors"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/ezrec/emu16/translate"
)

var f = translate.From

const (
	GLYPH_WIDTH  = 8                          // Pixels per glyph row.
	GLYPH_HEIGHT = 8                          // Rows per glyph.
	GLYPH_COUNT  = 256                        // Glyphs in the font.
	ROWS         = GLYPH_COUNT * GLYPH_HEIGHT // Row bytes in the font.
)

var (
	ErrPixelInvalid   = errors.New(f("pixel outside of charmap"))
	ErrPaletteEmpty   = errors.New(f("palette empty"))
	ErrGlyphInvalid   = errors.New(f("glyph invalid"))
	ErrCompositeRange = errors.New(f("composite invalid"))
)

// DefaultPalette is a 16 color palette.
var DefaultPalette = color.Palette{
	color.RGBA{0xff, 0xff, 0xff, 0xff},
	color.RGBA{0xaa, 0x00, 0x00, 0xff},
	color.RGBA{0x00, 0xaa, 0x00, 0xff},
	color.RGBA{0xaa, 0x55, 0x00, 0xff},
	color.RGBA{0x00, 0x00, 0xaa, 0xff},
	color.RGBA{0xaa, 0x00, 0xaa, 0xff},
	color.RGBA{0x00, 0xaa, 0xaa, 0xff},
	color.RGBA{0xaa, 0xaa, 0xaa, 0xff},
	color.RGBA{0x55, 0x55, 0x55, 0xff},
	color.RGBA{0xff, 0x55, 0x55, 0xff},
	color.RGBA{0x55, 0xff, 0x55, 0xff},
	color.RGBA{0xff, 0xff, 0x55, 0xff},
	color.RGBA{0x55, 0x55, 0xff, 0xff},
	color.RGBA{0xff, 0x55, 0xff, 0xff},
	color.RGBA{0x55, 0xff, 0xff, 0xff},
	color.RGBA{0xcc, 0xcc, 0xcc, 0xff},
}

// Pixel is the coordinate of a toggled font bit.
type Pixel struct {
	X int // Column in a glyph row, 0 is leftmost.
	Y int // Row index in the font, glyph * GLYPH_HEIGHT + line.
}

// CharMap owns the font bit plane and the colored atlas derived from it.
type CharMap struct {
	palette  []color.RGBA
	bits     [ROWS]byte
	atlas    *image.RGBA
	handlers []func(Pixel)
}

// New creates a blank CharMap colored by palette.
func New(palette color.Palette) (cm *CharMap, err error) {
	if len(palette) == 0 {
		err = ErrPaletteEmpty
		return
	}

	cm = &CharMap{
		palette: make([]color.RGBA, len(palette)),
		atlas:   image.NewRGBA(image.Rect(0, 0, GLYPH_WIDTH*len(palette), ROWS)),
	}

	for n, c := range palette {
		cm.palette[n] = color.RGBAModel.Convert(c).(color.RGBA)
	}

	cm.render()

	return
}

// FromBits creates a CharMap from font rows, one byte per glyph row.
func FromBits(rows []byte, palette color.Palette) (cm *CharMap, err error) {
	cm, err = New(palette)
	if err != nil {
		return
	}

	cm.Load(rows)

	return
}

// FromImage creates a CharMap from an 8 pixel wide monochrome image.
func FromImage(glyphs image.Image, palette color.Palette) (cm *CharMap, err error) {
	cm, err = New(palette)
	if err != nil {
		return
	}

	cm.LoadImage(glyphs)

	return
}

// Load replaces the first len(rows) font rows and re-renders the atlas.
// Rows past the end of rows keep their previous bits.
func (cm *CharMap) Load(rows []byte) {
	copy(cm.bits[:], rows)
	cm.render()
}

// LoadImage replaces the font rows covered by glyphs and re-renders the
// atlas. A pixel brighter than mid-gray is a set bit.
func (cm *CharMap) LoadImage(glyphs image.Image) {
	bounds := glyphs.Bounds()
	rows := make([]byte, min(bounds.Dy(), ROWS))

	for y := range rows {
		var bitmask byte
		for x := range min(bounds.Dx(), GLYPH_WIDTH) {
			gray := color.GrayModel.Convert(glyphs.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			if gray.Y >= 0x80 {
				bitmask |= 0x80 >> x
			}
		}
		rows[y] = bitmask
	}

	cm.Load(rows)
}

// multiply blends an opaque gray glyph level against a palette color.
func multiply(c color.RGBA, level uint8) color.RGBA {
	l := uint32(level)
	return color.RGBA{
		R: uint8(uint32(c.R) * l / 0xff),
		G: uint8(uint32(c.G) * l / 0xff),
		B: uint8(uint32(c.B) * l / 0xff),
		A: uint8(0xff - (0xff-uint32(c.A))*l/0xff),
	}
}

// level is the glyph plane intensity of a font bit.
func level(on bool) uint8 {
	if on {
		return 0x00
	}
	return 0xff
}

// render rebuilds every composite of the atlas from the bit plane.
func (cm *CharMap) render() {
	for n, c := range cm.palette {
		column := image.Rect(GLYPH_WIDTH*n, 0, GLYPH_WIDTH*(n+1), ROWS)
		draw.Draw(cm.atlas, column, image.NewUniform(c), image.Point{}, draw.Src)

		black := multiply(c, level(true))
		for y, bitmask := range cm.bits {
			if bitmask == 0 {
				continue
			}
			for x := range GLYPH_WIDTH {
				if (bitmask>>(7-x))&1 != 0 {
					cm.atlas.SetRGBA(column.Min.X+x, y, black)
				}
			}
		}
	}
}

// Bit returns the font bit at (x, y).
func (cm *CharMap) Bit(x, y int) bool {
	if x < 0 || x >= GLYPH_WIDTH || y < 0 || y >= ROWS {
		return false
	}

	return (cm.bits[y]>>(7-x))&1 != 0
}

// Rows returns a copy of the font rows.
func (cm *CharMap) Rows() (rows []byte) {
	rows = make([]byte, ROWS)
	copy(rows, cm.bits[:])
	return
}

// TogglePixel flips the font bit at (x, y), recolors that pixel in every
// composite, and notifies the subscribers in registration order.
func (cm *CharMap) TogglePixel(x, y int) (px Pixel, err error) {
	if x < 0 || x >= GLYPH_WIDTH || y < 0 || y >= ROWS {
		err = ErrPixelInvalid
		return
	}

	mask := byte(0x80) >> x
	cm.bits[y] ^= mask
	on := cm.bits[y]&mask != 0

	for n, c := range cm.palette {
		cm.atlas.SetRGBA(GLYPH_WIDTH*n+x, y, multiply(c, level(on)))
	}

	px = Pixel{X: x, Y: y}
	for _, handler := range cm.handlers {
		handler(px)
	}

	return
}

// Subscribe registers handler to be called synchronously on every toggle.
func (cm *CharMap) Subscribe(handler func(Pixel)) {
	cm.handlers = append(cm.handlers, handler)
}

// Composites returns the number of palette composites in the atlas.
func (cm *CharMap) Composites() int {
	return len(cm.palette)
}

// Palette returns a copy of the palette.
func (cm *CharMap) Palette() (palette []color.RGBA) {
	palette = make([]color.RGBA, len(cm.palette))
	copy(palette, cm.palette)
	return
}

// Bounds returns the atlas rectangle of a glyph within a composite.
func (cm *CharMap) Bounds(composite, glyph int) (rect image.Rectangle, err error) {
	if composite < 0 || composite >= len(cm.palette) {
		err = ErrCompositeRange
		return
	}
	if glyph < 0 || glyph >= GLYPH_COUNT {
		err = ErrGlyphInvalid
		return
	}

	rect = image.Rect(0, 0, GLYPH_WIDTH, GLYPH_HEIGHT).Add(image.Pt(GLYPH_WIDTH*composite, GLYPH_HEIGHT*glyph))
	return
}

// Blit copies one glyph of a composite into dst with its top-left at at.
func (cm *CharMap) Blit(dst draw.Image, at image.Point, composite, glyph int) (err error) {
	src, err := cm.Bounds(composite, glyph)
	if err != nil {
		return
	}

	draw.Copy(dst, at, cm.atlas, src, draw.Src, nil)

	return
}

// Snapshot returns a copy of the atlas.
func (cm *CharMap) Snapshot() (atlas *image.RGBA) {
	atlas = image.NewRGBA(cm.atlas.Bounds())
	copy(atlas.Pix, cm.atlas.Pix)
	return
}
