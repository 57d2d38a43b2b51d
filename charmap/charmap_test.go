package charmap

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPalette = color.Palette{
	color.RGBA{0xff, 0x00, 0x00, 0xff},
	color.RGBA{0x00, 0xff, 0x00, 0xff},
	color.RGBA{0x20, 0x40, 0x80, 0xff},
}

var black = color.RGBA{0, 0, 0, 0xff}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	_, err := New(nil)
	assert.ErrorIs(err, ErrPaletteEmpty)

	cm, err := New(testPalette)
	require.NoError(t, err)

	assert.Equal(3, cm.Composites())
	assert.Equal(image.Rect(0, 0, 8*3, ROWS), cm.Snapshot().Bounds())
	assert.Equal(testPalette[2], cm.Snapshot().RGBAAt(8*2+3, ROWS-1))
}

func TestFromBits(t *testing.T) {
	assert := assert.New(t)

	rows := []byte{0b1000_0001, 0b0100_0000}
	cm, err := FromBits(rows, testPalette)
	require.NoError(t, err)

	atlas := cm.Snapshot()
	assert.Equal(8*len(testPalette), atlas.Bounds().Dx())

	for n, c := range testPalette {
		for y := range 3 {
			for x := range 8 {
				want := c
				if cm.Bit(x, y) {
					want = black
				}
				assert.Equal(want, atlas.RGBAAt(8*n+x, y), "composite %d (%d,%d)", n, x, y)
			}
		}
	}

	assert.True(cm.Bit(0, 0))
	assert.True(cm.Bit(7, 0))
	assert.False(cm.Bit(1, 0))
	assert.True(cm.Bit(1, 1))
	assert.False(cm.Bit(0, 2))
	assert.False(cm.Bit(8, 0))
}

func TestLoadUpsert(t *testing.T) {
	assert := assert.New(t)

	cm, err := FromBits([]byte{0x01, 0x02, 0x03}, testPalette)
	require.NoError(t, err)

	cm.Load([]byte{0xf0})

	rows := cm.Rows()
	assert.Equal([]byte{0xf0, 0x02, 0x03, 0x00}, rows[:4])
	assert.Equal(black, cm.Snapshot().RGBAAt(8+6, 1))
}

func TestFromImage(t *testing.T) {
	assert := assert.New(t)

	glyphs := image.NewGray(image.Rect(0, 0, 8, 2))
	glyphs.SetGray(0, 0, color.Gray{0xff})
	glyphs.SetGray(7, 1, color.Gray{0xc0})
	glyphs.SetGray(6, 1, color.Gray{0x20})

	cm, err := FromImage(glyphs, testPalette)
	require.NoError(t, err)

	assert.Equal([]byte{0x80, 0x01, 0x00}, cm.Rows()[:3])
}

func TestTogglePixel(t *testing.T) {
	assert := assert.New(t)

	cm, err := New(testPalette)
	require.NoError(t, err)

	var seen []Pixel
	var order []int
	cm.Subscribe(func(px Pixel) { seen = append(seen, px); order = append(order, 1) })
	cm.Subscribe(func(px Pixel) { order = append(order, 2) })

	px, err := cm.TogglePixel(3, 17)
	assert.NoError(err)
	assert.Equal(Pixel{X: 3, Y: 17}, px)
	assert.True(cm.Bit(3, 17))
	assert.Equal(byte(0x10), cm.Rows()[17])

	atlas := cm.Snapshot()
	for n := range testPalette {
		assert.Equal(black, atlas.RGBAAt(8*n+3, 17))
		assert.Equal(testPalette[n], atlas.RGBAAt(8*n+2, 17))
	}

	_, err = cm.TogglePixel(3, 17)
	assert.NoError(err)
	assert.False(cm.Bit(3, 17))

	atlas = cm.Snapshot()
	for n := range testPalette {
		assert.Equal(testPalette[n], atlas.RGBAAt(8*n+3, 17))
	}

	assert.Equal([]Pixel{{3, 17}, {3, 17}}, seen)
	assert.Equal([]int{1, 2, 1, 2}, order)
}

func TestTogglePixelInvalid(t *testing.T) {
	assert := assert.New(t)

	cm, err := New(testPalette)
	require.NoError(t, err)

	called := false
	cm.Subscribe(func(Pixel) { called = true })

	for _, xy := range [][2]int{{-1, 0}, {8, 0}, {0, -1}, {0, ROWS}} {
		_, err = cm.TogglePixel(xy[0], xy[1])
		assert.ErrorIs(err, ErrPixelInvalid)
	}
	assert.False(called)
}

func TestBlit(t *testing.T) {
	assert := assert.New(t)

	rows := make([]byte, ROWS)
	rows[8*'A'] = 0xff
	cm, err := FromBits(rows, testPalette)
	require.NoError(t, err)

	dst := image.NewRGBA(image.Rect(0, 0, 16, 16))
	assert.NoError(cm.Blit(dst, image.Pt(8, 8), 1, 'A'))

	assert.Equal(black, dst.RGBAAt(8, 8))
	assert.Equal(black, dst.RGBAAt(15, 8))
	assert.Equal(testPalette[1], dst.RGBAAt(8, 9))
	assert.Equal(color.RGBA{}, dst.RGBAAt(7, 8))

	assert.ErrorIs(cm.Blit(dst, image.Point{}, 3, 0), ErrCompositeRange)
	assert.ErrorIs(cm.Blit(dst, image.Point{}, 0, 256), ErrGlyphInvalid)

	rect, err := cm.Bounds(2, 1)
	assert.NoError(err)
	assert.Equal(image.Rect(16, 8, 24, 16), rect)
}

func TestMultiply(t *testing.T) {
	assert := assert.New(t)

	c := color.RGBA{0x80, 0x40, 0x20, 0x80}
	assert.Equal(c, multiply(c, 0xff))
	assert.Equal(color.RGBA{0, 0, 0, 0xff}, multiply(c, 0))
}
