package main

import (
	"errors"
	"image/color"
	"strconv"
	"strings"

	"github.com/ezrec/emu16/translate"
)

var f = translate.From

var ErrColorSyntax = errors.New(f("color must be #RRGGBB"))

// parsePalette decodes a comma separated list of #RRGGBB colors.
func parsePalette(text string) (palette color.Palette, err error) {
	for _, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(item)
		hex, ok := strings.CutPrefix(item, "#")
		if !ok || len(hex) != 6 {
			err = ErrColorSyntax
			return
		}

		var rgb uint64
		rgb, err = strconv.ParseUint(hex, 16, 32)
		if err != nil {
			err = ErrColorSyntax
			return
		}

		palette = append(palette, color.RGBA{
			R: uint8(rgb >> 16),
			G: uint8(rgb >> 8),
			B: uint8(rgb),
			A: 0xff,
		})
	}

	return
}
