package mif

import (
	"bufio"
	"image"
	"image/color"
	"io"
	"iter"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	ADDRESS_LIMIT = 1 << 16 // Size of the addressable memory.
	CHARMAP_ROWS  = 1024    // Rows addressable by a charmap MIF.
	CHARMAP_WIDTH = 8       // Pixels per charmap row.
)

var (
	reAssignment = regexp.MustCompile(`^\s*[\d\[].*:`)
	reSingle     = regexp.MustCompile(`^(\d+)\s*:\s*([01]+)`)
	reRange      = regexp.MustCompile(`^\[(\d+)\.\.(\d+)\]\s*:\s*([01]+)`)
)

// Assignment sets every address in [From, To] to Value.
type Assignment struct {
	LineNo int    // Source line number, 1-based.
	Line   string // Source line text.
	From   int    // First address.
	To     int    // Last address, inclusive.
	Value  uint64 // Value as a plain base-2 integer.
}

// Image is the ordered list of assignments of a MIF text.
type Image struct {
	Assignments []Assignment
}

// Word is any unsigned storage cell an Image can be applied to.
type Word interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// DecodeString decodes a MIF text held in a string.
func DecodeString(text string) (img *Image, err error) {
	return Decode(strings.NewReader(text))
}

// Decode parses a MIF text into an Image. Decoding stops at the first
// malformed line, which is reported as an *ErrDecode.
func Decode(input io.Reader) (img *Image, err error) {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(nil, math.MaxInt32)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			img = nil
			err = &ErrDecode{LineNo: lineno, Line: line, Err: err}
		}
	}()

	img = &Image{}

	for scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
		lineno++

		if !reAssignment.MatchString(line) {
			continue
		}

		var as Assignment
		as, err = parseAssignment(line)
		if err != nil {
			return
		}
		as.LineNo = lineno
		as.Line = line

		img.Assignments = append(img.Assignments, as)
	}

	err = scanner.Err()
	if err != nil {
		lineno++
		line = ""
	}

	return
}

// parseAssignment decodes a single or ranged assignment line.
func parseAssignment(line string) (as Assignment, err error) {
	if match := reSingle.FindStringSubmatch(line); match != nil {
		as.From, err = parseAddress(match[1])
		if err != nil {
			return
		}
		as.To = as.From
		as.Value, err = parseValue(match[2])
		return
	}

	match := reRange.FindStringSubmatch(line)
	if match == nil {
		err = ErrSyntax
		return
	}

	as.From, err = parseAddress(match[1])
	if err != nil {
		return
	}
	as.To, err = parseAddress(match[2])
	if err != nil {
		return
	}
	if as.From > as.To {
		err = ErrRangeReversed
		return
	}
	as.Value, err = parseValue(match[3])

	return
}

func parseAddress(text string) (address int, err error) {
	value, err := strconv.ParseUint(text, 10, 64)
	if err != nil || value >= ADDRESS_LIMIT {
		address = -1
		if err == nil {
			address = int(value)
		}
		err = &ErrOutOfRange{Address: address, Limit: ADDRESS_LIMIT}
		return
	}

	address = int(value)
	return
}

// parseValue keeps the low 64 bits of a binary digit string.
func parseValue(bits string) (value uint64, err error) {
	bits = bits[max(0, len(bits)-64):]

	value, err = strconv.ParseUint(bits, 2, 64)
	return
}

// Len returns one past the highest assigned address, or 0 for an empty Image.
func (img *Image) Len() (length int) {
	for _, as := range img.Assignments {
		length = max(length, as.To+1)
	}

	return
}

// All iterates every (address, value) pair in document order, ranges expanded.
func (img *Image) All() iter.Seq2[int, uint64] {
	return func(yield func(address int, value uint64) bool) {
		for _, as := range img.Assignments {
			for address := as.From; address <= as.To; address++ {
				if !yield(address, as.Value) {
					return
				}
			}
		}
	}
}

// Apply writes the Image into buf, last write winning. Values are truncated
// to the width of W. No cell is modified unless every address fits in buf.
func Apply[W Word](img *Image, buf []W) (err error) {
	for _, as := range img.Assignments {
		if as.To >= len(buf) {
			err = &ErrDecode{
				LineNo: as.LineNo,
				Line:   as.Line,
				Err:    &ErrOutOfRange{Address: as.To, Limit: len(buf)},
			}
			return
		}
	}

	for address, value := range img.All() {
		buf[address] = W(value)
	}

	return
}

// Words returns the full 16-bit address space with the Image applied over zeros.
func (img *Image) Words() (words []uint16) {
	words = make([]uint16, ADDRESS_LIMIT)

	// Decode() has already range checked every address.
	_ = Apply(img, words)

	return
}

// Bytes returns the assigned prefix of memory as bytes, Len() long.
func (img *Image) Bytes() (data []byte) {
	data = make([]byte, img.Len())

	_ = Apply(img, data)

	return
}

// DecodeCharmap decodes a charmap MIF into an 8 pixel wide image with one
// row per address. Bit 7 of a row value is the leftmost pixel; set bits are
// opaque white and clear bits opaque black. Unassigned rows stay transparent.
func DecodeCharmap(input io.Reader) (glyphs *image.RGBA, err error) {
	img, err := Decode(input)
	if err != nil {
		return
	}

	for _, as := range img.Assignments {
		if as.To >= CHARMAP_ROWS {
			err = &ErrDecode{
				LineNo: as.LineNo,
				Line:   as.Line,
				Err:    &ErrOutOfRange{Address: as.To, Limit: CHARMAP_ROWS},
			}
			return
		}
	}

	glyphs = image.NewRGBA(image.Rect(0, 0, CHARMAP_WIDTH, CHARMAP_ROWS))

	for row, value := range img.All() {
		for x := range CHARMAP_WIDTH {
			level := uint8(0)
			if (value>>(7-x))&1 != 0 {
				level = 0xff
			}
			glyphs.SetRGBA(x, row, color.RGBA{R: level, G: level, B: level, A: 0xff})
		}
	}

	return
}
