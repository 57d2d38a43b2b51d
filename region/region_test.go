package region

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const N = 1 << 16

func TestBuildRegions(t *testing.T) {
	table := [](struct {
		name    string
		symbols []Symbol
		regions []Region
	}){
		{"empty", nil, []Region{{"...", 0, N}}},
		{"at zero", []Symbol{{"main", 0}}, []Region{{"main", 0, N}}},
		{"prefix", []Symbol{{"main", 4}}, []Region{{"...", 0, 4}, {"main", 4, N - 4}}},
		{"several", []Symbol{{"main", 0}, {"loop", 6}, {"data", 0x100}}, []Region{
			{"main", 0, 6},
			{"loop", 6, 0x100 - 6},
			{"data", 0x100, N - 0x100},
		}},
		{"last cell", []Symbol{{"top", N - 1}}, []Region{{"...", 0, N - 1}, {"top", N - 1, 1}}},
	}

	for _, entry := range table {
		regions, err := BuildRegions(entry.symbols, N)
		assert.NoError(t, err, entry.name)
		assert.Equal(t, entry.regions, regions, entry.name)

		// Partition property.
		next := 0
		for _, r := range regions {
			assert.Equal(t, next, r.Start, entry.name)
			next = r.End()
		}
		assert.Equal(t, N, next, entry.name)
	}
}

func TestBuildRegionsConflict(t *testing.T) {
	assert := assert.New(t)

	regions, err := BuildRegions([]Symbol{{"R0", 7}, {"AND_ALSO", 7}}, N)
	assert.Nil(regions)

	var conflict *ErrConflict
	if assert.ErrorAs(err, &conflict) {
		assert.Equal(&ErrConflict{Name: "AND_ALSO", Other: "R0", Address: 7}, conflict)
	}
}

func TestBuildRegionsErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := BuildRegions([]Symbol{{"b", 9}, {"a", 3}}, N)
	assert.ErrorIs(err, ErrOrder)

	_, err = BuildRegions([]Symbol{{"far", 16}}, 16)
	var bounds *ErrOutOfRange
	if assert.ErrorAs(err, &bounds) {
		assert.Equal("far", bounds.Name)
		assert.Equal(16, bounds.Limit)
	}
}

func TestParseSymbols(t *testing.T) {
	assert := assert.New(t)

	text := []string{
		"; symbols",
		"loop = 12",
		"main = 0",
		"",
		"data=0x100",
		"octal = 010",
		"upper = 0X20",
	}

	symbols, err := ParseSymbols(strings.NewReader(strings.Join(text, "\n")))
	require.NoError(t, err)

	assert.Equal([]Symbol{{"main", 0}, {"octal", 10}, {"loop", 12}, {"upper", 0x20}, {"data", 0x100}}, symbols)
}

func TestParseSymbolsDecimalOnly(t *testing.T) {
	for _, address := range []string{"0o17", "0b101", "1_000", "0x", "-1"} {
		_, err := ParseSymbols(strings.NewReader("main = " + address))
		var syntax *ErrSymbolSyntax
		assert.ErrorAs(t, err, &syntax, address)
	}
}

func TestParseSymbolsSyntax(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseSymbols(strings.NewReader("main = 0\nloop = twelve"))

	var syntax *ErrSymbolSyntax
	if assert.ErrorAs(err, &syntax) {
		assert.Equal(2, syntax.LineNo)
		assert.Equal("loop = twelve", syntax.Line)
	}

	_, err = ParseSymbols(strings.NewReader(" = 4"))
	assert.ErrorAs(err, &syntax)
}

func TestFind(t *testing.T) {
	assert := assert.New(t)

	regions, err := BuildRegions([]Symbol{{"main", 4}, {"data", 10}}, 16)
	require.NoError(t, err)

	assert.Equal(0, Find(regions, 0))
	assert.Equal(0, Find(regions, 3))
	assert.Equal(1, Find(regions, 4))
	assert.Equal(1, Find(regions, 9))
	assert.Equal(2, Find(regions, 10))
	assert.Equal(2, Find(regions, 15))
	assert.Equal(-1, Find(regions, 16))
	assert.Equal(-1, Find(nil, 0))
}
