// Package region partitions an address space into named, contiguous regions
// taken from an assembler symbol table.
package region

import (
	"bufio"
	"cmp"
	"io"
	"slices"
	"strconv"
	"strings"
)

// PREFIX_NAME names the synthetic region covering memory before the first symbol.
const PREFIX_NAME = "..."

// Symbol is a named address from a symbol table.
type Symbol struct {
	Name    string
	Address int
}

// Region is a named span [Start, Start+Length) of the address space.
type Region struct {
	Name   string
	Start  int
	Length int
}

// End returns one past the last address of the region.
func (r Region) End() int {
	return r.Start + r.Length
}

// Contains returns true if address lies in the region.
func (r Region) Contains(address int) bool {
	return address >= r.Start && address < r.End()
}

// ParseSymbols reads 'name = address' lines. Lines without '=' are skipped.
// Addresses are decimal, or hexadecimal with a 0x prefix. The result is
// stably sorted by address.
func ParseSymbols(input io.Reader) (symbols []Symbol, err error) {
	scanner := bufio.NewScanner(input)

	var lineno int
	for scanner.Scan() {
		line := scanner.Text()
		lineno++

		name, address, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		name = strings.TrimSpace(name)
		value, perr := parseAddress(strings.TrimSpace(address))
		if len(name) == 0 || perr != nil {
			err = &ErrSymbolSyntax{LineNo: lineno, Line: line}
			return
		}

		symbols = append(symbols, Symbol{Name: name, Address: int(value)})
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	slices.SortStableFunc(symbols, func(a, b Symbol) int {
		return cmp.Compare(a.Address, b.Address)
	})

	return
}

// parseAddress reads a decimal address, or a hexadecimal one with a 0x prefix.
func parseAddress(text string) (value uint64, err error) {
	hex, ok := strings.CutPrefix(strings.ToLower(text), "0x")
	if ok {
		value, err = strconv.ParseUint(hex, 16, 32)
		return
	}

	value, err = strconv.ParseUint(text, 10, 32)
	return
}

// BuildRegions maps address ordered symbols onto a partition of [0, length).
// A region named PREFIX_NAME is prepended when no symbol starts at 0. Each
// region extends to the start of the next, the last one to length.
func BuildRegions(symbols []Symbol, length int) (regions []Region, err error) {
	regions = make([]Region, 0, len(symbols)+1)

	if len(symbols) == 0 || symbols[0].Address > 0 {
		regions = append(regions, Region{Name: PREFIX_NAME, Start: 0})
	}

	for _, sym := range symbols {
		if sym.Address < 0 || sym.Address >= length {
			regions = nil
			err = &ErrOutOfRange{Name: sym.Name, Address: sym.Address, Limit: length}
			return
		}
		if len(regions) > 0 {
			last := regions[len(regions)-1]
			if last.Start == sym.Address {
				regions = nil
				err = &ErrConflict{Name: sym.Name, Other: last.Name, Address: sym.Address}
				return
			}
			if last.Start > sym.Address {
				regions = nil
				err = ErrOrder
				return
			}
		}
		regions = append(regions, Region{Name: sym.Name, Start: sym.Address})
	}

	for n := range regions {
		end := length
		if n+1 < len(regions) {
			end = regions[n+1].Start
		}
		regions[n].Length = end - regions[n].Start
	}

	return
}

// Find returns the index of the region containing address, or -1.
func Find(regions []Region, address int) int {
	n, found := slices.BinarySearchFunc(regions, address, func(r Region, address int) int {
		return cmp.Compare(r.Start, address)
	})
	if found {
		return n
	}
	if n > 0 && regions[n-1].Contains(address) {
		return n - 1
	}

	return -1
}
