// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/ezrec/emu16/charmap"
	"github.com/ezrec/emu16/cpu"
	"github.com/ezrec/emu16/emulator"
	"github.com/ezrec/emu16/mif"
)

func main() {
	var compile string
	var memory string
	var font string
	var palette string
	var ticks int
	var interactive bool
	var output string
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to compile and load")
	flag.StringVar(&memory, "m", "", ".mif file to preload into memory")
	flag.StringVar(&font, "k", "", ".mif charmap file")
	flag.StringVar(&palette, "p", "", "Comma separated #RRGGBB palette")
	flag.IntVar(&ticks, "n", 0, "Maximum ticks to run, 0 to run until halted")
	flag.BoolVar(&interactive, "i", false, "Interactive stepping")
	flag.StringVar(&output, "o", "", "Screen image to write (.png or .bmp)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	colors := charmap.DefaultPalette
	if len(palette) != 0 {
		var err error
		colors, err = parsePalette(palette)
		if err != nil {
			log.Fatalf("-p %v: %v", palette, err)
		}
	}

	cm, err := loadCharMap(font, colors)
	if err != nil {
		log.Fatalf("%v: %v", font, err)
	}

	machine := cpu.NewCpu()
	machine.Verbose = verbose

	emu := emulator.NewEmulator(machine)
	emu.Verbose = verbose
	emu.Assembler = &cpu.Assembler{Verbose: verbose}
	emu.SetCharMap(cm)

	if verbose {
		emu.Subscribe(func(delta emulator.Delta) {
			log.Print(describe(delta))
		})
	}

	// Compile a new program, or run an empty memory.
	if len(compile) != 0 {
		text, err := os.ReadFile(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		err = emu.LoadAsm(string(text))
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	} else {
		err = emu.Load(nil, "")
		if err != nil {
			log.Fatal(err)
		}
	}

	if len(memory) != 0 {
		inf, err := os.Open(memory)
		if err != nil {
			log.Fatalf("%v: %v", memory, err)
		}
		err = emu.LoadMif(inf)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", memory, err)
		}
	}

	if interactive {
		err = runInteractive(emu, os.Stdin, os.Stdout)
	} else {
		err = run(emu, ticks)
	}
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(registers(emu))

	if len(output) != 0 {
		err = writeScreen(output, emu.Screen)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
	}
}

// run ticks the emulator until it halts, or for at most limit ticks.
// Tick errors are logged, and execution continues.
func run(emu *emulator.Emulator, limit int) (err error) {
	for n := 0; limit == 0 || n < limit; n++ {
		var stepped bool
		stepped, err = emu.Tick()
		if err != nil {
			log.Print(err)
			err = nil
		}
		if !stepped {
			break
		}
	}

	return
}

// loadCharMap decodes a MIF charmap, or creates an empty font.
func loadCharMap(path string, colors color.Palette) (cm *charmap.CharMap, err error) {
	if len(path) == 0 {
		cm, err = charmap.New(colors)
		return
	}

	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	glyphs, err := mif.DecodeCharmap(inf)
	if err != nil {
		return
	}

	cm, err = charmap.FromImage(glyphs, colors)

	return
}

// writeScreen saves the screen, as BMP or PNG by file extension.
func writeScreen(path string, screen image.Image) (err error) {
	ouf, err := os.Create(path)
	if err != nil {
		return
	}
	defer func() {
		cerr := ouf.Close()
		if err == nil {
			err = cerr
		}
	}()

	err = encodeScreen(ouf, filepath.Ext(path), screen)

	return
}

func encodeScreen(w io.Writer, ext string, screen image.Image) (err error) {
	switch strings.ToLower(ext) {
	case ".bmp":
		err = bmp.Encode(w, screen)
	default:
		err = png.Encode(w, screen)
	}

	return
}

// registers formats the register file on one line.
func registers(emu *emulator.Emulator) string {
	text := emulator.RegisterDelta{Registers: emu.Registers()}.Text()
	fields := make([]string, len(text))
	for n := range text {
		fields[n] = cpu.CodeReg(n).String() + "=" + text[n]
	}

	return strings.Join(fields, " ")
}
