package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/ezrec/emu16/emulator"
)

// runInteractive steps the emulator from single key presses: space or
// enter steps, 'r' runs until halted, 'q' quits. The terminal is put in
// raw mode when input is one.
func runInteractive(emu *emulator.Emulator, input *os.File, output io.Writer) (err error) {
	fd := int(input.Fd())
	if term.IsTerminal(fd) {
		var state *term.State
		state, err = term.MakeRaw(fd)
		if err != nil {
			return
		}
		defer func() {
			_ = term.Restore(fd, state)
		}()
	}

	err = interact(emu, bufio.NewReader(input), output)

	return
}

func interact(emu *emulator.Emulator, keys io.ByteReader, output io.Writer) (err error) {
	fmt.Fprintf(output, "%v\r\n", registers(emu))

	for !emu.Halted() {
		var key byte
		key, err = keys.ReadByte()
		if err == io.EOF {
			err = nil
			return
		}
		if err != nil {
			return
		}

		switch key {
		case ' ', '\r', '\n':
			_, err = emu.Tick()
		case 'r':
			err = run(emu, 0)
		case 'q', 0x03:
			return
		default:
			continue
		}
		if err != nil {
			fmt.Fprintf(output, "%v\r\n", err)
			err = nil
		}
		fmt.Fprintf(output, "%v\r\n", registers(emu))
	}

	return
}
