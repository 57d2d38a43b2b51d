package machine

// Effect is a side effect reported by Machine.Step. The set of effects is
// closed: Store, Write and Halt.
type Effect interface {
	effect()
}

// Store reports that a memory cell changed.
type Store struct {
	Address uint16
	Value   uint16
}

// Write reports a character output to the screen.
type Write struct {
	Char   uint16 // Glyph in the low byte, palette composite in the high byte.
	Offset uint16 // Character cell of the screen, row major.
}

// Halt reports that the machine stopped.
type Halt struct{}

func (Store) effect() {}
func (Write) effect() {}
func (Halt) effect()  {}
