package session

import (
	"context"
	"errors"
)

// ErrCancelled is returned by Display.Prompt when the user aborts input.
var ErrCancelled = errors.New("input cancelled")

type KeyKind int

const (
	KeyRune KeyKind = iota
	KeyEnter
	KeyBackspace
	KeyEscape
	// Ctrl-C while the terminal is in raw mode
	KeyInterrupt
)

// Key is one keypress delivered by the display's input task.
type Key struct {
	Kind KeyKind
	Rune rune
}

func RuneKey(r rune) Key {
	return Key{Kind: KeyRune, Rune: r}
}

func (k Key) String() string {
	switch k.Kind {
	case KeyRune:
		return string(k.Rune)
	case KeyEnter:
		return "Enter"
	case KeyBackspace:
		return "Backspace"
	case KeyEscape:
		return "Esc"
	case KeyInterrupt:
		return "Ctrl-C"
	}
	return "?"
}

// Display is a fixed set of addressable text lines plus keyboard input.
type Display interface {
	// replaces the text of one line; out of range lines are ignored
	Set(line int, text string)
	// reads a line of text on the given line, consuming Keys until Enter
	Prompt(ctx context.Context, line int, prompt string) (string, error)
	// closed when the input task stops
	Keys() <-chan Key
}
