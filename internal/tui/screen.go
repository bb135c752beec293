package tui

import (
	"context"
	"errors"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/mgpai22/subscrub/internal/session"
)

// ErrClosed is returned by Prompt once the screen has been closed.
var ErrClosed = errors.New("screen closed")

// Screen is a line-addressable terminal display. Keys are read by a
// dedicated input goroutine and delivered on Keys.
type Screen struct {
	screen tcell.Screen
	style  tcell.Style

	mu    sync.Mutex
	lines []string

	keys chan session.Key
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

var _ session.Display = (*Screen)(nil)

// New takes over the terminal with room for the given number of lines.
func New(lines int) (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return newScreen(s, lines), nil
}

func newScreen(s tcell.Screen, lines int) *Screen {
	if lines < 1 {
		lines = 1
	}
	scr := &Screen{
		screen: s,
		style:  tcell.StyleDefault,
		lines:  make([]string, lines),
		keys:   make(chan session.Key),
		done:   make(chan struct{}),
	}
	s.SetStyle(scr.style)
	s.HideCursor()
	s.Clear()
	s.Show()

	scr.wg.Add(1)
	go scr.readInput()
	return scr
}

func (s *Screen) readInput() {
	defer s.wg.Done()
	defer close(s.keys)

	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			s.mu.Lock()
			s.screen.Sync()
			s.drawLocked()
			s.mu.Unlock()
		case *tcell.EventKey:
			key, ok := translate(ev)
			if !ok {
				continue
			}
			select {
			case s.keys <- key:
			case <-s.done:
				return
			}
		case *tcell.EventInterrupt:
			return
		}
	}
}

func translate(ev *tcell.EventKey) (session.Key, bool) {
	switch ev.Key() {
	case tcell.KeyRune:
		return session.RuneKey(ev.Rune()), true
	case tcell.KeyEnter:
		return session.Key{Kind: session.KeyEnter}, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return session.Key{Kind: session.KeyBackspace}, true
	case tcell.KeyEscape:
		return session.Key{Kind: session.KeyEscape}, true
	case tcell.KeyCtrlC:
		return session.Key{Kind: session.KeyInterrupt}, true
	}
	return session.Key{}, false
}

func (s *Screen) Keys() <-chan session.Key {
	return s.keys
}

func (s *Screen) Set(line int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if line < 0 || line >= len(s.lines) {
		return
	}
	if s.lines[line] == text {
		return
	}
	s.lines[line] = text
	s.drawLocked()
}

// Line returns the current text of a line.
func (s *Screen) Line(line int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if line < 0 || line >= len(s.lines) {
		return ""
	}
	return s.lines[line]
}

// Prompt edits a line of input in place. It must be called from the
// goroutine that consumes Keys.
func (s *Screen) Prompt(ctx context.Context, line int, prompt string) (string, error) {
	var input []rune
	render := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		width, _ := s.screen.Size()
		clearLine(s.screen, line, width)
		x := drawText(s.screen, 0, line, width, s.style, prompt+" "+string(input))
		s.screen.ShowCursor(x, line)
		s.screen.Show()
	}
	defer func() {
		s.mu.Lock()
		s.screen.HideCursor()
		s.drawLocked()
		s.mu.Unlock()
	}()

	render()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case key, ok := <-s.keys:
			if !ok {
				return "", ErrClosed
			}
			switch key.Kind {
			case session.KeyEnter:
				return string(input), nil
			case session.KeyEscape, session.KeyInterrupt:
				return "", session.ErrCancelled
			case session.KeyBackspace:
				if len(input) > 0 {
					input = input[:len(input)-1]
				}
			case session.KeyRune:
				input = append(input, key.Rune)
			}
			render()
		}
	}
}

// Close restores the terminal and stops the input goroutine.
func (s *Screen) Close() {
	s.once.Do(func() {
		close(s.done)
		// Fini makes PollEvent return nil
		s.screen.Fini()
		s.wg.Wait()
	})
}

func (s *Screen) drawLocked() {
	s.screen.Clear()
	width, _ := s.screen.Size()
	for i, text := range s.lines {
		drawText(s.screen, 0, i, width, s.style, text)
	}
	s.screen.Show()
}

// drawText writes text from column x, clipped at width, and returns the
// column after the last cell written.
func drawText(scr tcell.Screen, x, y, width int, style tcell.Style, text string) int {
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			w = 1
		}
		if x+w > width {
			break
		}
		scr.SetContent(x, y, r, nil, style)
		x += w
	}
	return x
}

func clearLine(scr tcell.Screen, y, width int) {
	for x := 0; x < width; x++ {
		scr.SetContent(x, y, ' ', nil, tcell.StyleDefault)
	}
}
