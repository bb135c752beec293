package playback

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mgpai22/subscrub/internal/subtitle"
)

const (
	// offset at which the progress bar is full
	ProgressWindow = 5 * time.Second
	// display width of the bar including its two border glyphs
	DefaultBarWidth = 22
	// captions shown from the cursor position onwards
	DefaultWindowSize = 3
)

// Cue is the part of an entry the cursor needs.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Cursor tracks which cue is next relative to a playback clock. It works on
// a snapshot: edits made to the store after construction are not seen.
// Not safe for concurrent use.
type Cursor struct {
	cues       []Cue
	position   int
	boundary   time.Duration
	windowSize int
	barTicks   int
	singleStep bool
}

type CursorOption func(*Cursor)

// WithWindowSize sets how many captions Window returns.
func WithWindowSize(n int) CursorOption {
	return func(c *Cursor) {
		if n > 0 {
			c.windowSize = n
		}
	}
}

// WithBarWidth sets the full bar width, border glyphs included.
func WithBarWidth(width int) CursorOption {
	return func(c *Cursor) {
		if width > 2 {
			c.barTicks = width - 2
		}
	}
}

// WithSingleStep makes Advance move at most one cue per call and never
// backwards, instead of locating the cue for the sampled time.
func WithSingleStep() CursorOption {
	return func(c *Cursor) {
		c.singleStep = true
	}
}

func NewCursor(entries []subtitle.Entry, opts ...CursorOption) *Cursor {
	cues := make([]Cue, len(entries))
	for i, entry := range entries {
		cues[i] = Cue{
			Start: entry.StartTime,
			End:   entry.EndTime,
			Text:  entry.Text,
		}
	}

	c := &Cursor{
		cues:       cues,
		windowSize: DefaultWindowSize,
		barTicks:   DefaultBarWidth - 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	if len(cues) > 0 {
		c.boundary = cues[0].Start
	}
	return c
}

func (c *Cursor) Position() int {
	return c.position
}

// Boundary is the start of the cue at Position.
func (c *Cursor) Boundary() time.Duration {
	return c.boundary
}

func (c *Cursor) Len() int {
	return len(c.cues)
}

// Advance feeds a playback sample and reports whether the position moved.
func (c *Cursor) Advance(now time.Duration) bool {
	if len(c.cues) == 0 {
		return false
	}
	if c.singleStep {
		return c.step(now)
	}
	return c.locate(now)
}

func (c *Cursor) step(now time.Duration) bool {
	if c.boundary > now {
		return false
	}
	if c.position >= len(c.cues)-1 {
		return false
	}
	c.position++
	c.boundary = c.cues[c.position].Start
	return true
}

// locate moves to the first cue starting strictly after now, or the last
// cue once every start has passed. Seeks in either direction land on the
// right cue in one sample.
func (c *Cursor) locate(now time.Duration) bool {
	last := len(c.cues) - 1
	if c.boundary > now && (c.position == 0 || c.cues[c.position-1].Start <= now) {
		return false
	}

	next := sort.Search(len(c.cues), func(i int) bool {
		return c.cues[i].Start > now
	})
	if next > last {
		next = last
	}
	if next == c.position {
		return false
	}
	c.position = next
	c.boundary = c.cues[next].Start
	return true
}

// Active returns the cue whose interval contains now.
func (c *Cursor) Active(now time.Duration) (Cue, bool) {
	i := sort.Search(len(c.cues), func(i int) bool {
		return c.cues[i].Start > now
	}) - 1
	// cues do not overlap, so only the latest started one can contain now
	if i >= 0 && c.cues[i].End >= now {
		return c.cues[i], true
	}
	return Cue{}, false
}

// Window returns up to the configured number of texts starting at Position.
func (c *Cursor) Window() []string {
	if c.position >= len(c.cues) {
		return nil
	}
	end := c.position + c.windowSize
	if end > len(c.cues) {
		end = len(c.cues)
	}
	texts := make([]string, 0, end-c.position)
	for _, cue := range c.cues[c.position:end] {
		texts = append(texts, cue.Text)
	}
	return texts
}

// Progress is the remaining distance to the boundary as a fraction of
// ProgressWindow, clamped to [0, 1].
func (c *Cursor) Progress(now time.Duration) float64 {
	if len(c.cues) == 0 {
		return 0
	}
	return progressFraction(c.boundary - now)
}

func progressFraction(offset time.Duration) float64 {
	if offset >= ProgressWindow {
		return 1
	}
	return math.Max(0, float64(offset)/float64(ProgressWindow))
}

// FilledTicks is the number of filled cells for the bar at now.
func (c *Cursor) FilledTicks(now time.Duration) int {
	return filledTicks(c.barTicks, c.Progress(now))
}

func filledTicks(capacity int, fraction float64) int {
	return int(math.Floor(float64(capacity) * fraction))
}

// ProgressBar renders the bar as [###      ].
func (c *Cursor) ProgressBar(now time.Duration) string {
	filled := c.FilledTicks(now)
	return "[" +
		strings.Repeat("#", filled) +
		strings.Repeat(" ", c.barTicks-filled) +
		"]"
}
