package subtitle

import (
	"time"
)

// represents single subtitle entry
type Entry struct {
	// 1-based position in the store, rewritten after every mutation
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	// single line, never contains a newline
	Text string
}

// represents supported export formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// length given to new entries when the caller does not pick one
const DefaultDuration = 200 * time.Millisecond

// renumber rewrites Index so it matches sequence position.
func renumber(entries []Entry) {
	for i := range entries {
		entries[i].Index = i + 1
	}
}
