package subtitle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\ufeff"

var timeRangeRegex = regexp.MustCompile(`^(\S+) --> (\S+)$`)

// plain positive decimal, so a save writes the index line back unchanged
var indexRegex = regexp.MustCompile(`^[1-9][0-9]*$`)

// Store is the ordered, file backed collection of entries. Every mutation is
// written to disk before it returns; a failed mutation changes nothing.
type Store struct {
	mu              sync.Mutex
	path            string
	entries         []Entry
	bom             bool
	trailer         string
	defaultDuration time.Duration
}

type Option func(*Store)

// WithDefaultDuration sets the length used by Add when none is given.
func WithDefaultDuration(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.defaultDuration = d
		}
	}
}

// Open loads the store backed by path.
func Open(path string, opts ...Option) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	s := &Store{
		path:            path,
		defaultDuration: DefaultDuration,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.decode(string(data)); err != nil {
		return nil, err
	}
	return s, nil
}

// Create makes an empty backing file at path unless one exists, then opens it.
func Create(path string, opts ...Option) (*Store, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	switch {
	case err == nil:
		if err := file.Close(); err != nil {
			return nil, &IOError{Op: "create", Path: path, Err: err}
		}
	case errors.Is(err, fs.ErrExist):
	default:
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}
	return Open(path, opts...)
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns a copy of the current sequence.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Add inserts a new entry starting at start, placed before the first entry
// whose start is strictly later. A non-positive duration falls back to the
// store default.
func (s *Store) Add(
	start time.Duration,
	text string,
	duration time.Duration,
) (Entry, error) {
	if start < 0 {
		return Entry{}, fmt.Errorf("start %v is negative", start)
	}
	text, err := normalizeText(text)
	if err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if duration <= 0 {
		duration = s.defaultDuration
	}
	end := start + duration
	if end < start {
		return Entry{}, fmt.Errorf("%w: start %v plus duration %v", ErrTimeOverflow, start, duration)
	}

	pos := insertionPoint(s.entries, start)
	next := make([]Entry, 0, len(s.entries)+1)
	next = append(next, s.entries[:pos]...)
	next = append(next, Entry{
		StartTime: start,
		EndTime:   end,
		Text:      text,
	})
	next = append(next, s.entries[pos:]...)
	renumber(next)

	if err := s.commit(next); err != nil {
		return Entry{}, err
	}
	return next[pos], nil
}

// SetText replaces the text of the entry with the given 1-based index.
func (s *Store) SetText(index int, text string) error {
	text, err := normalizeText(text)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIndex(index); err != nil {
		return err
	}

	next := make([]Entry, len(s.entries))
	copy(next, s.entries)
	next[index-1].Text = text

	return s.commit(next)
}

// Remove deletes the entry with the given 1-based index and renumbers the rest.
func (s *Store) Remove(index int) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkIndex(index); err != nil {
		return Entry{}, err
	}

	removed := s.entries[index-1]
	next := make([]Entry, 0, len(s.entries)-1)
	next = append(next, s.entries[:index-1]...)
	next = append(next, s.entries[index:]...)
	renumber(next)

	if err := s.commit(next); err != nil {
		return Entry{}, err
	}
	return removed, nil
}

// Save rewrites the backing file from memory.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(s.entries)
}

func (s *Store) checkIndex(index int) error {
	if index < 1 || index > len(s.entries) {
		return fmt.Errorf(
			"index %d out of range (1-%d)",
			index,
			len(s.entries),
		)
	}
	return nil
}

// commit persists next and only then makes it the in-memory state.
func (s *Store) commit(next []Entry) error {
	data := s.encode(next)
	if err := writeFileAtomic(s.path, data); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	s.entries = next
	return nil
}

// first entry strictly later than start, or len(entries)
func insertionPoint(entries []Entry, start time.Duration) int {
	for i, entry := range entries {
		if entry.StartTime > start {
			return i
		}
	}
	return len(entries)
}

func normalizeText(text string) (string, error) {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return "", ErrEmptyText
	}
	if strings.ContainsAny(text, "\r\n") {
		return "", ErrMultilineText
	}
	return text, nil
}

func (s *Store) decode(content string) error {
	if strings.HasPrefix(content, utf8BOM) {
		s.bom = true
		content = content[len(utf8BOM):]
	}

	body := strings.TrimRight(content, "\n")
	if body == "" {
		s.trailer = "\n"
		s.entries = nil
		return nil
	}
	s.trailer = content[len(body):]

	blocks := strings.Split(body, "\n\n")
	entries := make([]Entry, 0, len(blocks))
	for i, block := range blocks {
		entry, err := decodeBlock(block)
		if err != nil {
			err.Path = s.path
			err.Block = i + 1
			return err
		}
		entries = append(entries, entry)
	}
	renumber(entries)

	s.entries = entries
	return nil
}

func decodeBlock(block string) (Entry, *ParseError) {
	lines := strings.Split(block, "\n")
	if len(lines) != 3 {
		return Entry{}, &ParseError{
			Reason: fmt.Sprintf(
				"expected 3 lines (index, time range, text), got %d",
				len(lines),
			),
		}
	}

	if !indexRegex.MatchString(lines[0]) {
		return Entry{}, &ParseError{
			Reason: fmt.Sprintf("invalid index %q", lines[0]),
		}
	}

	matches := timeRangeRegex.FindStringSubmatch(lines[1])
	if matches == nil {
		return Entry{}, &ParseError{
			Reason: fmt.Sprintf("invalid time range %q", lines[1]),
		}
	}
	start, err := ParseTime(matches[1])
	if err != nil {
		return Entry{}, &ParseError{Reason: "invalid start time", Err: err}
	}
	end, err := ParseTime(matches[2])
	if err != nil {
		return Entry{}, &ParseError{Reason: "invalid end time", Err: err}
	}
	if end < start {
		return Entry{}, &ParseError{
			Reason: fmt.Sprintf("end %s is before start %s", matches[2], matches[1]),
		}
	}

	return Entry{
		StartTime: start,
		EndTime:   end,
		Text:      lines[2],
	}, nil
}

func (s *Store) encode(entries []Entry) []byte {
	var sb strings.Builder
	if s.bom {
		sb.WriteString(utf8BOM)
	}
	if len(entries) == 0 {
		return []byte(sb.String())
	}

	writeBlocks(&sb, entries)
	sb.WriteString(s.trailer)
	return []byte(sb.String())
}

// writeBlocks emits entries as blank line separated three line blocks with
// no trailing newline after the last one.
func writeBlocks(sb *strings.Builder, entries []Entry) {
	for i, entry := range entries {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		// index (1-based)
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteByte('\n')
		sb.WriteString(FormatTime(entry.StartTime))
		sb.WriteString(" --> ")
		sb.WriteString(FormatTime(entry.EndTime))
		sb.WriteByte('\n')
		sb.WriteString(entry.Text)
	}
}
