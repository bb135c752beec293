package subtitle

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:01,200
first

2
00:00:05,000 --> 00:00:05,200
second

3
00:00:09,000 --> 00:00:09,200
third
`

func writeStoreFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "captions.srt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func startTimes(entries []Entry) []time.Duration {
	out := make([]time.Duration, len(entries))
	for i, entry := range entries {
		out[i] = entry.StartTime
	}
	return out
}

func assertOrdered(t *testing.T, entries []Entry) {
	t.Helper()
	for i, entry := range entries {
		if entry.Index != i+1 {
			t.Fatalf("entry %d has index %d", i, entry.Index)
		}
		if i > 0 && entries[i-1].StartTime > entry.StartTime {
			t.Fatalf(
				"entries %d and %d out of order: %v > %v",
				i-1, i, entries[i-1].StartTime, entry.StartTime,
			)
		}
	}
}

func TestOpenParsesEntries(t *testing.T) {
	store, err := Open(writeStoreFile(t, sampleSRT))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	entries := store.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[1].StartTime != 5*time.Second {
		t.Errorf("entry 1: expected start 5s, got %v", entries[1].StartTime)
	}
	if entries[1].EndTime != 5200*time.Millisecond {
		t.Errorf("entry 1: expected end 5.2s, got %v", entries[1].EndTime)
	}
	if entries[2].Text != "third" {
		t.Errorf("entry 2: expected 'third', got %q", entries[2].Text)
	}
	assertOrdered(t, entries)
}

func TestSaveRoundTripIsByteIdentical(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"trailing newline", sampleSRT},
		{"no trailing newline", strings.TrimSuffix(sampleSRT, "\n")},
		{"trailing blank line", sampleSRT + "\n"},
		{"byte order mark", "\ufeff" + sampleSRT},
		{"empty", ""},
		{"large hours", "1\n100:00:00,000 --> 100:00:00,200\nlate\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeStoreFile(t, tt.content)
			store, err := Open(path)
			if err != nil {
				t.Fatalf("Open returned error: %v", err)
			}
			if err := store.Save(); err != nil {
				t.Fatalf("Save returned error: %v", err)
			}
			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read back: %v", err)
			}
			if string(got) != tt.content {
				t.Errorf("round trip changed content:\n got %q\nwant %q", got, tt.content)
			}
		})
	}
}

func TestOpenRejectsMalformedBlocks(t *testing.T) {
	tests := []struct {
		name    string
		content string
		format  bool
	}{
		{"missing text line", "1\n00:00:01,000 --> 00:00:02,000\n", false},
		{"extra line", "1\n00:00:01,000 --> 00:00:02,000\na\nb\n", false},
		{"no arrow", "1\n00:00:01,000 00:00:02,000\ntext\n", false},
		{"bad index", "one\n00:00:01,000 --> 00:00:02,000\ntext\n", false},
		{"signed index", "+1\n00:00:01,000 --> 00:00:02,000\ntext\n", false},
		{"negative index", "-3\n00:00:01,000 --> 00:00:02,000\ntext\n", false},
		{"zero padded index", "007\n00:00:01,000 --> 00:00:02,000\ntext\n", false},
		{"zero index", "0\n00:00:01,000 --> 00:00:02,000\ntext\n", false},
		{"bad start", "1\n00:00:01.000 --> 00:00:02,000\ntext\n", true},
		{"bad end", "1\n00:00:01,000 --> 00:0:02,000\ntext\n", true},
		{"end before start", "1\n00:00:03,000 --> 00:00:02,000\ntext\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(writeStoreFile(t, tt.content))
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if parseErr.Block != 1 {
				t.Errorf("expected block 1, got %d", parseErr.Block)
			}
			var formatErr *FormatError
			if tt.format != errors.As(err, &formatErr) {
				t.Errorf("FormatError in chain = %v, want %v", !tt.format, tt.format)
			}
		})
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.srt"))
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *IOError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestAddInsertsInStartOrder(t *testing.T) {
	path := writeStoreFile(t, sampleSRT)
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	entry, err := store.Add(3*time.Second, "new", 200*time.Millisecond)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if entry.Index != 2 {
		t.Errorf("expected new entry at index 2, got %d", entry.Index)
	}
	if entry.EndTime != 3200*time.Millisecond {
		t.Errorf("expected end 3.2s, got %v", entry.EndTime)
	}

	entries := store.Entries()
	want := []time.Duration{time.Second, 3 * time.Second, 5 * time.Second, 9 * time.Second}
	got := startTimes(entries)
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("start %d: got %v, want %v", i, got[i], want[i])
		}
	}
	assertOrdered(t, entries)

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	if len(reloaded.Entries()) != 4 || reloaded.Entries()[1].Text != "new" {
		t.Errorf("file does not reflect the insert: %+v", reloaded.Entries())
	}
}

func TestAddAtExtremes(t *testing.T) {
	store, err := Open(writeStoreFile(t, sampleSRT))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	if _, err := store.Add(0, "earliest", 0); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if _, err := store.Add(time.Hour, "latest", 0); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	entries := store.Entries()
	if entries[0].Text != "earliest" {
		t.Errorf("expected earliest first, got %q", entries[0].Text)
	}
	if entries[len(entries)-1].Text != "latest" {
		t.Errorf("expected latest last, got %q", entries[len(entries)-1].Text)
	}
	if entries[0].EndTime-entries[0].StartTime != DefaultDuration {
		t.Errorf("expected default duration, got %v", entries[0].EndTime-entries[0].StartTime)
	}
	assertOrdered(t, entries)
}

func TestAddEqualStartGoesBeforeNextLater(t *testing.T) {
	store, err := Open(writeStoreFile(t, sampleSRT))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	if _, err := store.Add(5*time.Second, "tie one", 0); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if _, err := store.Add(5*time.Second, "tie two", 0); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	var texts []string
	for _, entry := range store.Entries() {
		texts = append(texts, entry.Text)
	}
	want := []string{"first", "second", "tie one", "tie two", "third"}
	if strings.Join(texts, "|") != strings.Join(want, "|") {
		t.Errorf("got order %v, want %v", texts, want)
	}
}

func TestAddSequenceKeepsInvariants(t *testing.T) {
	path := writeStoreFile(t, "")
	store, err := Open(path, WithDefaultDuration(time.Second))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	starts := []int{7000, 100, 5000, 5000, 0, 12000, 3000, 100, 99999}
	for _, ms := range starts {
		if _, err := store.Add(time.Duration(ms)*time.Millisecond, "x", 0); err != nil {
			t.Fatalf("Add(%d) returned error: %v", ms, err)
		}
		assertOrdered(t, store.Entries())
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	assertOrdered(t, reloaded.Entries())
	if reloaded.Len() != len(starts) {
		t.Errorf("expected %d entries on disk, got %d", len(starts), reloaded.Len())
	}
	if d := reloaded.Entries()[0].EndTime - reloaded.Entries()[0].StartTime; d != time.Second {
		t.Errorf("expected configured default duration 1s, got %v", d)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if !strings.HasSuffix(string(data), "x\n") {
		t.Errorf("expected new file to end with a single newline, got %q", data)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	path := writeStoreFile(t, sampleSRT)
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	if _, err := store.Add(-time.Millisecond, "neg", 0); err == nil {
		t.Error("expected error for negative start")
	}
	if _, err := store.Add(time.Second, "   ", 0); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
	if _, err := store.Add(time.Second, "two\nlines", 0); !errors.Is(err, ErrMultilineText) {
		t.Errorf("expected ErrMultilineText, got %v", err)
	}
	if _, err := store.Add(time.Hour, "too long", math.MaxInt64); !errors.Is(err, ErrTimeOverflow) {
		t.Errorf("expected ErrTimeOverflow, got %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != sampleSRT {
		t.Error("rejected adds must not touch the file")
	}
	if store.Len() != 3 {
		t.Errorf("rejected adds must not touch memory, have %d entries", store.Len())
	}
}

func TestAddNormalizesText(t *testing.T) {
	store, err := Open(writeStoreFile(t, ""))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	// "e" followed by a combining acute accent
	entry, err := store.Add(0, "  cafe\u0301  ", 0)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if entry.Text != "caf\u00e9" {
		t.Errorf("expected NFC text, got %q", entry.Text)
	}
}

func TestFailedWriteLeavesStoreUnchanged(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "captions.srt")
	if err := os.WriteFile(path, []byte(sampleSRT), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	if err := os.Chmod(dir, 0555); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}
	defer func() { _ = os.Chmod(dir, 0755) }()

	_, err = store.Add(3*time.Second, "new", 0)
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *IOError, got %v", err)
	}
	if store.Len() != 3 {
		t.Errorf("expected 3 entries after failed add, got %d", store.Len())
	}
	data, _ := os.ReadFile(path)
	if string(data) != sampleSRT {
		t.Error("failed add must leave the file untouched")
	}
}

func TestSetTextAndRemove(t *testing.T) {
	path := writeStoreFile(t, sampleSRT)
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	if err := store.SetText(2, "changed"); err != nil {
		t.Fatalf("SetText returned error: %v", err)
	}
	if err := store.SetText(4, "nope"); err == nil {
		t.Error("expected error for out of range index")
	}

	removed, err := store.Remove(1)
	if err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if removed.Text != "first" {
		t.Errorf("removed wrong entry: %+v", removed)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	entries := reloaded.Entries()
	if len(entries) != 2 || entries[0].Text != "changed" || entries[0].Index != 1 {
		t.Errorf("unexpected entries after edit: %+v", entries)
	}
}

func TestCreateKeepsExistingFile(t *testing.T) {
	path := writeStoreFile(t, sampleSRT)
	store, err := Create(path)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if store.Len() != 3 {
		t.Errorf("Create must not truncate, have %d entries", store.Len())
	}

	fresh := filepath.Join(t.TempDir(), "new.srt")
	store, err = Create(fresh)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d entries", store.Len())
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("expected file to exist: %v", err)
	}
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	path := writeStoreFile(t, "")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.Add(time.Duration(i*37%11)*time.Second, "c", 0); err != nil {
				t.Errorf("Add returned error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	if reloaded.Len() != 20 {
		t.Errorf("expected 20 entries on disk, got %d", reloaded.Len())
	}
	assertOrdered(t, reloaded.Entries())
}

func TestLockIsExclusive(t *testing.T) {
	path := writeStoreFile(t, sampleSRT)

	first, err := Lock(path)
	if err != nil {
		t.Fatalf("Lock returned error: %v", err)
	}

	if _, err := Lock(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock returned error: %v", err)
	}

	second, err := Lock(path)
	if err != nil {
		t.Fatalf("Lock after unlock returned error: %v", err)
	}
	_ = second.Unlock()
}

func TestSaveKeepsPermissionsAndLeavesNoTempFiles(t *testing.T) {
	path := writeStoreFile(t, sampleSRT)
	if err := os.Chmod(path, 0600); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	if _, err := store.Add(2*time.Second, "new", 0); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600 to survive the rewrite, got %v", info.Mode().Perm())
	}

	files, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = f.Name()
		}
		t.Errorf("expected only the subtitle file, found %v", names)
	}
}
