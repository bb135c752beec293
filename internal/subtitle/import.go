package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// accepts 00:00:01,000 / 00:00:01.000 / 00:01.000
var cueTimestampRegex = regexp.MustCompile(
	`^(?:(\d{1,}):)?(\d{2}):(\d{2})[,.](\d{3})$`,
)

// Import reads a third party SRT or WebVTT file. Multi-line cue bodies are
// joined with single spaces and the result is ordered by start time.
func Import(path string) ([]Entry, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt", ".vtt":
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", ext)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var entries []Entry
	var block []string
	blockStart := 0
	lineNum := 0

	flush := func() error {
		defer func() { block = nil }()
		entry, ok, err := parseCueBlock(block)
		if err != nil {
			return fmt.Errorf("line %d: %w", blockStart, err)
		}
		if ok {
			entries = append(entries, entry)
		}
		return nil
	}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, utf8BOM)
		}

		if strings.TrimSpace(line) == "" {
			if len(block) > 0 {
				if err := flush(); err != nil {
					return nil, err
				}
			}
			continue
		}

		if len(block) == 0 {
			blockStart = lineNum
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading subtitle file: %w", err)
	}
	if len(block) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartTime < entries[j].StartTime
	})
	renumber(entries)

	return entries, nil
}

// parseCueBlock returns ok=false for blocks that carry no cue (WEBVTT
// header, NOTE, STYLE, REGION) or whose body is empty.
func parseCueBlock(lines []string) (Entry, bool, error) {
	first := strings.TrimSpace(lines[0])
	for _, prefix := range []string{"WEBVTT", "NOTE", "STYLE", "REGION"} {
		if strings.HasPrefix(first, prefix) {
			return Entry{}, false, nil
		}
	}

	arrow := -1
	for i, line := range lines {
		if strings.Contains(line, "-->") {
			arrow = i
			break
		}
	}
	if arrow < 0 {
		return Entry{}, false, nil
	}

	parts := strings.SplitN(lines[arrow], "-->", 2)
	startField := strings.TrimSpace(parts[0])
	// cue settings may follow the end timestamp
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return Entry{}, false, fmt.Errorf("missing end timestamp")
	}

	start, err := parseCueTimestamp(startField)
	if err != nil {
		return Entry{}, false, fmt.Errorf("invalid start timestamp: %w", err)
	}
	end, err := parseCueTimestamp(endFields[0])
	if err != nil {
		return Entry{}, false, fmt.Errorf("invalid end timestamp: %w", err)
	}
	if end < start {
		end = start
	}

	var textParts []string
	for _, line := range lines[arrow+1:] {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			textParts = append(textParts, trimmed)
		}
	}
	if len(textParts) == 0 {
		return Entry{}, false, nil
	}

	return Entry{
		StartTime: start,
		EndTime:   end,
		Text:      strings.Join(textParts, " "),
	}, true, nil
}

func parseCueTimestamp(value string) (time.Duration, error) {
	matches := cueTimestampRegex.FindStringSubmatch(value)
	if matches == nil {
		return 0, &FormatError{Value: value, Reason: "unrecognized timestamp"}
	}

	var hours int64
	if matches[1] != "" {
		h, err := strconv.ParseInt(matches[1], 10, 64)
		if err != nil || h > maxHours {
			return 0, &FormatError{Value: value, Reason: "hours out of range"}
		}
		hours = h
	}
	minutes, _ := strconv.Atoi(matches[2])
	seconds, _ := strconv.Atoi(matches[3])
	millis, _ := strconv.Atoi(matches[4])

	d, ok := composeTime(hours, minutes, seconds, millis)
	if !ok {
		return 0, &FormatError{Value: value, Reason: "time out of range"}
	}
	return d, nil
}
