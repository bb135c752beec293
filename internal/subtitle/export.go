package subtitle

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ASS style used for exported captions
const (
	assTitle    = "Subscrub Captions"
	assFontName = "Arial"
	assFontSize = 20
)

type encodeFunc func(sb *strings.Builder, entries []Entry)

var encoders = map[Format]encodeFunc{
	FormatSRT: encodeSRT,
	FormatVTT: encodeVTT,
	FormatASS: encodeASS,
}

// Export writes entries to path in the given format. SRT output uses the
// same layout as the store's backing file.
func Export(entries []Entry, format Format, path string) error {
	encode, ok := encoders[format]
	if !ok {
		return fmt.Errorf("unsupported format: %s", format)
	}

	var sb strings.Builder
	encode(&sb, entries)
	if err := writeFileAtomic(path, []byte(sb.String())); err != nil {
		return fmt.Errorf("failed to write %s: %w", format, err)
	}
	return nil
}

func encodeSRT(sb *strings.Builder, entries []Entry) {
	if len(entries) == 0 {
		return
	}
	writeBlocks(sb, entries)
	sb.WriteByte('\n')
}

func encodeVTT(sb *strings.Builder, entries []Entry) {
	sb.WriteString("WEBVTT\n")
	for i, entry := range entries {
		fmt.Fprintf(sb, "\n%d\n%s --> %s\n%s\n",
			i+1,
			vttTime(entry.StartTime),
			vttTime(entry.EndTime),
			entry.Text,
		)
	}
}

func encodeASS(sb *strings.Builder, entries []Entry) {
	fmt.Fprintf(sb, "[Script Info]\nTitle: %s\nScriptType: v4.00+\nPlayResX: 384\nPlayResY: 288\n\n", assTitle)

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, " +
		"OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, " +
		"Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(sb,
		"Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,"+
			"0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1\n\n",
		assFontName, assFontSize)

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, entry := range entries {
		fmt.Fprintf(sb, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			assTime(entry.StartTime),
			assTime(entry.EndTime),
			assText(entry.Text),
		)
	}
}

// HH:MM:SS.mmm
func vttTime(d time.Duration) string {
	return strings.Replace(FormatTime(d), ",", ".", 1)
}

// H:MM:SS.cc, ASS only has centisecond precision
func assTime(d time.Duration) string {
	cs := d.Milliseconds() / 10
	return fmt.Sprintf("%d:%02d:%02d.%02d",
		cs/360000,
		cs/6000%60,
		cs/100%60,
		cs%100,
	)
}

var assEscaper = strings.NewReplacer("{", `\{`, "}", `\}`)

// braces would be read as override tags
func assText(text string) string {
	return assEscaper.Replace(text)
}

// GetFormatFromExtension picks the export format for path, SRT when the
// extension is unknown.
func GetFormatFromExtension(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtt":
		return FormatVTT
	case ".ass", ".ssa":
		return FormatASS
	default:
		return FormatSRT
	}
}

func GetExtensionForFormat(format Format) string {
	if _, ok := encoders[format]; !ok {
		return ".srt"
	}
	return "." + string(format)
}

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch format := Format(strings.ToLower(strings.TrimSpace(name))); format {
	case FormatSRT, FormatVTT, FormatASS:
		return format, nil
	case "ssa":
		return FormatASS, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use srt, vtt, or ass", name)
	}
}
