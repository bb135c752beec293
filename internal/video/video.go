package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/subscrub/internal/ffmpeg"
)

const probeTimeout = 30 * time.Second

// media file information
type Info struct {
	Path      string
	Duration  time.Duration
	Width     int
	Height    int
	FrameRate float64
	Codec     string
	HasAudio  bool
	// text subtitle streams already muxed into the file
	SubtitleStreams int
}

// defines media operations the editor needs
type Processor interface {
	// retrieves media file information
	GetInfo(ctx context.Context, path string) (*Info, error)

	// renders subtitles into the video frames
	Burn(ctx context.Context, videoPath, subtitlePath, outputPath string, opts BurnOptions) error
}

// holds options for subtitle burning
type BurnOptions struct {
	FontSize  int
	FontColor string // hex RGB, e.g. "FFFFFF"
	// libass alignment: bottom, top or middle
	Position string
}

func DefaultBurnOptions() BurnOptions {
	return BurnOptions{
		FontSize:  24,
		FontColor: "FFFFFF",
		Position:  "bottom",
	}
}

// default implementation using ffmpeg
type DefaultProcessor struct {
	binaries func() (ffmpegbin.BinaryPaths, error)
}

func NewProcessor() *DefaultProcessor {
	return &DefaultProcessor{binaries: ffmpegbin.Ensure}
}

// ffprobe JSON output
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// retrieves media file information
func (p *DefaultProcessor) GetInfo(ctx context.Context, path string) (*Info, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("media file not found: %s", path)
	}

	bins, err := p.binaries()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bins.FFprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("ffprobe failed: %w", ctxErr)
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	info, err := parseProbe(string(out))
	if err != nil {
		return nil, err
	}
	info.Path = path
	return info, nil
}

func parseProbe(out string) (*Info, error) {
	var probe probeOutput
	if err := json.Unmarshal([]byte(out), &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &Info{}
	if probe.Format.Duration != "" {
		seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", probe.Format.Duration, err)
		}
		info.Duration = time.Duration(seconds * float64(time.Second)).Round(time.Millisecond)
	}

	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if info.Codec != "" {
				continue
			}
			info.Codec = stream.CodecName
			info.Width = stream.Width
			info.Height = stream.Height
			info.FrameRate = parseFrameRate(stream.RFrameRate)
		case "audio":
			info.HasAudio = true
		case "subtitle":
			info.SubtitleStreams++
		}
	}
	return info, nil
}

// parses ffprobe rates such as "30000/1001"
func parseFrameRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// renders subtitles into the video frames
func (p *DefaultProcessor) Burn(
	ctx context.Context,
	videoPath, subtitlePath, outputPath string,
	opts BurnOptions,
) error {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("video file not found: %s", videoPath)
	}
	if _, err := os.Stat(subtitlePath); os.IsNotExist(err) {
		return fmt.Errorf("subtitle file not found: %s", subtitlePath)
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	bins, err := p.binaries()
	if err != nil {
		return err
	}

	cmd := ffmpeg.Input(videoPath).
		Output(outputPath, ffmpeg.KwArgs{
			"vf":     subtitlesFilter(subtitlePath, opts),
			"c:a":    "copy",
			"c:s":    "copy",
			"map":    "0",
			"preset": "veryfast",
		}).
		OverWriteOutput().
		SetFfmpegPath(bins.FFmpeg).
		Compile()
	done := make(chan error, 1)
	go func() { done <- cmd.Run() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("ffmpeg burn failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
		return ctx.Err()
	}
}

// builds the libass subtitles filter argument
func subtitlesFilter(subtitlePath string, opts BurnOptions) string {
	var style []string
	if opts.FontSize > 0 {
		style = append(style, fmt.Sprintf("FontSize=%d", opts.FontSize))
	}
	if color := strings.TrimPrefix(opts.FontColor, "#"); len(color) == 6 {
		// ASS colours are &HBBGGRR
		style = append(style, fmt.Sprintf("PrimaryColour=&H%s%s%s&", color[4:6], color[2:4], color[0:2]))
	}
	switch opts.Position {
	case "top":
		style = append(style, "Alignment=8")
	case "middle":
		style = append(style, "Alignment=5")
	}

	filter := "subtitles=" + escapeFilterPath(subtitlePath)
	if len(style) > 0 {
		filter += ":force_style='" + strings.Join(style, ",") + "'"
	}
	return filter
}

// escapes characters that have meaning inside an ffmpeg filter graph
func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `'\''`)
	return "'" + replacer.Replace(path) + "'"
}
