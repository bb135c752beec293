package video

import (
	"context"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	ffmpegbin "github.com/mgpai22/subscrub/internal/ffmpeg"
)

const sampleProbe = `{
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001"},
    {"codec_type": "audio", "codec_name": "aac"},
    {"codec_type": "subtitle", "codec_name": "subrip"},
    {"codec_type": "video", "codec_name": "mjpeg", "width": 320, "height": 180, "r_frame_rate": "90000/1"}
  ],
  "format": {"duration": "125.4567"}
}`

func TestParseProbe(t *testing.T) {
	info, err := parseProbe(sampleProbe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if info.Duration != 125457*time.Millisecond {
		t.Errorf("duration: got %v", info.Duration)
	}
	if info.Codec != "h264" || info.Width != 1920 || info.Height != 1080 {
		t.Errorf("first video stream not used: %+v", info)
	}
	if math.Abs(info.FrameRate-29.97) > 0.01 {
		t.Errorf("frame rate: got %v", info.FrameRate)
	}
	if !info.HasAudio || info.SubtitleStreams != 1 {
		t.Errorf("stream counts wrong: %+v", info)
	}
}

func TestParseProbeErrors(t *testing.T) {
	if _, err := parseProbe("not json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := parseProbe(`{"format": {"duration": "abc"}}`); err == nil {
		t.Error("expected error for invalid duration")
	}

	info, err := parseProbe(`{"format": {}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Duration != 0 || info.HasAudio {
		t.Errorf("expected empty info, got %+v", info)
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"25/1", 25},
		{"24", 24},
		{"0/0", 0},
		{"x/1", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseFrameRate(tt.in); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubtitlesFilter(t *testing.T) {
	got := subtitlesFilter("/tmp/it's.srt", BurnOptions{FontSize: 30, FontColor: "#FF8800", Position: "top"})
	want := `subtitles='/tmp/it'\''s.srt':force_style='FontSize=30,PrimaryColour=&H0088FF&,Alignment=8'`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}

	plain := subtitlesFilter("a.srt", BurnOptions{})
	if plain != "subtitles='a.srt'" {
		t.Errorf("unexpected plain filter %s", plain)
	}
}

func TestGetInfoMissingFile(t *testing.T) {
	p := NewProcessor()
	_, err := p.GetInfo(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

// writes an executable shell script standing in for ffmpeg or ffprobe
func fakeBinary(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts need a unix shell")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func processorWith(paths ffmpegbin.BinaryPaths) *DefaultProcessor {
	return &DefaultProcessor{binaries: func() (ffmpegbin.BinaryPaths, error) {
		return paths, nil
	}}
}

func TestGetInfoUsesResolvedFFprobe(t *testing.T) {
	probe := fakeBinary(t, "ffprobe", "cat <<'JSON'\n"+sampleProbe+"\nJSON\n")
	media := filepath.Join(t.TempDir(), "talk.mp4")
	if err := os.WriteFile(media, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := processorWith(ffmpegbin.BinaryPaths{FFprobe: probe}).GetInfo(context.Background(), media)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Path != media || info.Codec != "h264" || info.Duration != 125457*time.Millisecond {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestGetInfoReportsFFprobeFailure(t *testing.T) {
	probe := fakeBinary(t, "ffprobe", "exit 1\n")
	media := filepath.Join(t.TempDir(), "talk.mp4")
	if err := os.WriteFile(media, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := processorWith(ffmpegbin.BinaryPaths{FFprobe: probe}).GetInfo(context.Background(), media)
	if err == nil || !strings.Contains(err.Error(), "ffprobe failed") {
		t.Errorf("expected ffprobe failure, got %v", err)
	}
}

func TestBurnUsesResolvedFFmpeg(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	bin := fakeBinary(t, "ffmpeg", `printf '%s\n' "$@" > '`+argsFile+"'\n")

	media := filepath.Join(dir, "talk.mp4")
	subs := filepath.Join(dir, "talk.srt")
	for _, path := range []string{media, subs} {
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out := filepath.Join(dir, "out", "talk.captioned.mp4")
	err := processorWith(ffmpegbin.BinaryPaths{FFmpeg: bin}).
		Burn(context.Background(), media, subs, out, DefaultBurnOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("fake ffmpeg was not run: %v", err)
	}
	args := string(data)
	for _, want := range []string{media, out, "subtitles='" + subs + "'", "veryfast"} {
		if !strings.Contains(args, want) {
			t.Errorf("ffmpeg args missing %q:\n%s", want, args)
		}
	}
}

func TestGetInfoIntegration(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	media := filepath.Join(t.TempDir(), "tone.mkv")
	gen := exec.Command("ffmpeg", "-y", "-f", "lavfi", "-i", "sine=frequency=440:duration=2", media)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Skipf("could not generate sample media: %v\n%s", err, out)
	}

	info, err := NewProcessor().GetInfo(context.Background(), media)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.HasAudio || info.Codec != "" {
		t.Errorf("expected audio only, got %+v", info)
	}
	if info.Duration < 1900*time.Millisecond || info.Duration > 2100*time.Millisecond {
		t.Errorf("unexpected duration %v", info.Duration)
	}
}
