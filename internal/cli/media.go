package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subscrub/internal/subtitle"
	"github.com/mgpai22/subscrub/internal/video"
)

var probeCmd = &cobra.Command{
	Use:   "probe [media_file]",
	Short: "Show duration and stream details of a media file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

var burnCmd = &cobra.Command{
	Use:   "burn [video_file] [subtitle_file]",
	Short: "Render captions permanently into a video",
	Long: `Burn the captions of a subtitle file into the video frames with ffmpeg.

Examples:
  subscrub burn talk.mp4 talk.srt
  subscrub burn talk.mp4 talk.srt -o talk.captioned.mp4 --font-size 32 --position top`,
	Args: cobra.ExactArgs(2),
	RunE: runBurn,
}

func init() {
	rootCmd.AddCommand(probeCmd, burnCmd)

	defaults := video.DefaultBurnOptions()
	burnCmd.Flags().StringP("output", "o", "", "Output video path")
	burnCmd.Flags().Int("font-size", defaults.FontSize, "Caption font size")
	burnCmd.Flags().String("font-color", defaults.FontColor, "Caption color as hex RGB")
	burnCmd.Flags().String("position", defaults.Position, "Caption position: bottom, top, middle")
}

func runProbe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info, err := video.NewProcessor().GetInfo(ctx, args[0])
	if err != nil {
		return err
	}

	rows := [][]string{
		{"Path", info.Path},
		{"Duration", subtitle.FormatTime(info.Duration)},
		{"Video", fmt.Sprintf("%s %dx%d", info.Codec, info.Width, info.Height)},
		{"Frame rate", strconv.FormatFloat(info.FrameRate, 'f', 3, 64)},
		{"Audio", strconv.FormatBool(info.HasAudio)},
		{"Subtitle streams", strconv.Itoa(info.SubtitleStreams)},
	}

	out := cmd.OutOrStdout()
	if !isTerminal(os.Stdout) {
		_, err = fmt.Fprint(out, renderPlain(rows))
		return err
	}
	_, err = fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
	return err
}

func runBurn(cmd *cobra.Command, args []string) error {
	videoPath, subtitlePath := args[0], args[1]
	outputPath, _ := cmd.Flags().GetString("output")
	fontSize, _ := cmd.Flags().GetInt("font-size")
	fontColor, _ := cmd.Flags().GetString("font-color")
	position, _ := cmd.Flags().GetString("position")

	switch position {
	case "bottom", "top", "middle":
	default:
		return fmt.Errorf("unsupported position %q: use bottom, top, or middle", position)
	}
	if outputPath == "" {
		ext := filepath.Ext(videoPath)
		outputPath = strings.TrimSuffix(videoPath, ext) + ".captioned" + ext
	}
	if samePath(videoPath, outputPath) {
		return fmt.Errorf("output %s would overwrite the input", outputPath)
	}

	// rejects malformed files before ffmpeg gets to them
	store, err := subtitle.Open(subtitlePath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infow("Burning captions",
		"video", videoPath,
		"subtitles", subtitlePath,
		"captions", store.Len(),
		"output", outputPath,
	)

	err = video.NewProcessor().Burn(ctx, videoPath, subtitlePath, outputPath, video.BurnOptions{
		FontSize:  fontSize,
		FontColor: fontColor,
		Position:  position,
	})
	if err != nil {
		return err
	}

	logger.Infow("Captions burned", "output", outputPath)
	return nil
}
