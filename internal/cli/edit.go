package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/mgpai22/subscrub/internal/config"
	"github.com/mgpai22/subscrub/internal/logging"
	"github.com/mgpai22/subscrub/internal/mpv"
	"github.com/mgpai22/subscrub/internal/playback"
	"github.com/mgpai22/subscrub/internal/session"
	"github.com/mgpai22/subscrub/internal/subtitle"
	"github.com/mgpai22/subscrub/internal/tui"
	"github.com/mgpai22/subscrub/internal/video"
)

var editCmd = &cobra.Command{
	Use:   "edit [media_file] [subtitle_file]",
	Short: "Play a video and add captions while it runs",
	Long: `Open the video in mpv and show the upcoming captions in the terminal.

The subtitle file defaults to the video name with an .srt extension and is
created when missing. Every caption is written to disk as soon as it is added.

Keys:
  p  play/pause          f  toggle fullscreen
  .  seek +small         ,  seek -small
  /  seek +large         m  seek -large
  z  add a caption at the current position
  e  edit the text of the next caption
  q  quit

Examples:
  subscrub edit talk.mp4
  subscrub edit talk.mp4 talk.en.srt --instances 2`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().
		Int("instances", 0, "Number of synchronized player windows (overrides config)")
	editCmd.Flags().
		Bool("single-step", false, "Advance at most one caption per position sample")
	editCmd.Flags().
		Bool("paused", false, "Do not start playback automatically")
}

func defaultSubtitlePath(mediaPath string) string {
	return strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".srt"
}

func runEdit(cmd *cobra.Command, args []string) (err error) {
	mediaPath := args[0]
	subtitlePath := defaultSubtitlePath(mediaPath)
	if len(args) == 2 {
		subtitlePath = args[1]
	}

	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errors.New("edit needs an interactive terminal")
	}
	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return fmt.Errorf("media file not found: %s", mediaPath)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("instances"); n > 0 {
		cfg.Player.Instances = n
	}
	if single, _ := cmd.Flags().GetBool("single-step"); single {
		cfg.Editor.SingleStep = true
	}
	if paused, _ := cmd.Flags().GetBool("paused"); paused {
		cfg.Player.Autoplay = false
	}

	lock, err := subtitle.Lock(subtitlePath)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, lock.Unlock())
	}()

	store, err := subtitle.Create(
		subtitlePath,
		subtitle.WithDefaultDuration(cfg.DefaultDuration()),
	)
	if err != nil {
		return fmt.Errorf("failed to open subtitles: %w", err)
	}
	logger.Infow("opened subtitles", "path", subtitlePath, "captions", store.Len())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := session.Options{
		PollInterval: cfg.PollInterval(),
		SeekSmall:    cfg.SeekSmall(),
		SeekLarge:    cfg.SeekLarge(),
		WindowSize:   cfg.Editor.Window,
		BarWidth:     cfg.Editor.BarWidth,
		SingleStep:   cfg.Editor.SingleStep,
		Autoplay:     cfg.Player.Autoplay,
		Media:        mediaPath,
	}
	if info, err := video.NewProcessor().GetInfo(ctx, mediaPath); err != nil {
		logger.Warnw("could not probe media", "path", mediaPath, "error", err)
	} else {
		opts.MediaDuration = info.Duration
	}

	players, err := launchPlayers(ctx, cfg, mediaPath)
	if err != nil {
		return err
	}
	defer func() {
		for _, p := range players {
			err = multierr.Append(err, p.Close())
		}
	}()
	opts.PlayerExited = players[0].Exited()

	others := make([]playback.Player, 0, len(players)-1)
	for _, p := range players[1:] {
		others = append(others, p)
	}
	group, err := playback.NewGroup(players[0], others...)
	if err != nil {
		return err
	}
	if opts.MediaDuration == 0 {
		opts.MediaDuration = loadedDuration(ctx, players[0], logger)
	}
	logger.Debugw("players ready", "instances", group.Len(), "duration", opts.MediaDuration)

	// the screen owns the terminal from here, log to the file instead
	fileLogger, logErr := logging.NewFileLogger(cfg.Log.File, verbose)
	if logErr != nil {
		logger.Warnw("file logging disabled", "error", logErr)
		fileLogger = logging.Nop()
	}
	defer func() { _ = fileLogger.Sync() }()

	screen, err := tui.New(session.LineWindow + cfg.Editor.Window)
	if err != nil {
		return fmt.Errorf("failed to open terminal screen: %w", err)
	}

	runErr := session.New(store, group, screen, opts, fileLogger).Run(ctx)
	screen.Close()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	logger.Infow("editor closed", "path", subtitlePath, "captions", store.Len())
	return nil
}

// starts the configured number of mpv instances, muting all but the first
func launchPlayers(ctx context.Context, cfg *config.Config, mediaPath string) ([]*mpv.Process, error) {
	players := make([]*mpv.Process, 0, cfg.Player.Instances)
	for i := 0; i < cfg.Player.Instances; i++ {
		p, err := mpv.Launch(ctx, mpv.LaunchOptions{
			Binary:    cfg.Player.Binary,
			Media:     mediaPath,
			SocketDir: cfg.Player.SocketDir,
			Args:      cfg.Player.Args,
			Mute:      i > 0,
		})
		if err != nil {
			for _, started := range players {
				err = multierr.Append(err, started.Close())
			}
			return nil, fmt.Errorf("failed to launch player %d: %w", i+1, err)
		}
		logger.Debugw("player started", "instance", i+1)
		players = append(players, p)
	}
	return players, nil
}

// asks mpv for the length when ffprobe could not tell, zero if mpv has
// not loaded the file yet
func loadedDuration(ctx context.Context, player *mpv.Process, logger *logging.Logger) time.Duration {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	d, err := player.Duration(ctx)
	if err != nil {
		logger.Debugw("mpv did not report a duration", "error", err)
		return 0
	}
	return d
}
