package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgpai22/subscrub/internal/logging"
	"github.com/mgpai22/subscrub/internal/playback"
	"github.com/mgpai22/subscrub/internal/subtitle"
)

// display layout
const (
	LineKey = iota
	LineAction
	LineMedia
	LinePosition
	LineProgress
	// first line of the caption window
	LineWindow
)

// Options tunes the editor loop.
type Options struct {
	PollInterval time.Duration
	SeekSmall    time.Duration
	SeekLarge    time.Duration
	WindowSize   int
	BarWidth     int
	SingleStep   bool
	// start playback when the loop starts
	Autoplay bool

	Media         string
	MediaDuration time.Duration

	// closed when the player goes away, ends the loop
	PlayerExited <-chan struct{}
}

func DefaultOptions() Options {
	return Options{
		PollInterval: 50 * time.Millisecond,
		SeekSmall:    100 * time.Millisecond,
		SeekLarge:    5 * time.Second,
		WindowSize:   playback.DefaultWindowSize,
		BarWidth:     playback.DefaultBarWidth,
		Autoplay:     true,
	}
}

// Session ties a subtitle store, a player and a display together. All of
// its state is owned by the goroutine running Run.
type Session struct {
	store   *subtitle.Store
	clock   *playback.Clock
	display Display
	opts    Options
	logger  *logging.Logger

	cursor *playback.Cursor
	// last sampled position
	now time.Duration
}

func New(
	store *subtitle.Store,
	player playback.Player,
	display Display,
	opts Options,
	logger *logging.Logger,
) *Session {
	defaults := DefaultOptions()
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaults.PollInterval
	}
	if opts.SeekSmall <= 0 {
		opts.SeekSmall = defaults.SeekSmall
	}
	if opts.SeekLarge <= 0 {
		opts.SeekLarge = defaults.SeekLarge
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = defaults.WindowSize
	}
	if opts.BarWidth <= 2 {
		opts.BarWidth = defaults.BarWidth
	}
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Session{
		store:   store,
		clock:   playback.NewClock(player),
		display: display,
		opts:    opts,
		logger:  logger,
	}
	s.rebuild()
	return s
}

// Cursor exposes the current cursor snapshot.
func (s *Session) Cursor() *playback.Cursor {
	return s.cursor
}

// Run drives the editor until the user quits, the context is cancelled or
// the player exits. Keys are handled one at a time between position samples.
func (s *Session) Run(ctx context.Context) error {
	if s.opts.Autoplay {
		if err := s.clock.Play(ctx); err != nil {
			return fmt.Errorf("failed to start playback: %w", err)
		}
	} else if err := s.clock.Sync(ctx); err != nil {
		return fmt.Errorf("failed to read playback position: %w", err)
	}
	s.refresh(ctx)

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	keys := s.display.Keys()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.opts.PlayerExited:
			s.logger.Infow("player exited, leaving editor")
			return nil
		case key, ok := <-keys:
			if !ok {
				return nil
			}
			if quit := s.HandleKey(ctx, key); quit {
				return nil
			}
			s.refresh(ctx)
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// HandleKey runs one editor command and reports whether the editor should
// quit. Command failures are shown on the action line, not returned.
func (s *Session) HandleKey(ctx context.Context, key Key) bool {
	s.display.Set(LineKey, fmt.Sprintf("Key (%s) was pressed.", key))

	if key.Kind == KeyInterrupt {
		return true
	}
	if key.Kind != KeyRune {
		return false
	}

	var err error
	switch key.Rune {
	case 'q':
		return true
	case 'f':
		err = s.clock.ToggleFullscreen(ctx)
		s.action(err, "toggle fullscreen")
	case 'p':
		err = s.togglePlay(ctx)
	case '.':
		err = s.seek(ctx, ">", s.opts.SeekSmall)
	case ',':
		err = s.seek(ctx, "<", -s.opts.SeekSmall)
	case '/':
		err = s.seek(ctx, ">>", s.opts.SeekLarge)
	case 'm':
		err = s.seek(ctx, "<<", -s.opts.SeekLarge)
	case 'z':
		err = s.addCaption(ctx)
	case 'e':
		err = s.editCaption(ctx)
	default:
		return false
	}
	if err != nil {
		s.logger.Warnw("command failed", "key", key.String(), "error", err)
	}
	return false
}

func (s *Session) togglePlay(ctx context.Context) error {
	playing, err := s.clock.IsPlaying(ctx)
	if err == nil {
		if playing {
			err = s.clock.Pause(ctx)
		} else {
			err = s.clock.Play(ctx)
		}
	}
	s.action(err, "play/pause")
	return err
}

func (s *Session) seek(ctx context.Context, arrow string, delta time.Duration) error {
	target, err := s.clock.Seek(ctx, delta)
	s.action(err, fmt.Sprintf("seek %s to %s", arrow, subtitle.FormatTime(target)))
	if err == nil {
		s.sample(target)
	}
	return err
}

// the caption starts where the key was pressed, not where playback is once
// the text has been typed
func (s *Session) addCaption(ctx context.Context) error {
	at, err := s.clock.Time(ctx)
	if err != nil {
		s.action(err, "save")
		return err
	}

	text, err := s.display.Prompt(ctx, LineAction, "caption:")
	if errors.Is(err, ErrCancelled) {
		s.display.Set(LineAction, "save cancelled")
		return nil
	}
	if err != nil {
		s.action(err, "save")
		return err
	}

	entry, err := s.store.Add(at, text, 0)
	if err != nil {
		s.action(err, "save")
		return err
	}
	s.rebuild()
	s.logger.Infow("caption added",
		"index", entry.Index,
		"start", subtitle.FormatTime(entry.StartTime),
		"text", entry.Text,
	)
	s.display.Set(LineAction, fmt.Sprintf("save %s at %s", entry.Text, subtitle.FormatTime(entry.StartTime)))
	return nil
}

// replaces the text of the caption at the cursor position
func (s *Session) editCaption(ctx context.Context) error {
	if s.cursor.Len() == 0 {
		s.display.Set(LineAction, "nothing to edit")
		return nil
	}
	index := s.cursor.Position() + 1

	text, err := s.display.Prompt(ctx, LineAction, fmt.Sprintf("edit #%d:", index))
	if errors.Is(err, ErrCancelled) || (err == nil && text == "") {
		s.display.Set(LineAction, "edit cancelled")
		return nil
	}
	if err != nil {
		s.action(err, "edit")
		return err
	}

	if err := s.store.SetText(index, text); err != nil {
		s.action(err, "edit")
		return err
	}
	s.rebuild()
	s.logger.Infow("caption edited", "index", index, "text", text)
	s.display.Set(LineAction, fmt.Sprintf("edit #%d saved", index))
	return nil
}

func (s *Session) action(err error, text string) {
	if err != nil {
		s.display.Set(LineAction, fmt.Sprintf("%s failed: %v", text, err))
		return
	}
	s.display.Set(LineAction, text)
}

// rebuild takes a fresh cursor snapshot after the store changed and moves
// it to the last sampled position.
func (s *Session) rebuild() {
	opts := []playback.CursorOption{
		playback.WithWindowSize(s.opts.WindowSize),
		playback.WithBarWidth(s.opts.BarWidth),
	}
	if s.opts.SingleStep {
		opts = append(opts, playback.WithSingleStep())
	}
	s.cursor = playback.NewCursor(s.store.Entries(), opts...)
	for s.cursor.Advance(s.now) {
	}
	s.drawHeader()
}

func (s *Session) refresh(ctx context.Context) {
	now, err := s.clock.Time(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Debugw("position sample failed", "error", err)
			s.display.Set(LinePosition, fmt.Sprintf("pos: unavailable (%v)", err))
		}
		return
	}
	s.sample(now)
}

func (s *Session) sample(now time.Duration) {
	s.now = now
	s.cursor.Advance(now)

	pos := "pos: " + subtitle.FormatTime(now)
	if s.opts.MediaDuration > 0 {
		pos += " / " + subtitle.FormatTime(s.opts.MediaDuration)
	}
	if cue, ok := s.cursor.Active(now); ok {
		pos += "  now: " + strings.ReplaceAll(cue.Text, "\n", " ")
	}
	s.display.Set(LinePosition, pos)
	s.display.Set(LineProgress, s.cursor.ProgressBar(now))

	window := s.cursor.Window()
	for i := 0; i < s.opts.WindowSize; i++ {
		line := ""
		if i < len(window) {
			line = fmt.Sprintf("%4d  %s", s.cursor.Position()+i+1, window[i])
		}
		s.display.Set(LineWindow+i, line)
	}
}

func (s *Session) drawHeader() {
	header := filepath.Base(s.store.Path())
	if s.opts.Media != "" {
		header = filepath.Base(s.opts.Media) + " | " + header
	}
	s.display.Set(LineMedia, fmt.Sprintf("%s (%d captions)", header, s.store.Len()))
}
