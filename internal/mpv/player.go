package mpv

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/mgpai22/subscrub/internal/playback"
)

// Player drives one mpv instance through its IPC client.
type Player struct {
	client *Client
}

var _ playback.Player = (*Player)(nil)

func NewPlayer(client *Client) *Player {
	return &Player{client: client}
}

func (p *Player) Play(ctx context.Context) error {
	return p.client.SetProperty(ctx, "pause", false)
}

func (p *Player) Pause(ctx context.Context) error {
	return p.client.SetProperty(ctx, "pause", true)
}

// Time returns zero until mpv has loaded the file.
func (p *Player) Time(ctx context.Context) (time.Duration, error) {
	seconds, err := p.client.getFloat(ctx, "time-pos")
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.Unavailable() {
			return 0, nil
		}
		return 0, err
	}
	return secondsToDuration(seconds), nil
}

func (p *Player) SetTime(ctx context.Context, position time.Duration) error {
	_, err := p.client.Command(ctx, "seek", position.Seconds(), "absolute+exact")
	return err
}

func (p *Player) IsPlaying(ctx context.Context) (bool, error) {
	paused, err := p.client.getBool(ctx, "pause")
	if err != nil {
		return false, err
	}
	return !paused, nil
}

func (p *Player) ToggleFullscreen(ctx context.Context) error {
	_, err := p.client.Command(ctx, "cycle", "fullscreen")
	return err
}

// Duration is the length of the loaded file, zero until mpv knows it.
func (p *Player) Duration(ctx context.Context) (time.Duration, error) {
	seconds, err := p.client.getFloat(ctx, "duration")
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.Unavailable() {
			return 0, nil
		}
		return 0, err
	}
	return secondsToDuration(seconds), nil
}

// mpv reports seconds as float, positions are kept at millisecond resolution
func secondsToDuration(seconds float64) time.Duration {
	if seconds < 0 || math.IsNaN(seconds) {
		return 0
	}
	return time.Duration(math.Round(seconds*1000)) * time.Millisecond
}
