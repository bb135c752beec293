package playback

import (
	"context"
	"time"
)

// Clock smooths the position reported by a Player. While playing, the
// position is extrapolated from the wall clock since the last sync point;
// while paused it is read from the player. Every pause, play and seek moves
// the sync point. Not safe for concurrent use.
type Clock struct {
	player Player
	now    func() time.Time

	// wall clock instant that corresponds to position zero
	epoch time.Time
	// position last reported by the backend
	reported time.Duration
}

var _ Player = (*Clock)(nil)

func NewClock(player Player) *Clock {
	return &Clock{player: player, now: time.Now}
}

// Sync re-reads the backend position and moves the epoch to match it.
func (c *Clock) Sync(ctx context.Context) error {
	position, err := c.player.Time(ctx)
	if err != nil {
		return err
	}
	c.mark(position)
	return nil
}

func (c *Clock) mark(position time.Duration) {
	c.reported = position
	c.epoch = c.now().Add(-position)
}

// Reported returns the position at the last sync point.
func (c *Clock) Reported() time.Duration {
	return c.reported
}

func (c *Clock) Time(ctx context.Context) (time.Duration, error) {
	playing, err := c.player.IsPlaying(ctx)
	if err != nil {
		return 0, err
	}
	if playing {
		return c.now().Sub(c.epoch), nil
	}

	position, err := c.player.Time(ctx)
	if err != nil {
		return 0, err
	}
	c.mark(position)
	return position, nil
}

func (c *Clock) Play(ctx context.Context) error {
	if err := c.player.Play(ctx); err != nil {
		return err
	}
	return c.Sync(ctx)
}

func (c *Clock) Pause(ctx context.Context) error {
	if err := c.player.Pause(ctx); err != nil {
		return err
	}
	return c.Sync(ctx)
}

// SetTime seeks and trusts the requested target as the new sync point,
// since backends report the old position until the seek lands.
func (c *Clock) SetTime(ctx context.Context, position time.Duration) error {
	if position < 0 {
		position = 0
	}
	if err := c.player.SetTime(ctx, position); err != nil {
		return err
	}
	c.mark(position)
	return nil
}

// Seek moves relative to the current smoothed position, clamping at zero.
func (c *Clock) Seek(ctx context.Context, delta time.Duration) (time.Duration, error) {
	position, err := c.Time(ctx)
	if err != nil {
		return 0, err
	}
	target := position + delta
	if target < 0 {
		target = 0
	}
	if err := c.SetTime(ctx, target); err != nil {
		return 0, err
	}
	return target, nil
}

func (c *Clock) IsPlaying(ctx context.Context) (bool, error) {
	return c.player.IsPlaying(ctx)
}

func (c *Clock) ToggleFullscreen(ctx context.Context) error {
	return c.player.ToggleFullscreen(ctx)
}
