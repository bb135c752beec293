package playback

import (
	"context"
	"errors"
	"time"
)

var errFake = errors.New("fake player failure")

type fakePlayer struct {
	position   time.Duration
	playing    bool
	fullscreen bool
	calls      []string
	fail       bool
}

func (f *fakePlayer) record(call string) error {
	f.calls = append(f.calls, call)
	if f.fail {
		return errFake
	}
	return nil
}

func (f *fakePlayer) Play(ctx context.Context) error {
	if err := f.record("play"); err != nil {
		return err
	}
	f.playing = true
	return nil
}

func (f *fakePlayer) Pause(ctx context.Context) error {
	if err := f.record("pause"); err != nil {
		return err
	}
	f.playing = false
	return nil
}

func (f *fakePlayer) Time(ctx context.Context) (time.Duration, error) {
	if err := f.record("time"); err != nil {
		return 0, err
	}
	return f.position, nil
}

func (f *fakePlayer) SetTime(ctx context.Context, position time.Duration) error {
	if err := f.record("seek"); err != nil {
		return err
	}
	f.position = position
	return nil
}

func (f *fakePlayer) IsPlaying(ctx context.Context) (bool, error) {
	if err := f.record("playing"); err != nil {
		return false, err
	}
	return f.playing, nil
}

func (f *fakePlayer) ToggleFullscreen(ctx context.Context) error {
	if err := f.record("fullscreen"); err != nil {
		return err
	}
	f.fullscreen = !f.fullscreen
	return nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}
