package playback

import (
	"context"
	"time"
)

// Player defines the playback backend the editor drives.
type Player interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error

	// current playback position
	Time(ctx context.Context) (time.Duration, error)
	// absolute seek
	SetTime(ctx context.Context, position time.Duration) error

	IsPlaying(ctx context.Context) (bool, error)
	ToggleFullscreen(ctx context.Context) error
}
