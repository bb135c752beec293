package playback

import (
	"context"
	"errors"
	"time"

	"go.uber.org/multierr"
)

// Group keeps several players in lockstep. Mutating calls go to every
// member; queries are answered by the primary alone.
type Group struct {
	primary Player
	members []Player
}

var _ Player = (*Group)(nil)

func NewGroup(primary Player, others ...Player) (*Group, error) {
	if primary == nil {
		return nil, errors.New("group needs a primary player")
	}
	members := make([]Player, 0, len(others)+1)
	members = append(members, primary)
	members = append(members, others...)
	return &Group{primary: primary, members: members}, nil
}

func (g *Group) Len() int {
	return len(g.members)
}

func (g *Group) Play(ctx context.Context) error {
	return g.broadcast(func(p Player) error { return p.Play(ctx) })
}

func (g *Group) Pause(ctx context.Context) error {
	return g.broadcast(func(p Player) error { return p.Pause(ctx) })
}

func (g *Group) SetTime(ctx context.Context, position time.Duration) error {
	return g.broadcast(func(p Player) error { return p.SetTime(ctx, position) })
}

func (g *Group) ToggleFullscreen(ctx context.Context) error {
	return g.broadcast(func(p Player) error { return p.ToggleFullscreen(ctx) })
}

func (g *Group) Time(ctx context.Context) (time.Duration, error) {
	return g.primary.Time(ctx)
}

func (g *Group) IsPlaying(ctx context.Context) (bool, error) {
	return g.primary.IsPlaying(ctx)
}

// every member receives the call even when an earlier one fails
func (g *Group) broadcast(call func(Player) error) error {
	var err error
	for _, member := range g.members {
		err = multierr.Append(err, call(member))
	}
	return err
}
