package mpv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dexterlb/mpvipc"
)

// ErrClosed is returned for commands issued after the connection went away.
var ErrClosed = errors.New("mpv connection closed")

// CommandError is an error reported by mpv for a single command.
type CommandError struct {
	Command string
	Reason  string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("mpv %s: %s", e.Command, e.Reason)
}

// Unavailable reports whether mpv had no value for the property yet,
// which happens before the file has been loaded.
func (e *CommandError) Unavailable() bool {
	return e.Reason == "property unavailable"
}

// Client wraps an mpvipc connection so every call honors a context.
// Safe for concurrent use.
type Client struct {
	conn *mpvipc.Connection
	done chan struct{}
}

// Dial connects to the IPC socket of a running mpv.
func Dial(ctx context.Context, socket string) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn := mpvipc.NewConnection(socket)
	if err := conn.Open(); err != nil {
		return nil, fmt.Errorf("failed to connect to mpv socket %s: %w", socket, err)
	}

	c := &Client{conn: conn, done: make(chan struct{})}
	go func() {
		conn.WaitUntilClosed()
		close(c.done)
	}()
	return c, nil
}

type callResult struct {
	data any
	err  error
}

// Command sends one command and waits for its reply data. mpvipc calls
// block without a deadline, so the wait is abandoned when ctx ends or the
// connection drops.
func (c *Client) Command(ctx context.Context, args ...any) (any, error) {
	if len(args) == 0 {
		return nil, errors.New("empty mpv command")
	}
	if c.conn.IsClosed() {
		return nil, ErrClosed
	}
	name := fmt.Sprint(args[0])

	ch := make(chan callResult, 1)
	go func() {
		data, err := c.conn.Call(args...)
		ch <- callResult{data: data, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, commandError(name, r.err)
		}
		return r.data, nil
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// mpvipc reports failures as "mpv error: <status>"
func commandError(name string, err error) error {
	msg := err.Error()
	reason, ok := strings.CutPrefix(msg, "mpv error: ")
	if !ok {
		return fmt.Errorf("mpv %s: %w", name, err)
	}
	return &CommandError{Command: name, Reason: reason}
}

func (c *Client) getFloat(ctx context.Context, name string) (float64, error) {
	data, err := c.Command(ctx, "get_property", name)
	if err != nil {
		return 0, err
	}
	value, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("mpv property %s: expected number, got %T", name, data)
	}
	return value, nil
}

func (c *Client) getBool(ctx context.Context, name string) (bool, error) {
	data, err := c.Command(ctx, "get_property", name)
	if err != nil {
		return false, err
	}
	value, ok := data.(bool)
	if !ok {
		return false, fmt.Errorf("mpv property %s: expected flag, got %T", name, data)
	}
	return value, nil
}

func (c *Client) SetProperty(ctx context.Context, name string, value any) error {
	_, err := c.Command(ctx, "set_property", name, value)
	return err
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Close() error {
	return c.conn.Close()
}
