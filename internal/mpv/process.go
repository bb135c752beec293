package mpv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	dialInterval    = 50 * time.Millisecond
	shutdownTimeout = 3 * time.Second
)

// LaunchOptions configures one mpv process.
type LaunchOptions struct {
	Binary string
	Media  string
	// directory for the IPC socket, os.TempDir when empty
	SocketDir string
	Args      []string
	Mute      bool
	// how long to wait for the IPC socket to appear
	StartTimeout time.Duration
}

// Process is a running mpv bound to a Player.
type Process struct {
	*Player

	cmd    *exec.Cmd
	socket string
	exited chan struct{}
	err    error
}

// SocketPath returns a unique socket path inside dir.
func SocketPath(dir string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "subscrub-"+uuid.NewString()+".sock")
}

func (o LaunchOptions) args(socket string) []string {
	args := []string{
		"--input-ipc-server=" + socket,
		"--keep-open=yes",
		"--force-window=yes",
		// the editor starts playback once every instance is up
		"--pause=yes",
		"--osd-level=1",
	}
	if o.Mute {
		args = append(args, "--mute=yes")
	}
	args = append(args, o.Args...)
	return append(args, "--", o.Media)
}

// Launch starts mpv on the media file and connects to its IPC socket.
func Launch(ctx context.Context, opts LaunchOptions) (*Process, error) {
	if opts.Binary == "" {
		opts.Binary = "mpv"
	}
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = 5 * time.Second
	}

	binary, err := exec.LookPath(opts.Binary)
	if err != nil {
		return nil, fmt.Errorf("failed to find mpv binary %q: %w", opts.Binary, err)
	}

	socket := SocketPath(opts.SocketDir)
	cmd := exec.Command(binary, opts.args(socket)...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}

	p := &Process{cmd: cmd, socket: socket, exited: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.exited)
	}()

	dialCtx, cancel := context.WithTimeout(ctx, opts.StartTimeout)
	defer cancel()
	client, err := p.dial(dialCtx)
	if err != nil {
		_ = p.kill()
		return nil, err
	}
	p.Player = NewPlayer(client)
	return p, nil
}

func (p *Process) dial(ctx context.Context) (*Client, error) {
	ticker := time.NewTicker(dialInterval)
	defer ticker.Stop()
	for {
		client, err := Dial(ctx, p.socket)
		if err == nil {
			return client, nil
		}
		select {
		case <-p.exited:
			return nil, fmt.Errorf("mpv exited before its IPC socket was ready: %v", p.err)
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for mpv IPC socket: %w", err)
		case <-ticker.C:
		}
	}
}

// Exited is closed when the mpv process ends, for example when the user
// closes its window.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// Close asks mpv to quit and waits for it, killing it after a timeout.
func (p *Process) Close() error {
	var err error
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if p.Player != nil {
		if _, quitErr := p.client.Command(ctx, "quit"); quitErr != nil && !errors.Is(quitErr, ErrClosed) {
			err = multierr.Append(err, quitErr)
		}
		if closeErr := p.client.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
			err = multierr.Append(err, closeErr)
		}
	}

	select {
	case <-p.exited:
	case <-ctx.Done():
		err = multierr.Append(err, p.kill())
	}

	if rmErr := os.Remove(p.socket); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		err = multierr.Append(err, rmErr)
	}
	return err
}

func (p *Process) kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill mpv: %w", err)
	}
	<-p.exited
	return nil
}
