package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePlayer(); err != nil {
		return err
	}
	if err := c.validateEditor(); err != nil {
		return err
	}
	return c.validateTranslate()
}

func (c *Config) validatePlayer() error {
	if c.Player.Instances < 1 || c.Player.Instances > 8 {
		return fmt.Errorf("player.instances must be between 1 and 8, got %d", c.Player.Instances)
	}
	if c.Player.PollIntervalMS < 10 || c.Player.PollIntervalMS > 1000 {
		return fmt.Errorf("player.poll_interval_ms must be between 10 and 1000, got %d", c.Player.PollIntervalMS)
	}
	return nil
}

func (c *Config) validateEditor() error {
	if c.Editor.DefaultDurationMS <= 0 {
		return errors.New("editor.default_duration_ms must be positive")
	}
	if c.Editor.Window < 1 {
		return errors.New("editor.window must be at least 1")
	}
	if c.Editor.BarWidth < 3 {
		return errors.New("editor.bar_width must be at least 3")
	}
	if c.Editor.SeekSmallMS <= 0 || c.Editor.SeekLargeMS <= 0 {
		return errors.New("editor.seek_small_ms and editor.seek_large_ms must be positive")
	}
	return nil
}

func (c *Config) validateTranslate() error {
	if _, ok := providerKeyEnv[c.Translate.Provider]; !ok {
		return fmt.Errorf("translate.provider %q is not one of gemini, openai, anthropic", c.Translate.Provider)
	}
	if c.Translate.BatchSize < 1 {
		return errors.New("translate.batch_size must be positive")
	}
	if c.Translate.Concurrency < 1 {
		return errors.New("translate.concurrency must be positive")
	}
	return nil
}
