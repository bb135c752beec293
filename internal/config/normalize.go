package config

import (
	"fmt"
	"os"
	"strings"
)

// environment variables holding provider API keys
var providerKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

func (c *Config) normalize() error {
	if err := c.normalizePlayer(); err != nil {
		return err
	}
	if err := c.normalizeLog(); err != nil {
		return err
	}
	c.normalizeTranslate()
	return nil
}

func (c *Config) normalizePlayer() error {
	c.Player.Binary = strings.TrimSpace(c.Player.Binary)
	if c.Player.Binary == "" {
		c.Player.Binary = defaultPlayerBinary
	}
	if c.Player.Instances == 0 {
		c.Player.Instances = 1
	}
	var err error
	if c.Player.SocketDir, err = expandPath(strings.TrimSpace(c.Player.SocketDir)); err != nil {
		return fmt.Errorf("player.socket_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLog() error {
	var err error
	if c.Log.File, err = expandPath(strings.TrimSpace(c.Log.File)); err != nil {
		return fmt.Errorf("log.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranslate() {
	c.Translate.Provider = strings.ToLower(strings.TrimSpace(c.Translate.Provider))
	if c.Translate.Provider == "" {
		c.Translate.Provider = defaultProvider
	}
	c.Translate.Model = strings.TrimSpace(c.Translate.Model)
	if c.Translate.APIKey == "" {
		if value, ok := os.LookupEnv(providerKeyEnv[c.Translate.Provider]); ok {
			c.Translate.APIKey = value
		}
	}
	if c.Translate.BatchSize == 0 {
		c.Translate.BatchSize = defaultBatchSize
	}
	if c.Translate.Concurrency == 0 {
		c.Translate.Concurrency = defaultConcurrency
	}
}
