package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/pior/rcp"
)

type fileConfig struct {
	Console            string `toml:"console"`
	ConnectTimeout     string `toml:"connect_timeout"`
	CallTimeout        string `toml:"call_timeout"`
	DrainTimeout       string `toml:"drain_timeout"`
	MaxPending         int    `toml:"max_pending"`
	SubscriptionBuffer int    `toml:"subscription_buffer"`
	LogLevel           string `toml:"log_level"`
	MetricsAddr        string `toml:"metrics_addr"`
	HistoryFile        string `toml:"history_file"`
}

type cliConfig struct {
	Console     string
	Client      rcp.Config
	LogLevel    zerolog.Level
	MetricsAddr string
	HistoryFile string
}

func defaultCLIConfig() cliConfig {
	return cliConfig{
		Client:   rcp.Config{DrainTimeout: time.Second},
		LogLevel: zerolog.WarnLevel,
	}
}

func loadConfig(path string) (cliConfig, error) {
	cfg := defaultCLIConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load rcpctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cliConfig{}, fmt.Errorf("load rcpctl config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("console") {
		cfg.Console = strings.TrimSpace(raw.Console)
	}

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.Client.ConnectTimeout},
		{"call_timeout", raw.CallTimeout, &cfg.Client.CallTimeout},
		{"drain_timeout", raw.DrainTimeout, &cfg.Client.DrainTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.value))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("max_pending") {
		cfg.Client.MaxPending = raw.MaxPending
	}

	if meta.IsDefined("subscription_buffer") {
		cfg.Client.SubscriptionBuffer = raw.SubscriptionBuffer
	}

	if meta.IsDefined("log_level") {
		level, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = level
	}

	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	if meta.IsDefined("history_file") {
		cfg.HistoryFile = strings.TrimSpace(raw.HistoryFile)
	}

	return cfg, nil
}

// applyEnv overlays RCP_CONSOLE and RCP_LOG_LEVEL.
func applyEnv(cfg *cliConfig) error {
	if v := strings.TrimSpace(os.Getenv("RCP_CONSOLE")); v != "" {
		cfg.Console = v
	}
	if v := strings.TrimSpace(os.Getenv("RCP_LOG_LEVEL")); v != "" {
		level, err := zerolog.ParseLevel(v)
		if err != nil {
			return fmt.Errorf("parse RCP_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}
	return nil
}
