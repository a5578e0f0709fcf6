package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/HMasataka/avgap/pkg/gap"
)

const DefaultPath = "avgap.toml"

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Launcher LauncherConfig `toml:"launcher"`
	Analysis AnalysisConfig `toml:"analysis"`
}

type ServerConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	MaxPasteBytes int64  `toml:"maxpastebytes"`
}

func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type LauncherConfig struct {
	Command      []string `toml:"command"`
	StartupGrace int      `toml:"startupgrace"`
	ReadyTimeout int      `toml:"readytimeout"`
}

type AnalysisConfig struct {
	SlackMinutes        int   `toml:"slackminutes"`
	SeriesJumpThreshold int64 `toml:"seriesjumpthreshold"`
	MaxWorkers          int   `toml:"maxworkers"`
	History             int   `toml:"history"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8501,
			MaxPasteBytes: 10 << 20, // 10MB
		},
		Launcher: LauncherConfig{
			StartupGrace: 3,
			ReadyTimeout: 30,
		},
		Analysis: AnalysisConfig{
			SlackMinutes:        gap.DefaultSlackMinutes,
			SeriesJumpThreshold: gap.DefaultSeriesJumpThreshold,
			MaxWorkers:          4,
			History:             50,
		},
	}
}

// Load layers defaults, an optional toml file and AVGAP_* environment
// variables, in that order.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Missing file is fine, defaults and env apply
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := envconfig.Process("avgap", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}

	cfg.clamp()

	return cfg, nil
}

func (c *Config) clamp() {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		c.Server.Port = 8501
	}

	if c.Server.MaxPasteBytes < 1 {
		c.Server.MaxPasteBytes = 10 << 20
	}

	if c.Launcher.StartupGrace < 1 {
		c.Launcher.StartupGrace = 3
	}

	if c.Launcher.ReadyTimeout < 1 {
		c.Launcher.ReadyTimeout = 30
	}

	if c.Analysis.SlackMinutes < 1 {
		c.Analysis.SlackMinutes = gap.DefaultSlackMinutes
	}
	if c.Analysis.SlackMinutes < gap.MinSlackMinutes {
		c.Analysis.SlackMinutes = gap.MinSlackMinutes
	}
	if c.Analysis.SlackMinutes > gap.MaxSlackMinutes {
		c.Analysis.SlackMinutes = gap.MaxSlackMinutes
	}

	if c.Analysis.SeriesJumpThreshold < 1 {
		c.Analysis.SeriesJumpThreshold = gap.DefaultSeriesJumpThreshold
	}

	if c.Analysis.MaxWorkers < 1 {
		c.Analysis.MaxWorkers = 4
	}

	if c.Analysis.History < 1 {
		c.Analysis.History = 50
	}
}
