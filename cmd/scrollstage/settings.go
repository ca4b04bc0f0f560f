package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/phanxgames/scrollstage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// settings are runtime defaults read from the environment. Flags override
// them.
type settings struct {
	Debug   bool   `env:"SCROLLSTAGE_DEBUG"`
	Width   int    `env:"SCROLLSTAGE_WIDTH"`
	Height  int    `env:"SCROLLSTAGE_HEIGHT"`
	Layout  string `env:"SCROLLSTAGE_LAYOUT"`
	LogMode string `env:"SCROLLSTAGE_LOG_MODE" envDefault:"dev"`
}

func loadSettings() (settings, error) {
	var s settings
	if err := env.Parse(&s); err != nil {
		return settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

// resolve applies the command's persistent flags over the environment.
func (s settings) resolve(cmd *cobra.Command) (settings, error) {
	flags := cmd.Flags()
	if flags.Changed("layout") {
		v, err := flags.GetString("layout")
		if err != nil {
			return s, err
		}
		s.Layout = v
	}
	if flags.Changed("debug") {
		v, err := flags.GetBool("debug")
		if err != nil {
			return s, err
		}
		s.Debug = v
	}
	return s, nil
}

// newLogger builds a zap logger for mode: "prod" logs JSON, anything else
// logs human-readable lines. Debug lowers the level to debug.
func newLogger(mode string, debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	case "off", "none":
		return zap.NewNop(), nil
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// loadLayout returns the layout at path, or the one FindLayout locates, or
// the built-in layout when nothing is found and no path was given. The
// second result names where the layout came from.
func loadLayout(path string) (*scrollstage.Layout, string, error) {
	found, err := scrollstage.FindLayout(path)
	if errors.Is(err, scrollstage.ErrConfigNotFound) && path == "" {
		return scrollstage.DefaultLayout(), "built-in", nil
	}
	if err != nil {
		return nil, "", err
	}
	l, err := scrollstage.LoadLayout(found)
	if err != nil {
		return nil, "", err
	}
	return l, found, nil
}
