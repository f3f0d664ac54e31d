// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Study StudyConfig            `toml:"study"`
	Decks map[string]StudyConfig `toml:"decks"`
}

// StudyConfig maps study-related settings. Nil fields were not set in the file.
type StudyConfig struct {
	NewCards          *int     `toml:"new-cards"`
	Reviews           *int     `toml:"reviews"`
	Interleave        *int     `toml:"interleave"`
	LapseIntervalDays *float64 `toml:"lapse-interval-days"`
	StartingEase      *float64 `toml:"starting-ease"`
	LookaheadHours    *float64 `toml:"lookahead-hours"`
	XPCorrect         *int     `toml:"xp-correct"`
	XPIncorrect       *int     `toml:"xp-incorrect"`
	Typed             *bool    `toml:"typed"`
}

// ForDeck returns the [study] settings with any [decks.<deck>] values laid on
// top.
func (c FileConfig) ForDeck(deck string) StudyConfig {
	out := c.Study
	over, ok := c.Decks[deck]
	if deck == "" || !ok {
		return out
	}
	if over.NewCards != nil {
		out.NewCards = over.NewCards
	}
	if over.Reviews != nil {
		out.Reviews = over.Reviews
	}
	if over.Interleave != nil {
		out.Interleave = over.Interleave
	}
	if over.LapseIntervalDays != nil {
		out.LapseIntervalDays = over.LapseIntervalDays
	}
	if over.StartingEase != nil {
		out.StartingEase = over.StartingEase
	}
	if over.LookaheadHours != nil {
		out.LookaheadHours = over.LookaheadHours
	}
	if over.XPCorrect != nil {
		out.XPCorrect = over.XPCorrect
	}
	if over.XPIncorrect != nil {
		out.XPIncorrect = over.XPIncorrect
	}
	if over.Typed != nil {
		out.Typed = over.Typed
	}
	return out
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
