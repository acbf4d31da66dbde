// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Session SessionConfig `toml:"session"`
	Create  CreateConfig  `toml:"create"`
	Import  ImportConfig  `toml:"import"`
}

// SessionConfig maps settings shared by every run.
type SessionConfig struct {
	Subject       *string `toml:"subject"`
	Condition     *string `toml:"condition"`
	AudioDir      *string `toml:"audio-dir"`
	DataDir       *string `toml:"data-dir"`
	Randomize     *bool   `toml:"randomize"`
	Presentations *int    `toml:"presentations"`
	WriteMatrix   *bool   `toml:"write-matrix"`
	Unscored      *string `toml:"unscored"`
}

// CreateConfig maps settings for building a matrix from a sentence bank.
// A nil slice means unset.
type CreateConfig struct {
	SentenceFile     *string   `toml:"sentence-file"`
	Lists            []int     `toml:"lists"`
	SentencesPerList *int      `toml:"sentences-per-list"`
	Levels           []float64 `toml:"levels"`
	Speakers         []int     `toml:"speakers"`
}

// ImportConfig maps settings for loading a pre-built matrix.
type ImportConfig struct {
	MatrixFile *string `toml:"matrix-file"`
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
