package repo

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-git/go-billy/v5/util"
)

const configFile = "config.toml"

// Config holds repository-local settings, stored as TOML in .gert/config.toml.
type Config struct {
	Core    CoreConfig    `toml:"core"`
	User    UserConfig    `toml:"user"`
	Resolve ResolveConfig `toml:"resolve"`
}

type CoreConfig struct {
	DefaultBranch string `toml:"default_branch"`
}

type UserConfig struct {
	Name string `toml:"name"`
}

type ResolveConfig struct {
	// Abbrev is the hash abbreviation length used for display.
	Abbrev int `toml:"abbrev"`
}

func defaultConfig() *Config {
	return &Config{
		Core:    CoreConfig{DefaultBranch: DefaultBranch},
		Resolve: ResolveConfig{Abbrev: 12},
	}
}

// ReadConfig reads config.toml. A missing file returns the defaults.
func (r *Repo) ReadConfig() (*Config, error) {
	data, err := util.ReadFile(r.fs, configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := defaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("read config: unmarshal: %w", err)
	}
	if cfg.Resolve.Abbrev < 4 {
		cfg.Resolve.Abbrev = 12
	}
	return cfg, nil
}

// WriteConfig atomically writes config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	tmp, err := r.fs.TempFile("", ".config-")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		r.fs.Remove(tmpName)
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		r.fs.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := r.fs.Rename(tmpName, configFile); err != nil {
		r.fs.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}
