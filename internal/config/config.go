// Package config holds tubetop's persistent configuration.
//
// The config file carries UI preferences and, optionally, the YouTube API
// key. The key can also come from the environment (TUBETOP_API_KEY, with a
// .env file honored in the working directory). The file is watched while the
// app runs so a key edited from another terminal is picked up without a
// restart; last writer wins.
package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"

	"tubetop/internal/logging"
)

// Config is the persistent application configuration.
type Config struct {
	// APIKey is the YouTube Data API key. Optional here; the environment
	// and the in-app prompt are the other two sources.
	APIKey string `json:"api_key,omitempty"`

	UI UIConfig `json:"ui"`

	// RelayAddr is the listen address for `tubetop relay`.
	RelayAddr string `json:"relay_addr"`
}

// UIConfig holds dashboard preferences.
type UIConfig struct {
	Sort      string `json:"sort"`      // rating | views | published | title
	Direction string `json:"direction"` // asc | desc
	Shuffle   bool   `json:"shuffle"`   // permute interleave batches per recompute
	// NarrowWidth is the terminal width (columns) at or below which the
	// dashboard switches to the narrow layout, where hidden videos apply.
	NarrowWidth int `json:"narrow_width"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			Sort:        "rating",
			Direction:   "desc",
			Shuffle:     true,
			NarrowWidth: 90,
		},
		RelayAddr: ":8099",
	}
}

// Path returns the config file location.
func Path() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tubetop", "config.json")
}

// DataPath returns the location of the SQLite database.
func DataPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tubetop", "tubetop.db")
}

// Load reads config from disk, falling back to defaults, then overlays the
// environment. A .env in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	cfg := DefaultConfig()
	data, err := os.ReadFile(Path())
	if err == nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			logging.Warn("config file unreadable, using defaults", "error", jsonErr)
			cfg = DefaultConfig()
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if key := os.Getenv("TUBETOP_API_KEY"); key != "" {
		cfg.APIKey = key
	}

	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // restrictive: may hold the API key
}

// Watch reloads the config whenever the file changes on disk and reports each
// new version to onChange. Runs until ctx is cancelled. Editors that replace
// the file (rename-over) are handled by re-adding the watch on the directory.
func Watch(ctx context.Context, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(Path())
	if err := os.MkdirAll(dir, 0755); err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != Path() {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load()
				if err != nil {
					logging.Warn("config reload failed", "error", err)
					continue
				}
				logging.Info("config reloaded")
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("config watcher error", "error", err)
			}
		}
	}()

	return nil
}
