// Package config loads and saves the driftboard configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/driftboard/config.toml
// (~/.config/driftboard/config.toml when XDG_CONFIG_HOME is unset). Missing
// keys keep their defaults:
//
//	[editor]
//	default_content = "New label"
//	node_color = "#000000"
//	node_background = "#ffffff"
//	edge_color = "#000000"
//	edge_width = 2
//	history_limit = 50
//	prevent_overlap = false
//
//	[autosave]
//	interval = "30s"
//	ttl = "720h"
//
//	[storage]
//	backend = "file"           # file, redis, mongo or none
//	dir = ""                   # file backend, defaults to the cache dir
//	redis_addr = "localhost:6379"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	listen = "127.0.0.1:8080"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/driftboard/pkg/diagram"
	"github.com/matzehuels/driftboard/pkg/engine"
	errs "github.com/matzehuels/driftboard/pkg/errors"
	"github.com/matzehuels/driftboard/pkg/history"
	"github.com/matzehuels/driftboard/pkg/kv"
	"github.com/matzehuels/driftboard/pkg/session"
)

// AppName names the config and cache directories.
const AppName = "driftboard"

// Config holds driftboard configuration.
type Config struct {
	Editor   EditorConfig   `toml:"editor"`
	Autosave AutosaveConfig `toml:"autosave"`
	Storage  StorageConfig  `toml:"storage"`
	Server   ServerConfig   `toml:"server"`
}

// EditorConfig controls how new elements look and how the engine behaves.
type EditorConfig struct {
	DefaultContent string  `toml:"default_content" validate:"required,max=1024"`
	NodeColor      string  `toml:"node_color" validate:"omitempty,color"`
	NodeBackground string  `toml:"node_background" validate:"omitempty,color"`
	EdgeColor      string  `toml:"edge_color" validate:"omitempty,color"`
	EdgeWidth      float64 `toml:"edge_width" validate:"gt=0,lte=50"`
	HistoryLimit   int     `toml:"history_limit" validate:"gte=1,lte=10000"`
	PreventOverlap bool    `toml:"prevent_overlap"`
}

// AutosaveConfig controls periodic saving and session retention.
type AutosaveConfig struct {
	Interval Duration `toml:"interval"`
	TTL      Duration `toml:"ttl"` // 0 keeps sessions forever
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Backend         string `toml:"backend" validate:"oneof=file redis mongo none"`
	Dir             string `toml:"dir"`
	RedisAddr       string `toml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword   string `toml:"redis_password"`
	RedisDB         int    `toml:"redis_db" validate:"gte=0,lte=15"`
	MongoURI        string `toml:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// ServerConfig controls `driftboard serve`.
type ServerConfig struct {
	Listen string `toml:"listen" validate:"required,hostname_port"`
}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct{ time.Duration }

// UnmarshalText parses strings such as "30s" or "720h".
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText writes the duration in Go notation.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	node := diagram.DefaultNodeStyle()
	edge := diagram.DefaultEdgeStyle()
	return &Config{
		Editor: EditorConfig{
			DefaultContent: engine.DefaultContent,
			NodeColor:      node.Color,
			NodeBackground: node.BackgroundColor,
			EdgeColor:      edge.Color,
			EdgeWidth:      edge.Width,
			HistoryLimit:   history.DefaultLimit,
		},
		Autosave: AutosaveConfig{
			Interval: Duration{session.DefaultInterval},
			TTL:      Duration{session.DefaultTTL},
		},
		Storage: StorageConfig{
			Backend:       kv.BackendFile,
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: kv.DefaultMongoDatabase,
		},
		Server: ServerConfig{Listen: "127.0.0.1:8080"},
	}
}

// Dir returns the driftboard config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName)
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the default directory of the file storage backend.
func DataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, AppName, "sessions")
}

// Load reads the config file at path over the defaults. A missing file is
// not an error. Unknown keys and invalid values are.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "%s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// EnsureExists writes the defaults to path if no file exists there.
func EnsureExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Save(path, Default())
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := errs.ValidateStruct(c); err != nil {
		return err
	}
	if c.Autosave.Interval.Duration < time.Second {
		return errs.New(errs.ErrCodeInvalidInput, "autosave.interval must be at least 1s")
	}
	if c.Autosave.TTL.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "autosave.ttl must not be negative")
	}
	return nil
}

// EngineOptions converts the editor section into engine options.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		NodeStyle: diagram.NodeStyle{
			Color:           c.Editor.NodeColor,
			BackgroundColor: c.Editor.NodeBackground,
		},
		EdgeStyle: diagram.EdgeStyle{
			Color: c.Editor.EdgeColor,
			Width: c.Editor.EdgeWidth,
		},
		DefaultContent: c.Editor.DefaultContent,
		HistoryLimit:   c.Editor.HistoryLimit,
		PreventOverlap: c.Editor.PreventOverlap,
	}
}

// KV converts the storage section into a kv backend configuration.
func (c *Config) KV() kv.Config {
	dir := c.Storage.Dir
	if dir == "" {
		dir = DataDir()
	}
	return kv.Config{
		Backend: c.Storage.Backend,
		Dir:     dir,
		Redis: kv.RedisConfig{
			Addr:     c.Storage.RedisAddr,
			Password: c.Storage.RedisPassword,
			DB:       c.Storage.RedisDB,
			Prefix:   AppName + ":",
		},
		Mongo: kv.MongoConfig{
			URI:        c.Storage.MongoURI,
			Database:   c.Storage.MongoDatabase,
			Collection: c.Storage.MongoCollection,
		},
	}
}
