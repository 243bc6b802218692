package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	errs "github.com/matzehuels/driftboard/pkg/errors"
	"github.com/matzehuels/driftboard/pkg/kv"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Backend != kv.BackendFile {
		t.Errorf("Backend = %q, want file", cfg.Storage.Backend)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[editor]
edge_width = 3
prevent_overlap = true

[autosave]
interval = "5s"

[storage]
backend = "none"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Editor.EdgeWidth != 3 || !cfg.Editor.PreventOverlap {
		t.Errorf("editor = %+v", cfg.Editor)
	}
	if cfg.Autosave.Interval.Duration != 5*time.Second {
		t.Errorf("interval = %v, want 5s", cfg.Autosave.Interval)
	}
	if cfg.Editor.HistoryLimit != Default().Editor.HistoryLimit {
		t.Error("unset keys should keep defaults")
	}
	opts := cfg.EngineOptions()
	if opts.EdgeStyle.Width != 3 || !opts.PreventOverlap {
		t.Errorf("EngineOptions = %+v", opts)
	}
	if cfg.KV().Backend != kv.BackendNone {
		t.Errorf("KV().Backend = %q", cfg.KV().Backend)
	}
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "[editor\n"},
		{"unknown key", "[editor]\nfont = \"x\"\n"},
		{"bad backend", "[storage]\nbackend = \"floppy\"\n"},
		{"bad color", "[editor]\nnode_color = \"#12\"\n"},
		{"zero width", "[editor]\nedge_width = 0\n"},
		{"short interval", "[autosave]\ninterval = \"10ms\"\n"},
		{"bad listen", "[server]\nlisten = \"nowhere\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errs.Is(err, errs.ErrCodeInvalidInput) {
				t.Errorf("Load error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	want := Default()
	want.Editor.NodeColor = "#336699"
	want.Autosave.TTL = Duration{48 * time.Hour}
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *want {
		t.Errorf("round trip:\n got %+v\nwant %+v", got, want)
	}
}

func TestEnsureExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := EnsureExists(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
}

func TestDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := Path(); got != "/tmp/xdg/driftboard/config.toml" {
		t.Errorf("Path() = %q", got)
	}
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	if got := DataDir(); got != "/tmp/data/driftboard/sessions" {
		t.Errorf("DataDir() = %q", got)
	}
}
