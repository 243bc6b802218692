// Package cli implements the driftboard command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/driftboard/pkg/buildinfo"
	"github.com/matzehuels/driftboard/pkg/config"
	"github.com/matzehuels/driftboard/pkg/diagram"
	"github.com/matzehuels/driftboard/pkg/engine"
	errs "github.com/matzehuels/driftboard/pkg/errors"
	"github.com/matzehuels/driftboard/pkg/kv"
	"github.com/matzehuels/driftboard/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Driftboard edits node-and-arrow diagrams",
		Long:          `Driftboard is a diagram editor core: labelled boxes joined by directed arrows, collapsible subtrees, undo/redo and a JSON document format, driven from the command line, a terminal UI or an HTTP API.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default "+config.Path()+")")

	root.AddCommand(c.newCommand())
	root.AddCommand(c.sessionsCommand())
	root.AddCommand(c.completionCommand())

	// commands whose first argument is a session
	for _, cmd := range []*cobra.Command{
		c.showCommand(),
		c.addCommand(),
		c.connectCommand(),
		c.moveCommand(),
		c.deleteCommand(),
		c.collapseCommand(),
		c.importCommand(),
		c.exportCommand(),
		c.editCommand(),
		c.serveCommand(),
	} {
		cmd.ValidArgsFunction = c.completeSessions
		root.AddCommand(cmd)
	}

	return root
}

// =============================================================================
// Config and Storage
// =============================================================================

func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.ConfigPath
	if path == "" {
		path = config.Path()
	}
	return config.Load(path)
}

func (c *CLI) openStore(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	store, err := kv.Open(ctx, cfg.KV())
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	return store, nil
}

func (c *CLI) newEngine(cfg *config.Config) *engine.Engine {
	opts := cfg.EngineOptions()
	opts.Logger = c.Logger
	return engine.New(opts)
}

// =============================================================================
// Workspace - one session loaded for one command
// =============================================================================

type workspace struct {
	cfg   *config.Config
	store kv.Store
	sess  *session.Session
	eng   *engine.Engine
}

// openWorkspace loads the session named by ref (full ID or unique prefix)
// together with its saved diagram.
func (c *CLI) openWorkspace(ctx context.Context, ref string) (*workspace, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := c.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sess, err := session.Resolve(ctx, store, ref)
	if err != nil {
		store.Close()
		return nil, err
	}
	eng := c.newEngine(cfg)
	if _, err := session.Restore(ctx, store, sess, eng); err != nil {
		store.Close()
		return nil, err
	}
	c.Logger.Debug("session loaded", "id", sess.ID, "nodes", eng.Store().NodeCount())
	return &workspace{cfg: cfg, store: store, sess: sess, eng: eng}, nil
}

func (w *workspace) save(ctx context.Context) error {
	return session.SaveDiagram(ctx, w.store, w.sess, w.eng)
}

func (w *workspace) Close() error { return w.store.Close() }

// mutate applies fn to the session's diagram and saves it when fn succeeds.
func (c *CLI) mutate(ctx context.Context, ref string, fn func(e *engine.Engine) error) error {
	ws, err := c.openWorkspace(ctx, ref)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := fn(ws.eng); err != nil {
		return err
	}
	return ws.save(ctx)
}

// =============================================================================
// Argument Parsing
// =============================================================================

// parsePoint parses "x,y".
func parsePoint(s string) (diagram.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return diagram.Point{}, errs.New(errs.ErrCodeInvalidInput, "point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return diagram.Point{}, errs.New(errs.ErrCodeInvalidInput, "point %q: bad x", s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return diagram.Point{}, errs.New(errs.ErrCodeInvalidInput, "point %q: bad y", s)
	}
	return diagram.Point{X: x, Y: y}, nil
}

func parseNodeID(s string) (diagram.NodeID, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, errs.New(errs.ErrCodeInvalidInput, "invalid node id %q", s)
	}
	return diagram.NodeID(id), nil
}
