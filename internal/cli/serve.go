package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/driftboard/internal/server"
	"github.com/matzehuels/driftboard/pkg/config"
	"github.com/matzehuels/driftboard/pkg/engine"
	"github.com/matzehuels/driftboard/pkg/kv"
	"github.com/matzehuels/driftboard/pkg/session"
)

// serveCommand creates the "serve" command, which exposes one session over
// HTTP and autosaves it.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve [session]",
		Short: "Serve a session over HTTP",
		Long: `Serve a session over HTTP until interrupted.

Without a session argument a new one is created. The diagram is saved every
autosave interval and once more on shutdown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.Server.Listen
			}
			store, err := c.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			saver, err := c.startSession(ctx, cfg, store, args)
			if err != nil {
				return err
			}

			printSuccess("Serving session %s", StyleHighlight.Render(saver.Session.ID))
			printDetail("%s", StyleLink.Render(httpURL(listen)))
			return serveAndSave(ctx, server.New(saver.Engine, c.Logger), listen, saver)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	return cmd
}

// startSession loads the session named in args, or creates one, and returns
// an autosaver over a shared engine holding its diagram.
func (c *CLI) startSession(ctx context.Context, cfg *config.Config, store kv.Store, args []string) (*session.Autosaver, error) {
	var sess *session.Session
	if len(args) == 1 {
		s, err := session.Resolve(ctx, store, args[0])
		if err != nil {
			return nil, err
		}
		sess = s
	} else {
		sess = session.New("", cfg.Autosave.TTL.Duration)
	}

	saver := &session.Autosaver{
		Engine:   engine.NewLocked(c.newEngine(cfg)),
		Store:    store,
		Session:  sess,
		Interval: cfg.Autosave.Interval.Duration,
		Logger:   c.Logger,
	}
	restored, err := saver.Restore(ctx)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("session ready", "id", sess.ID, "restored", restored)
	return saver, nil
}

// serveAndSave runs the HTTP server and the autosaver until ctx is
// cancelled or either of them fails.
func serveAndSave(ctx context.Context, srv *server.Server, addr string, saver *session.Autosaver) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Run(gctx, addr); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := saver.Run(gctx); err != nil {
			return fmt.Errorf("autosave: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func httpURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
