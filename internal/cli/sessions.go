package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/driftboard/pkg/kv"
	"github.com/matzehuels/driftboard/pkg/session"
)

// sessionsCommand creates the session management command.
func (c *CLI) sessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage saved diagram sessions",
	}

	cmd.AddCommand(c.sessionsListCommand())
	cmd.AddCommand(c.sessionsPathCommand())
	cmd.AddCommand(c.sessionsClearCommand())

	return cmd
}

// sessionsListCommand creates the "sessions list" subcommand.
func (c *CLI) sessionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sessions, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := c.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := session.List(cmd.Context(), store)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				printInfo("No sessions")
				printNextStep("Start one", appName+" new \"My diagram\"")
				return nil
			}
			fmt.Println(sessionTable(sessions, time.Now()))
			return nil
		},
	}
}

func sessionTable(sessions []*session.Session, now time.Time) string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		title := s.Title
		if title == "" {
			title = "—"
		}
		expires := "never"
		if !s.ExpiresAt.IsZero() {
			expires = formatRelative(s.ExpiresAt.Sub(now))
		}
		rows = append(rows, []string{s.ID[:8], truncate(title, 40), formatRelative(s.UpdatedAt.Sub(now)), expires})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Title", "Updated", "Expires").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleHighlight
			case col >= 2:
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// formatRelative renders d as "3h ago" for the past or "in 3h" for the
// future.
func formatRelative(d time.Duration) string {
	past := d < 0
	if past {
		d = -d
	}
	var s string
	switch {
	case d < time.Minute:
		if past {
			return "just now"
		}
		return "now"
	case d < time.Hour:
		s = fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		s = fmt.Sprintf("%dh", int(d.Hours()))
	default:
		s = fmt.Sprintf("%dd", int(d.Hours()/24))
	}
	if past {
		return s + " ago"
	}
	return "in " + s
}

// sessionsPathCommand creates the "sessions path" subcommand.
func (c *CLI) sessionsPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where sessions are stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			kc := cfg.KV()
			switch kc.Backend {
			case kv.BackendFile, "":
				fmt.Println(kc.Dir)
			case kv.BackendRedis:
				fmt.Printf("redis://%s/%d (prefix %s)\n", kc.Redis.Addr, kc.Redis.DB, kc.Redis.Prefix)
			case kv.BackendMongo:
				fmt.Printf("%s (%s.%s)\n", kc.Mongo.URI, kc.Mongo.Database, kc.Mongo.Collection)
			default:
				fmt.Println(kc.Backend)
			}
			return nil
		},
	}
}

// sessionsClearCommand creates the "sessions clear" subcommand.
func (c *CLI) sessionsClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := c.openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := session.List(cmd.Context(), store)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				printInfo("No sessions")
				return nil
			}
			count := 0
			for _, s := range sessions {
				if err := session.Delete(cmd.Context(), store, s); err != nil {
					printError("%s: %v", s.ID[:8], err)
					continue
				}
				count++
			}
			printSuccess("Deleted %d sessions", count)
			return nil
		},
	}
}
