package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/driftboard/pkg/diagram"
	"github.com/matzehuels/driftboard/pkg/document"
	"github.com/matzehuels/driftboard/pkg/engine"
	errs "github.com/matzehuels/driftboard/pkg/errors"
	"github.com/matzehuels/driftboard/pkg/session"
)

// newCommand creates the "new" command, which starts a session.
func (c *CLI) newCommand() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Create a new diagram session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var title string
			if len(args) == 1 {
				title = args[0]
			}
			sess, err := c.createSession(cmd.Context(), title, from)
			if err != nil {
				return err
			}
			printSuccess("Created session %s", StyleHighlight.Render(sess.ID))
			printNextStep("Add a node", fmt.Sprintf("%s add %s \"Hello\"", appName, sess.ID[:8]))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start from a JSON document")
	return cmd
}

// createSession saves a new session, optionally seeded with a document file.
func (c *CLI) createSession(ctx context.Context, title, from string) (*session.Session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := c.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	eng := c.newEngine(cfg)
	if from != "" {
		doc, err := document.ReadFile(from)
		if err != nil {
			return nil, err
		}
		if _, err := eng.ImportReplace(doc); err != nil {
			return nil, err
		}
	}
	sess := session.New(title, cfg.Autosave.TTL.Duration)
	if err := session.SaveDiagram(ctx, store, sess, eng); err != nil {
		return nil, err
	}
	c.Logger.Debug("session created", "id", sess.ID, "backend", cfg.Storage.Backend)
	return sess, nil
}

// showCommand creates the "show" command, which lists a session's diagram.
func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session>",
		Short: "Show the nodes and edges of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openWorkspace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer ws.Close()

			f := ws.eng.Frame()
			title := f.Title
			if title == "" {
				title = ws.sess.Title
			}
			printKeyValue("Session", ws.sess.ID)
			printKeyValue("Title", title)
			printKeyValue("Updated", ws.sess.UpdatedAt.Local().Format("2006-01-02 15:04"))

			hidden := 0
			for _, n := range f.Nodes {
				if n.IsHidden() {
					hidden++
				}
			}
			fmt.Println(formatStats(len(f.Nodes), len(f.Edges), hidden))
			if len(f.Nodes) > 0 {
				fmt.Println(nodeTable(f))
			}
			return nil
		},
	}
}

// nodeTable renders one row per node with its outgoing edges.
func nodeTable(f engine.Frame) string {
	out := make(map[diagram.NodeID][]string)
	for _, e := range f.Edges {
		out[e.From] = append(out[e.From], strconv.Itoa(int(e.To)))
	}

	rows := make([][]string, 0, len(f.Nodes))
	for _, n := range f.Nodes {
		state := ""
		switch {
		case n.Collapsed:
			state = "collapsed"
		case n.IsHidden():
			state = "hidden"
		}
		targets := "—"
		if ts := out[n.ID]; len(ts) > 0 {
			targets = fmt.Sprint(ts)
		}
		rows = append(rows, []string{
			strconv.Itoa(int(n.ID)),
			truncate(diagram.PlainText(n.Content), 32),
			fmt.Sprintf("%g,%g", n.Pos.X, n.Pos.Y),
			targets,
			state,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Content", "Position", "Arrows to", "State").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < len(f.Nodes) && f.Nodes[row].IsHidden() {
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// addCommand creates the "add" command.
func (c *CLI) addCommand() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "add <session> [content]",
		Short: "Add a node",
		Long:  `Add a node. Without --at the node is placed on a diagonal staircase next to the existing ones.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := engine.Op{Kind: engine.OpCreateNode}
			if len(args) == 2 {
				op.Content = &args[1]
				if err := errs.ValidateContent(args[1]); err != nil {
					return err
				}
			}
			if at != "" {
				p, err := parsePoint(at)
				if err != nil {
					return err
				}
				op.Point = &p
			}
			var id diagram.NodeID
			err := c.mutate(cmd.Context(), args[0], func(e *engine.Engine) error {
				res, err := e.Dispatch(op)
				id = res.Node
				return err
			})
			if err != nil {
				return err
			}
			printSuccess("Added node %d", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "position as x,y")
	return cmd
}

// connectCommand creates the "connect" command.
func (c *CLI) connectCommand() *cobra.Command {
	var (
		color string
		width float64
	)

	cmd := &cobra.Command{
		Use:   "connect <session> <from> <to>",
		Short: "Draw an arrow between two nodes",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseNodeID(args[1])
			if err != nil {
				return err
			}
			to, err := parseNodeID(args[2])
			if err != nil {
				return err
			}
			if err := errs.ValidateColor(color); err != nil {
				return err
			}
			var edge diagram.Edge
			err = c.mutate(cmd.Context(), args[0], func(e *engine.Engine) error {
				op := engine.Op{Kind: engine.OpConnect, Node: from, Target: to}
				if cmd.Flags().Changed("color") || cmd.Flags().Changed("width") {
					style := diagram.DefaultEdgeStyle()
					if color != "" {
						style.Color = color
					}
					if width > 0 {
						style.Width = width
					}
					op.EdgeStyle = &style
				}
				res, err := e.Dispatch(op)
				edge = res.Edge
				return err
			})
			if err != nil {
				return err
			}
			printSuccess("Connected %d %s %d (edge %d)", edge.From, iconArrow, edge.To, edge.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "arrow color (#rrggbb)")
	cmd.Flags().Float64Var(&width, "width", 0, "arrow width in pixels")
	return cmd
}

// moveCommand creates the "move" command.
func (c *CLI) moveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move <session> <node> <x,y>",
		Short: "Move a node; a collapsed node drags its subtree along",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNodeID(args[1])
			if err != nil {
				return err
			}
			p, err := parsePoint(args[2])
			if err != nil {
				return err
			}
			return c.applyOne(cmd.Context(), args[0], engine.Op{Kind: engine.OpMoveNode, Node: id, Point: &p},
				fmt.Sprintf("Moved node %d", id))
		},
	}
}

// deleteCommand creates the "delete" command.
func (c *CLI) deleteCommand() *cobra.Command {
	var edge bool

	cmd := &cobra.Command{
		Use:   "delete <session> <id>",
		Short: "Delete a node with its arrows, or an arrow with --edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[1])
			if err != nil || id < 0 {
				return errs.New(errs.ErrCodeInvalidInput, "invalid id %q", args[1])
			}
			if edge {
				return c.applyOne(cmd.Context(), args[0], engine.Op{Kind: engine.OpDeleteEdge, Edge: diagram.EdgeID(id)},
					fmt.Sprintf("Deleted edge %d", id))
			}
			return c.applyOne(cmd.Context(), args[0], engine.Op{Kind: engine.OpDeleteNode, Node: diagram.NodeID(id)},
				fmt.Sprintf("Deleted node %d", id))
		},
	}

	cmd.Flags().BoolVar(&edge, "edge", false, "treat the id as an edge id")
	return cmd
}

// collapseCommand creates the "collapse" command.
func (c *CLI) collapseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "collapse <session> <node>",
		Short: "Collapse or expand everything reachable from a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNodeID(args[1])
			if err != nil {
				return err
			}
			return c.applyOne(cmd.Context(), args[0], engine.Op{Kind: engine.OpToggleCollapse, Node: id},
				fmt.Sprintf("Toggled node %d", id))
		},
	}
}

// applyOne dispatches op against a session and saves it. An operation
// without effect prints a warning instead of done.
func (c *CLI) applyOne(ctx context.Context, ref string, op engine.Op, done string) error {
	var res engine.Result
	err := c.mutate(ctx, ref, func(e *engine.Engine) error {
		var err error
		res, err = e.Dispatch(op)
		return err
	})
	if err != nil {
		return err
	}
	if !res.Changed {
		printWarning("Nothing changed")
		return nil
	}
	printSuccess("%s", done)
	return nil
}
