package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/driftboard/pkg/diagram"
	"github.com/matzehuels/driftboard/pkg/document"
	"github.com/matzehuels/driftboard/pkg/engine"
	errs "github.com/matzehuels/driftboard/pkg/errors"
	"github.com/matzehuels/driftboard/pkg/render/nodelink"
)

// Export formats.
const (
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

// importCommand creates the "import" command.
func (c *CLI) importCommand() *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "import <session> <file>",
		Short: "Load a JSON document into a session",
		Long: `Load a JSON document into a session.

By default the document replaces the diagram. With --merge its labels are
added to the right of the existing ones under fresh ids, and lines may refer
to existing nodes by their text.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.ReadFile(args[1])
			if err != nil {
				return err
			}
			kind := engine.OpImportReplace
			if merge {
				kind = engine.OpImportMerge
			}

			prog := newProgress(c.Logger)
			var rep engine.Report
			err = c.mutate(cmd.Context(), args[0], func(e *engine.Engine) error {
				res, err := e.Dispatch(engine.Op{Kind: kind, Document: &doc})
				if err != nil {
					return err
				}
				rep = *res.Report
				return nil
			})
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Imported %s", args[1]))
			printReport(rep)
			return nil
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "merge into the diagram instead of replacing it")
	return cmd
}

func printReport(rep engine.Report) {
	printSuccess("%s: %d nodes, %d edges", rep.Mode, rep.Nodes, rep.Edges)
	if rep.Mode == "merge" {
		printDetail("ids shifted by %d, positions by %gpx", rep.IDOffset, rep.XOffset)
	}
	if rep.SelfLoops > 0 {
		printWarning("skipped %d self-referencing lines", rep.SelfLoops)
	}
	if rep.Dangling > 0 {
		printWarning("skipped %d lines with unknown endpoints", rep.Dangling)
	}
}

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output  string
		format  string
		subtree int
		hidden  bool
	)

	cmd := &cobra.Command{
		Use:   "export <session>",
		Short: "Write a session's diagram as JSON, DOT or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			ws, err := c.openWorkspace(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer ws.Close()

			var data []byte
			switch format {
			case formatJSON:
				doc := ws.eng.ExportAll()
				if cmd.Flags().Changed("subtree") {
					var ok bool
					if doc, ok = ws.eng.ExportSubtree(diagram.NodeID(subtree)); !ok {
						return errs.New(errs.ErrCodeNodeNotFound, "node %d not found", subtree)
					}
				}
				var buf bytes.Buffer
				if err := document.Write(&buf, doc); err != nil {
					return err
				}
				data = buf.Bytes()
			case formatDOT, formatSVG:
				if cmd.Flags().Changed("subtree") {
					return errs.New(errs.ErrCodeUnsupported, "--subtree is only supported for json")
				}
				dot := nodelink.ToDOT(ws.eng.Store(), ws.eng.Routes(), nodelink.Options{ShowHidden: hidden})
				data = []byte(dot)
				if format == formatSVG {
					spin := newSpinnerWithContext(cmd.Context(), "Rendering SVG...")
					spin.Start()
					data, err = nodelink.RenderSVG(cmd.Context(), dot)
					if err != nil {
						spin.StopWithError("Rendering failed")
						return fmt.Errorf("render: %w", err)
					}
					spin.Stop()
				}
			}
			return writeOutput(cmd.OutOrStdout(), output, data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json, dot, svg")
	cmd.Flags().IntVar(&subtree, "subtree", 0, "export only what is reachable from this node (json)")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "draw collapsed-away nodes dashed (dot, svg)")
	return cmd
}

func validateFormat(f string) error {
	switch f {
	case formatJSON, formatDOT, formatSVG:
		return nil
	}
	return errs.New(errs.ErrCodeInvalidFormat, "unknown format %q (want json, dot or svg)", f)
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	printFile(path)
	return nil
}
