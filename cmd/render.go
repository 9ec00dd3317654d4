package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/recordui/internal/render"
	"github.com/sells-group/recordui/internal/tools"
)

type renderOptions struct {
	out        string
	objectType string
	plain      bool
}

var renderOpts renderOptions

var renderCmd = &cobra.Command{
	Use:   "render <form|table|card> [file...]",
	Short: "Render record text files into an HTML artifact",
	Long:  "Reads record text from files (or stdin when no file or '-' is given), writes the artifact HTML and prints the text summary. Table mode takes one record per file.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("render"); err != nil {
			return err
		}
		h, _, err := newToolHandler(cfg)
		if err != nil {
			return err
		}
		return runRender(cmd.Context(), h, render.Mode(args[0]), args[1:], renderOpts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOpts.out, "out", "o", "", "HTML output path (default recordui-<mode>.html)")
	renderCmd.Flags().StringVar(&renderOpts.objectType, "object-type", "", "object type for table titles")
	renderCmd.Flags().BoolVar(&renderOpts.plain, "plain", false, "print the summary without terminal styling")
	rootCmd.AddCommand(renderCmd)
}

func runRender(ctx context.Context, h *tools.Handler, mode render.Mode, paths []string, opts renderOptions, stdin io.Reader, stdout io.Writer) error {
	texts, err := readTexts(ctx, paths, stdin)
	if err != nil {
		return err
	}

	var (
		tool string
		args any
	)
	switch mode {
	case render.ModeForm:
		tool, args = tools.ToolRenderForm, map[string]any{"text": first(texts)}
	case render.ModeCard:
		tool, args = tools.ToolRenderCard, map[string]any{"text": first(texts)}
	case render.ModeTable:
		tool, args = tools.ToolRenderTable, map[string]any{"texts": texts, "object_type": opts.objectType}
	default:
		return eris.Errorf("render: unknown mode %q (want form, table or card)", mode)
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return eris.Wrap(err, "render: encode arguments")
	}
	res := h.Call(ctx, tool, raw)
	if res.IsError {
		_, _ = fmt.Fprintln(stdout, res.Text())
		return eris.New("render: failed")
	}

	art := res.Artifact()
	out := opts.out
	if out == "" {
		out = fmt.Sprintf("recordui-%s.html", mode)
	}
	if err := os.WriteFile(out, []byte(art.Text), 0o644); err != nil {
		return eris.Wrapf(err, "render: write %s", out)
	}

	summary := res.Text()
	if !opts.plain {
		summary = styled(summary)
	}
	_, _ = fmt.Fprintln(stdout, summary)
	_, _ = fmt.Fprintf(stdout, "%s -> %s\n", art.URI, filepath.Clean(out))
	return nil
}

// readTexts reads every path concurrently, preserving order. No paths or
// "-" reads stdin.
func readTexts(ctx context.Context, paths []string, stdin io.Reader) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	texts := make([]string, len(paths))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, p := range paths {
		g.Go(func() error {
			var (
				data []byte
				err  error
			)
			if p == "-" {
				data, err = io.ReadAll(stdin)
			} else {
				data, err = os.ReadFile(p)
			}
			if err != nil {
				return eris.Wrapf(err, "render: read %s", p)
			}
			texts[i] = string(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

func first(texts []string) string {
	if len(texts) == 0 {
		return ""
	}
	return texts[0]
}

func styled(markdown string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
