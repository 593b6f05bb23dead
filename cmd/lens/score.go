package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"codelens/internal/quality"
	"codelens/internal/report"
	"codelens/internal/types"
	"codelens/internal/util/jsonutil"
)

type scoreOptions struct {
	tier   string
	kind   string
	asJSON bool
}

func scoreCmd(root *rootOptions) *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score <report.json|->",
		Short: "Score a saved model report against the quality rubric",
		Example: `  lens score report.json --tier complex
  cat reply.txt | lens score - --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.tier, "tier", string(types.ComplexityMedium), "project tier: simple, medium, complex or enterprise")
	cmd.Flags().StringVar(&opts.kind, "kind", string(types.KindPerformance), "report kind: performance or hotspots")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print metrics as JSON")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func runScore(cmd *cobra.Command, root *rootOptions, opts *scoreOptions, path string) error {
	cfg, _, err := root.load()
	if err != nil {
		return err
	}
	raw, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	kind := types.ParseReportKind(opts.kind)
	r, err := report.Parse(kind, string(raw))
	if err != nil {
		return fmt.Errorf("parse report: %w", err)
	}
	m := quality.NewValidator(&cfg.Analysis).Validate(r, types.ParseComplexity(opts.tier))

	w := cmd.OutOrStdout()
	if opts.asJSON {
		b, err := jsonutil.MarshalNoEscapeIndent(m)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
	} else {
		renderMetrics(w, m)
	}
	if !m.PassesThreshold {
		return errBelowThreshold
	}
	return nil
}
