package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"codelens/internal/analysis"
	"codelens/internal/scan"
	"codelens/internal/types"
	"codelens/internal/util/jsonutil"
)

type analyzeOptions struct {
	kind         string
	instructions string
	out          string
	asJSON       bool
	maxFiles     int
	maxFileBytes int64
}

func analyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <dir>",
		Short: "Scan a directory and produce a scored performance report",
		Example: `  lens analyze ./service
  lens analyze ./web --kind hotspots --instructions "focus on rendering"
  lens analyze . --json --out report.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.kind, "kind", string(types.KindPerformance), "report kind: performance or hotspots")
	cmd.Flags().StringVar(&opts.instructions, "instructions", "", "extra instructions for the model")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the result as JSON to this file")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	cmd.Flags().IntVar(&opts.maxFiles, "max-files", scan.DefaultMaxFiles, "maximum number of files to read")
	cmd.Flags().Int64Var(&opts.maxFileBytes, "max-file-bytes", scan.DefaultMaxFileBytes, "skip files larger than this")
	return cmd
}

func runAnalyze(cmd *cobra.Command, root *rootOptions, opts *analyzeOptions, dir string) error {
	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Model.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Model.Timeout)
		defer cancel()
	}

	skipped := 0
	files, err := scan.Load(dir, scan.Options{
		MaxFiles:     opts.maxFiles,
		MaxFileBytes: opts.maxFileBytes,
		OnSkip: func(path string, reason scan.SkipReason) {
			skipped++
			logger.Debug("file skipped", "path", path, "reason", reason)
		},
	})
	if err != nil {
		return err
	}
	logger.Info("scanned", "dir", dir, "files", len(files), "bytes", humanize.Bytes(uint64(scan.TotalBytes(files))), "skipped", skipped)

	svc, err := newService(ctx, cfg, logger, nil, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.Analyze(ctx, analysis.Request{
		Files:        files,
		Kind:         types.ParseReportKind(opts.kind),
		Instructions: opts.instructions,
	})
	if err != nil {
		return err
	}

	if opts.out != "" {
		b, err := jsonutil.MarshalNoEscapeIndent(res)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.out, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.out, err)
		}
	}
	w := cmd.OutOrStdout()
	if opts.asJSON {
		b, err := jsonutil.MarshalNoEscapeIndent(res)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
	} else {
		renderResult(w, res)
	}
	if !res.Metrics.PassesThreshold {
		return errBelowThreshold
	}
	return nil
}
