package cmd

import (
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/respack/internal/ingest"
	"github.com/agentic-research/respack/internal/linter"
	"github.com/agentic-research/respack/internal/resource"
)

var lintCmd = &cobra.Command{
	Use:   "lint [source]",
	Short: "Report unknown or malformed flags in the source tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		tree, err := ingest.Discover(resource.Location{FS: osfs.New(args[0]), Path: "/"}, ingest.Options{
			Ignore: cfg.Ingest.Ignore,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		defer func() { _ = tree.Close() }()

		diags := linter.Lint(tree)
		out := cmd.OutOrStdout()
		for _, d := range diags {
			if _, err := fmt.Fprintln(out, d); err != nil {
				return err
			}
		}
		if n := linter.Errors(diags); n > 0 {
			return fmt.Errorf("%d flag error(s)", n)
		}
		_, err = fmt.Fprintf(out, "%d warning(s), no errors.\n", len(diags))
		return err
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)
}
