package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/respack/internal/config"
	"github.com/agentic-research/respack/internal/packer"
)

var (
	indexDB    string
	goIndex    string
	goPackage  string
	stagingDir string
	strict     bool
)

var packCmd = &cobra.Command{
	Use:   "pack [source] [output]",
	Short: "Convert the source tree into a resource bundle at output",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := applyOutputFlags(cmd, cfg); err != nil {
			return err
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := packer.RunDirs(ctx, args[0], args[1], packer.Options{Config: cfg, Logger: logger})
		if err != nil {
			return err
		}

		printSummary(cmd.OutOrStdout(), res)
		if n := res.Report.Count(slog.LevelError); strict && n > 0 {
			return fmt.Errorf("%d task error(s)", n)
		}
		return nil
	},
}

func init() {
	packCmd.Flags().StringVar(&indexDB, "index-db", "", "Write a SQLite index of the bundle to this file")
	packCmd.Flags().StringVar(&goIndex, "go-index", "", "Write a Go source index of the bundle to this file")
	packCmd.Flags().StringVar(&goPackage, "go-package", "", "Package name of the Go source index")
	packCmd.Flags().StringVar(&stagingDir, "staging-dir", "", "Stage intermediate files on disk instead of in memory")
	packCmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any task reports an error")
	rootCmd.AddCommand(packCmd)
}

func applyOutputFlags(cmd *cobra.Command, cfg *config.Config) error {
	overrides := []struct {
		flag  string
		value string
		dst   *string
		path  bool
	}{
		{"index-db", indexDB, &cfg.Output.IndexDB, true},
		{"go-index", goIndex, &cfg.Output.GoIndex, true},
		{"go-package", goPackage, &cfg.Output.GoPackage, false},
		{"staging-dir", stagingDir, &cfg.Output.StagingDir, true},
	}
	for _, o := range overrides {
		if !cmd.Flags().Changed(o.flag) {
			continue
		}
		v := o.value
		if o.path {
			var err error
			if v, err = config.ExpandPath(v); err != nil {
				return fmt.Errorf("--%s: %w", o.flag, err)
			}
		}
		*o.dst = v
	}
	return cfg.Validate()
}

func printSummary(w io.Writer, res *packer.Result) {
	rep := res.Report

	names := make([]string, 0, len(rep.Claims))
	for name := range rep.Claims {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, strconv.Itoa(rep.Claims[name])})
	}
	if len(rows) > 0 {
		_, _ = fmt.Fprintln(w, renderTable([]string{"Task", "Claimed"}, rows, []columnAlignment{alignLeft, alignRight}))
	}

	var problems [][]string
	for _, d := range rep.Diagnostics {
		if d.Level < slog.LevelWarn {
			continue
		}
		problems = append(problems, []string{d.Level.String(), d.Task, d.Node, d.Message})
	}
	if len(problems) > 0 {
		_, _ = fmt.Fprintln(w, renderTable([]string{"Level", "Task", "Entry", "Message"}, problems, nil))
	}

	_, _ = fmt.Fprintf(w, "Run %s: %d files, %d bytes, %d nodes visited, %d warning(s), %d error(s) in %v.\n",
		res.RunID, res.Files(), res.Bytes(), rep.Visited,
		rep.Count(slog.LevelWarn), rep.Count(slog.LevelError), res.Duration.Round(time.Millisecond))
}
