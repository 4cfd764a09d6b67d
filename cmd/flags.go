package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentic-research/respack/internal/flags"
)

var flagsDir bool

var flagsCmd = &cobra.Command{
	Use:   "flags [name]...",
	Short: "Show how entry names split into base, flags and extension",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rows [][]string
		for _, arg := range args {
			name := flags.SplitName(arg, flagsDir)
			if len(name.Flags) == 0 {
				rows = append(rows, []string{arg, name.Base, name.Ext, "", ""})
				continue
			}
			for _, token := range name.Flags {
				rows = append(rows, []string{arg, name.Base, name.Ext, token, describe(token)})
			}
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Base", "Ext", "Flag", "Shapes"}, rows, nil))
		return err
	},
}

func init() {
	flagsCmd.Flags().BoolVarP(&flagsDir, "dir", "d", false, "Treat names as directories (no extension)")
	rootCmd.AddCommand(flagsCmd)
}

func describe(token string) string {
	shapes := flags.Classify(token)
	if len(shapes) == 0 {
		return "unknown"
	}
	return strings.Join(shapes, ", ")
}
