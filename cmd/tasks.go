package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentic-research/respack/internal/task"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the built-in tasks in running order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var rows [][]string
		for i, t := range task.NewPipeline(task.Default()...).Tasks() {
			c := t.Contract()
			phase := "enter"
			if c.PostOrder {
				phase = "leave"
			}
			rows = append(rows, []string{strconv.Itoa(i + 1), t.Name(), phase, c.Expects, c.Produces})
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"#", "Task", "Phase", "Expects", "Produces"}, rows,
			[]columnAlignment{alignRight},
		))
		return err
	},
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}
