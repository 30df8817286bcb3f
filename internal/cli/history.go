package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/qamqor-studio/qamqor/internal/daemon"
)

func init() {
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <task-id>",
	Short: "Show the audit trail of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := context.Background()
	task, err := d.Engine.GetTask(ctx, args[0])
	if err != nil {
		return err
	}
	records, err := d.Engine.TaskHistory(ctx, task.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Task %s [%s]\n%s\n\n", shortID(task.ID), task.Status, task.Description)
	for _, rec := range records {
		fmt.Printf("%s  %-24s %s\n",
			rec.Timestamp.Format("2006-01-02 15:04"),
			rec.Action,
			rec.User,
		)
		if len(rec.Changes) > 0 {
			var parts []string
			for field, value := range rec.Changes {
				parts = append(parts, fmt.Sprintf("%s=%q", field, value))
			}
			fmt.Printf("                    %s\n", strings.Join(parts, " "))
		}
	}
	return nil
}
