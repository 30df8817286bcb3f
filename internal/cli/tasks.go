package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/qamqor-studio/qamqor/internal/daemon"
	"github.com/qamqor-studio/qamqor/internal/domain"
)

func init() {
	tasksCmd.Flags().StringVar(&tasksStatus, "status", "", "Filter by status (new, in_progress, completed, deleted)")
	rootCmd.AddCommand(tasksCmd)
}

var tasksStatus string

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"ls"},
	Short:   "List tasks in the local store",
	RunE:    runTasks,
}

func runTasks(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	var filter domain.TaskFilter
	if tasksStatus != "" {
		status := domain.TaskStatus(tasksStatus)
		if !status.Valid() {
			return fmt.Errorf("unknown status %q", tasksStatus)
		}
		filter.Statuses = []domain.TaskStatus{status}
	}

	tasks, err := d.Engine.ListTasks(context.Background(), filter)
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tDEVELOPER\tCREATED\tDESCRIPTION")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID),
			t.Status,
			orDash(t.Developer),
			t.CreatedAt.Format("2006-01-02 15:04"),
			truncate(t.Description, 48),
		)
	}
	return w.Flush()
}
