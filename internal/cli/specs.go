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
	specsCmd.Flags().BoolVar(&specsAvailable, "available", false, "Only show specs no worker has claimed")
	rootCmd.AddCommand(specsCmd)
}

var specsAvailable bool

var specsCmd = &cobra.Command{
	Use:   "specs",
	Short: "List technical tasks in the local store",
	RunE:  runSpecs,
}

func runSpecs(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	var specs []domain.TechnicalTask
	if specsAvailable {
		specs, err = d.Engine.AvailableSpecs(context.Background())
	} else {
		specs, err = d.Engine.ListSpecs(context.Background(), domain.SpecFilter{})
	}
	if err != nil {
		return err
	}

	if len(specs) == 0 {
		fmt.Println("No technical tasks found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTASK\tSTATUS\tPAYMENT\tWORKER\tDESCRIPTION")
	for _, s := range specs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			shortID(s.ID),
			shortID(s.TaskID),
			s.Status,
			s.Payment,
			orDash(s.Worker),
			truncate(s.Description, 40),
		)
	}
	return w.Flush()
}
