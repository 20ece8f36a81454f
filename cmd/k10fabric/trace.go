package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/komandara/k10fabric/datarecording"
	"github.com/komandara/k10fabric/tracing"
)

var traceCmd = &cobra.Command{
	Use:   "trace FILE",
	Short: "List the transactions recorded by run --trace-db.",
	Long: "`trace FILE` lists the recorded transactions in start time order. " +
		"Times are in nanoseconds.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		driver, _ := f.GetString("driver")

		var q tracing.TaskQuery
		q.Kind, _ = f.GetString("kind")
		q.Location, _ = f.GetString("location")
		q.Limit, _ = f.GetInt("limit")
		q.Offset, _ = f.GetInt("offset")

		reader, err := datarecording.NewReader(driver, args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		tasks, total, err := tracing.QueryTasks(cmd.Context(), reader, q)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-6s %-24s %-14s %10s %10s\n",
			"KIND", "LOCATION", "WHAT", "START", "LATENCY")

		for _, t := range tasks {
			fmt.Fprintf(out, "%-6s %-24s %-14s %10.2f %10.2f\n",
				t.Kind, t.Location, t.What,
				t.StartTime*1e9, (t.EndTime-t.StartTime)*1e9)
		}

		fmt.Fprintf(out, "%d of %d tasks\n", len(tasks), total)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)

	f := traceCmd.Flags()
	f.String("driver", datarecording.DriverCGo,
		"SQLite driver, sqlite3 or sqlite")
	f.String("kind", "", "only list tasks of this kind, read or write")
	f.String("location", "", "only list tasks of elements under this name")
	f.Int("limit", 20, "maximum number of tasks to list, 0 for all")
	f.Int("offset", 0, "number of tasks to skip")
}
