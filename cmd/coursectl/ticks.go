package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stemsi/course-builder/internal/ticks"
)

func newTicksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ticks <duration>",
		Short: "Convert a duration (seconds, mm:ss, hh:mm:ss) to backend ticks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := ticks.ParseDurationToTicks(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ticks.TicksJSON(n), ticks.TicksToReadableDuration(n))
			return nil
		},
	}
}
