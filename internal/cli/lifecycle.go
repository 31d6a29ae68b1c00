package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/headline-goat/variant-goat/internal/experiment"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <test-id>",
		Short: "Start or resume a test",
		Long: `Start a draft test, or resume a paused one. Visitors are only assigned
while a test is running.

Resuming stamps a new start time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return transition(cmd, args[0], experiment.ActionStart)
		},
	}
}

func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause <test-id>",
		Short: "Pause a running test",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return transition(cmd, args[0], experiment.ActionPause)
		},
	}
}

func newStopCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "stop <test-id>",
		Short: "Complete a test",
		Long: `Complete a running or paused test. Completed tests cannot be restarted,
but their results stay available.

Example:
  vg stop 0b9f6c1e-... --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := confirm(fmt.Sprintf("Complete test %s? This cannot be undone", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}
			return transition(cmd, args[0], experiment.ActionStop)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}

func transition(cmd *cobra.Command, testID, action string) error {
	return withEngine(cmd, func(ctx context.Context, e *env) error {
		test, err := e.engine.Transition(ctx, testID, action)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Test '%s' is now %s.\n", test.Name, test.Status)
		return nil
	})
}
