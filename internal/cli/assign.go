package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <test-id> <visitor-id>",
		Short: "Assign a visitor to a variant",
		Long: `Bucket a visitor into a variant of a running test. A visitor always gets
the variant of their first assignment.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *env) error {
				variant, err := e.engine.Assign(ctx, args[0], args[1])
				if err != nil {
					return err
				}

				if variant == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No assignment (test is not running).")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", variant.ID, variant.Name)
				return nil
			})
		},
	}
}

func newConvertCmd() *cobra.Command {
	var (
		eventType string
		value     float64
	)

	cmd := &cobra.Command{
		Use:   "convert <test-id> <visitor-id>",
		Short: "Record a conversion for a visitor",
		Long: `Record an event for an assigned visitor. Events from visitors without an
assignment, or for tests that are not running, are dropped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v *float64
			if cmd.Flags().Changed("value") {
				v = &value
			}

			return withEngine(cmd, func(ctx context.Context, e *env) error {
				kept, err := e.engine.TrackConversion(ctx, args[0], args[1], eventType, v)
				if err != nil {
					return err
				}

				if !kept {
					fmt.Fprintln(cmd.OutOrStdout(), "Dropped: visitor is not assigned or test is not running.")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %s.\n", eventType, args[1])
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&eventType, "event", "e", "conversion", "event type")
	cmd.Flags().Float64Var(&value, "value", 0, "optional event value")

	return cmd
}
