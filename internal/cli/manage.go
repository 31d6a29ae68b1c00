package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newReweightCmd() *cobra.Command {
	var weights []string

	cmd := &cobra.Command{
		Use:   "reweight <test-id>",
		Short: "Change variant weights",
		Long: `Change the traffic weights of a test that has not completed. Every
variant needs a weight and the weights must add up to 100. Visitors who are
already assigned keep their variant.

Example:
  vg reweight 0b9f6c1e-... --weight control=20 --weight red=80`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make(map[string]float64, len(weights))
			for _, raw := range weights {
				id, weight, err := parseAssignment(raw)
				if err != nil {
					return fmt.Errorf("invalid --weight %q: %w", raw, err)
				}
				parsed[id] = weight
			}

			return withEngine(cmd, func(ctx context.Context, e *env) error {
				test, err := e.engine.UpdateWeights(ctx, args[0], parsed)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Updated weights for '%s':\n", test.Name)
				for _, v := range test.Variants {
					fmt.Fprintf(out, "  %s: %.2f%%\n", v.ID, v.Weight)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVarP(&weights, "weight", "w", nil, `weight as "variant-id=weight" (repeatable, required)`)
	cmd.MarkFlagRequired("weight")

	return cmd
}

func newDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <test-id>",
		Short: "Delete a test and all its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := confirm(fmt.Sprintf("Delete test %s with all assignments and events", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			return withEngine(cmd, func(ctx context.Context, e *env) error {
				if err := e.engine.DeleteTest(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted test %s.\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}
