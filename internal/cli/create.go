package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/headline-goat/variant-goat/internal/experiment"
	"github.com/headline-goat/variant-goat/internal/store"
)

func newCreateCmd() *cobra.Command {
	var (
		project     string
		description string
		metric      string
		secondary   []string
		variants    []string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new A/B test",
		Long: `Create a new A/B test in draft status.

Each --variant is "Name=weight"; weights must add up to 100. The first
variant is the control.

Examples:
  vg create cta-color --project site --variant "Control=50" --variant "Red=50"
  vg create pricing --project site --variant "Current=34" --variant "Annual=33" --variant "Monthly=33" --metric signup`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(variants) < 1 {
				return fmt.Errorf("need at least 1 variant. Example: --variant \"Control=50\" --variant \"Red=50\"")
			}

			parsed := make([]store.Variant, 0, len(variants))
			for _, raw := range variants {
				name, weight, err := parseAssignment(raw)
				if err != nil {
					return fmt.Errorf("invalid --variant %q: %w", raw, err)
				}
				parsed = append(parsed, store.Variant{ID: slug(name), Name: name, Weight: weight})
			}

			return withEngine(cmd, func(ctx context.Context, e *env) error {
				test, err := e.engine.CreateTest(ctx, experiment.TestDefinition{
					ProjectID:        project,
					Name:             args[0],
					Description:      description,
					Variants:         parsed,
					PrimaryMetric:    metric,
					SecondaryMetrics: secondary,
				})
				if err != nil {
					return fmt.Errorf("failed to create test: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created test '%s' (%s) with %d variants:\n", test.Name, test.ID, len(test.Variants))
				for _, v := range test.Variants {
					fmt.Fprintf(out, "  %s: %s (%.2f%%)\n", v.ID, v.Name, v.Weight)
				}
				fmt.Fprintf(out, "\nStart it with: vg start %s\n", test.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&project, "project", "default", "project the test belongs to")
	cmd.Flags().StringVar(&description, "description", "", "free-form description")
	cmd.Flags().StringVarP(&metric, "metric", "m", "conversion", "primary metric (event type counted as a conversion)")
	cmd.Flags().StringSliceVar(&secondary, "secondary", nil, "secondary metric names")
	cmd.Flags().StringArrayVarP(&variants, "variant", "v", nil, `variant as "Name=weight" (repeatable, required)`)
	cmd.MarkFlagRequired("variant")

	return cmd
}

// parseAssignment splits "key=number".
func parseAssignment(raw string) (string, float64, error) {
	i := strings.LastIndex(raw, "=")
	if i <= 0 {
		return "", 0, fmt.Errorf("expected key=number")
	}
	key := strings.TrimSpace(raw[:i])
	value, err := strconv.ParseFloat(strings.TrimSpace(raw[i+1:]), 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid number: %w", err)
	}
	return key, value, nil
}
