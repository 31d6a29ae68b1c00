package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newResultsCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "results <test-id>",
		Short: "Show detailed results for a test",
		Long: `Show conversion rates, confidence intervals and significance against the
control. The stored snapshot is shown unless --refresh is given or there is
none yet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *env) error {
				test, err := e.engine.GetTest(ctx, args[0])
				if err != nil {
					return err
				}

				result, err := e.engine.GetResults(ctx, args[0], refresh)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()

				// Print header
				fmt.Fprintf(out, "TEST: %s\n", test.Name)
				fmt.Fprintf(out, "STATUS: %s\n", test.Status)
				fmt.Fprintf(out, "METRIC: %s\n", test.PrimaryMetric)
				fmt.Fprintf(out, "COMPUTED: %s\n", result.GeneratedAt.Format("2006-01-02 15:04:05"))
				fmt.Fprintln(out)

				// Print table header
				fmt.Fprintf(out, "VARIANT           VISITORS  CONVERSIONS  RATE     %.0f%% CI            LIFT      SIGNIFICANCE\n",
					result.ConfidenceLevel*100)
				fmt.Fprintln(out, strings.Repeat("─", 96))

				// Print each variant
				for i, v := range result.Variants {
					indicator := ""
					if v.VariantID == result.WinnerVariantID {
						indicator = " ← WINNER"
					}

					ciStr := fmt.Sprintf("[%.1f%%, %.1f%%]", v.CILower, v.CIUpper)
					if v.Visitors == 0 {
						ciStr = "N/A"
					}

					lift, sig := "control", "-"
					if i > 0 {
						lift = fmt.Sprintf("%+.1f%%", v.Improvement)
						sig = fmt.Sprintf("%.1f%%", v.Significance*100)
					}

					// Truncate name if too long
					name := v.Name
					if len(name) > 16 {
						name = name[:13] + "..."
					}

					fmt.Fprintf(out, "%-16s  %-8d  %-11d  %-7s  %-16s  %-8s  %s%s\n",
						name,
						v.Visitors,
						v.Conversions,
						formatPercent(v.ConversionRate),
						ciStr,
						lift,
						sig,
						indicator,
					)
				}

				fmt.Fprintln(out)
				fmt.Fprintf(out, "TOTAL: %s visitors, %s conversions (%s)\n",
					formatNumber(result.TotalVisitors), formatNumber(result.TotalConversions), formatPercent(result.ConversionRate))

				if len(result.Insights) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, "Insights:")
					for _, s := range result.Insights {
						fmt.Fprintf(out, "  - %s\n", s)
					}
				}
				if len(result.Recommendations) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, "Recommendations:")
					for _, s := range result.Recommendations {
						fmt.Fprintf(out, "  - %s\n", s)
					}
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute instead of showing the stored snapshot")

	return cmd
}
