package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tests of a project",
		Long:  `List the A/B tests of a project, newest first, with their status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *env) error {
				tests, err := e.engine.ListTests(ctx, project)
				if err != nil {
					return fmt.Errorf("failed to list tests: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(tests) == 0 {
					fmt.Fprintf(out, "No tests in project '%s' yet.\n", project)
					fmt.Fprintln(out)
					fmt.Fprintln(out, "Create one with:")
					fmt.Fprintln(out, `  vg create cta-color --variant "Control=50" --variant "Red=50"`)
					return nil
				}

				// Print table
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tSTATUS\tVARIANTS\tMETRIC\tVISITORS\tCREATED")

				for _, test := range tests {
					visitors := "-"
					if test.Results != nil {
						visitors = formatNumber(test.Results.TotalVisitors)
					}

					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
						test.ID,
						test.Name,
						strings.ToUpper(string(test.Status)),
						len(test.Variants),
						test.PrimaryMetric,
						visitors,
						test.CreatedAt.Format("2006-01-02"),
					)
				}

				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&project, "project", "default", "project to list")

	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <test-id>",
		Short: "Show a test definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *env) error {
				test, err := e.engine.GetTest(ctx, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "TEST: %s (%s)\n", test.Name, test.ID)
				fmt.Fprintf(out, "PROJECT: %s\n", test.ProjectID)
				fmt.Fprintf(out, "STATUS: %s\n", test.Status)
				if test.Description != "" {
					fmt.Fprintf(out, "DESCRIPTION: %s\n", test.Description)
				}
				fmt.Fprintf(out, "METRIC: %s\n", test.PrimaryMetric)
				if len(test.SecondaryMetrics) > 0 {
					fmt.Fprintf(out, "SECONDARY: %s\n", strings.Join(test.SecondaryMetrics, ", "))
				}
				fmt.Fprintf(out, "CREATED: %s\n", test.CreatedAt.Format("2006-01-02 15:04"))
				if test.StartAt != nil {
					fmt.Fprintf(out, "STARTED: %s\n", test.StartAt.Format("2006-01-02 15:04"))
				}
				if test.EndAt != nil {
					fmt.Fprintf(out, "ENDED: %s\n", test.EndAt.Format("2006-01-02 15:04"))
				}
				fmt.Fprintln(out)

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "VARIANT\tNAME\tWEIGHT\t")
				for i, v := range test.Variants {
					control := ""
					if i == 0 {
						control = "control"
					}
					fmt.Fprintf(w, "%s\t%s\t%.2f%%\t%s\n", v.ID, v.Name, v.Weight, control)
				}
				return w.Flush()
			})
		},
	}
}
