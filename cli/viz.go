// ABOUTME: Visualization commands: terminal dashboard and identity graph
// ABOUTME: Both accept the same filter flags as list
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/harperreed/leadbook/viz"
	"github.com/spf13/cobra"
)

func (a *app) newDashboardCmd() *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show an overview of leads by source and priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			view, err := e.handlers.View(cmd.Context(), filters.input(cmd.Flags()))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), viz.RenderDashboard(viz.BuildDashboard(view, time.Now())))
			return nil
		},
	}
	filters.bind(cmd.Flags())
	return cmd
}

func (a *app) newGraphCmd() *cobra.Command {
	var (
		filters filterFlags
		output  string
		format  string
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Draw emails that reached the firm through several sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			view, err := e.handlers.View(cmd.Context(), filters.input(cmd.Flags()))
			if err != nil {
				return err
			}
			rendered, err := viz.GenerateIdentityGraph(cmd.Context(), view, viz.GraphFormat(format), all)
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), rendered)
				return nil
			}
			if err := os.WriteFile(output, []byte(rendered), 0644); err != nil {
				return fmt.Errorf("failed to write graph: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Graph written to %s\n", output)
			return nil
		},
	}
	filters.bind(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "dot", "Output format: dot or svg")
	cmd.Flags().BoolVar(&all, "all", false, "Include emails seen only once")
	return cmd
}
