// ABOUTME: Full-screen console subcommand
// ABOUTME: Logs go to a file so they do not draw over the terminal UI
package cli

import (
	"github.com/harperreed/leadbook/tui"
	"github.com/spf13/cobra"
)

func (a *app) newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive lead console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()
			return tui.Run(cmd.Context(), e.mgr, e.cfg.Invalidation())
		},
	}
}
