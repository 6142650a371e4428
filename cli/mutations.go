// ABOUTME: Write-side lead commands: update, bulk-update and delete
// ABOUTME: Keys are composite "<origin>_<id>" values as printed by list
package cli

import (
	"fmt"

	"github.com/harperreed/leadbook/handlers"
	"github.com/harperreed/leadbook/unify"
	"github.com/spf13/cobra"
)

func (a *app) newUpdateCmd() *cobra.Command {
	var patch patchFlags
	cmd := &cobra.Command{
		Use:   "update <key>",
		Short: "Update one lead",
		Example: `  leadbook update valuation_3f2a... --crm-status qualified
  leadbook update contact_91c0... --email new@acme.example --invalidation active`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			_, out, err := e.handlers.UpdateContact(cmd.Context(), nil, handlers.UpdateContactInput{
				Key:          args[0],
				Patch:        patch.input(cmd.Flags()),
				Invalidation: patch.invalidation,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Contact updated: %s (%s)\n", out.Name, out.Key)
			if out.CRMStatus != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  CRM status: %s\n", out.CRMStatus)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  Priority: %s\n", out.Priority)
			return nil
		},
	}
	patch.bind(cmd.Flags())
	return cmd
}

func (a *app) newBulkUpdateCmd() *cobra.Command {
	var patch patchFlags
	cmd := &cobra.Command{
		Use:   "bulk-update <key>...",
		Short: "Apply the same change to many leads",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			_, out, err := e.handlers.BulkUpdateContacts(cmd.Context(), nil, handlers.BulkUpdateContactsInput{
				Keys:         args,
				Patch:        patch.input(cmd.Flags()),
				Invalidation: patch.invalidation,
			})
			if err != nil {
				return err
			}

			failed := out.Outcome == string(unify.OutcomeFailed)
			if !failed {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", out.Message)
			}
			for _, key := range out.FailedKeys {
				fmt.Fprintf(cmd.OutOrStdout(), "  failed: %s\n", key)
			}
			for _, msg := range out.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "  error: %s\n", msg)
			}
			if failed {
				return fmt.Errorf("bulk update of %d contact(s) rolled back: %s", out.FailedCount, out.Message)
			}
			return nil
		},
	}
	patch.bind(cmd.Flags())
	return cmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	var invalidation string
	cmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Soft-delete one lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			_, out, err := e.handlers.DeleteContact(cmd.Context(), nil, handlers.DeleteContactInput{
				Key:          args[0],
				Invalidation: invalidation,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", out.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&invalidation, "invalidation", "", "silent marks the cache stale, active refetches now (default from config)")
	return cmd
}
