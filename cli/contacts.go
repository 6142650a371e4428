// ABOUTME: Read-side lead commands: list, stats, export and seed
// ABOUTME: Output is tab-aligned for terminals; export writes CSV
package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/harperreed/leadbook/db"
	"github.com/harperreed/leadbook/handlers"
	"github.com/spf13/cobra"
)

func (a *app) newListCmd() *cobra.Command {
	var (
		filters       filterFlags
		limit, offset int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads from every source, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			_, out, err := e.handlers.ListContacts(cmd.Context(), nil, handlers.ListContactsInput{
				Filters: filters.input(cmd.Flags()),
				Limit:   limit,
				Offset:  offset,
			})
			if err != nil {
				return err
			}
			printContacts(cmd.OutOrStdout(), out)
			return nil
		},
	}
	filters.bind(cmd.Flags())
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many results")
	return cmd
}

func printContacts(out io.Writer, list handlers.ListContactsOutput) {
	if list.Total == 0 {
		fmt.Fprintln(out, "No contacts found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tNAME\tEMAIL\tORIGIN\tPRIORITY\tSTATUS\tSEEN\tCREATED")
	_, _ = fmt.Fprintln(w, "---\t----\t-----\t------\t--------\t------\t----\t-------")
	for _, c := range list.Contacts {
		status := c.CRMStatus
		if status == "" {
			status = c.Status
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			c.Key, c.Name, dash(c.Email), c.Origin, c.Priority, dash(status),
			c.OccurrenceCount, shortDate(c.CreatedAt))
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nShowing %d of %d contact(s)\n", len(list.Contacts), list.Total)
	if list.Stale {
		fmt.Fprintln(out, "(data may be out of date)")
	}
}

func (a *app) newStatsCmd() *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show counts, engagement rates and totals over the filtered leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			_, out, err := e.handlers.ContactStats(cmd.Context(), nil, handlers.ContactStatsInput{
				Filters: filters.input(cmd.Flags()),
			})
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), out)
			return nil
		},
	}
	filters.bind(cmd.Flags())
	return cmd
}

func printStats(out io.Writer, s handlers.ContactStatsOutput) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Unique contacts\t%d\n", s.UniqueContacts)
	_, _ = fmt.Fprintf(w, "Hot / warm / cold\t%d / %d / %d\n", s.Hot, s.Warm, s.Cold)
	_, _ = fmt.Fprintf(w, "Qualified\t%d (%.1f%%)\n", s.Qualified, s.QualifiedRate*100)
	_, _ = fmt.Fprintf(w, "Emails sent\t%d\n", s.EmailsSent)
	_, _ = fmt.Fprintf(w, "Emails opened\t%d (%.1f%%)\n", s.EmailsOpened, s.OpenRate*100)
	_, _ = fmt.Fprintf(w, "Total valuation\t%.2f\n", s.TotalValuation)
	_, _ = fmt.Fprintf(w, "Total revenue\t%.2f\n", s.TotalRevenue)
	_ = w.Flush()

	origins := make([]string, 0, len(s.ByOrigin))
	for origin := range s.ByOrigin {
		origins = append(origins, origin)
	}
	sort.Strings(origins)

	fmt.Fprintln(out, "\nBy origin:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, origin := range origins {
		_, _ = fmt.Fprintf(w, "  %s\t%d\n", origin, s.ByOrigin[origin])
	}
	_ = w.Flush()
	if s.Stale {
		fmt.Fprintln(out, "(data may be out of date)")
	}
}

func (a *app) newExportCmd() *cobra.Command {
	var (
		filters filterFlags
		output  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered leads as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			_, out, err := e.handlers.ExportContacts(cmd.Context(), nil, handlers.ExportContactsInput{
				Filters: filters.input(cmd.Flags()),
				Path:    output,
			})
			if err != nil {
				return err
			}
			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), out.CSV)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d contact(s) to %s\n", out.Rows, out.Path)
			return nil
		},
	}
	filters.bind(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func (a *app) newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo leads into every source table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEngine(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			summary, err := db.Seed(cmd.Context(), e.repo, time.Now())
			if err != nil {
				return fmt.Errorf("failed to seed database: %w", err)
			}

			total := 0
			for _, n := range summary.Leads {
				total += n
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Seeded %d lead(s) and %d owner profile(s)\n", total, summary.Profiles)
			return nil
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// shortDate trims an RFC 3339 timestamp to its date.
func shortDate(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}
