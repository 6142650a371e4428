// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Provides an ASCII overview of the lead stream by source and priority
package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/unify"
)

// untouchedAfter is how long a new lead may wait for a first email.
const untouchedAfter = 7 * 24 * time.Hour

type DashboardStats struct {
	models.Stats

	// Needs attention
	UnassignedHot []AttentionItem
	Untouched     []AttentionItem
}

type AttentionItem struct {
	Key       string
	Name      string
	DaysSince int
}

// BuildDashboard summarizes view as of now.
func BuildDashboard(view []models.Contact, now time.Time) DashboardStats {
	stats := DashboardStats{Stats: unify.ComputeStats(view)}

	for _, c := range view {
		days := int(now.Sub(c.CreatedAt).Hours() / 24)
		item := AttentionItem{Key: c.Key().String(), Name: c.Name, DaysSince: days}

		if c.Priority == models.PriorityHot && (c.AssignedTo == nil || *c.AssignedTo == "") {
			stats.UnassignedHot = append(stats.UnassignedHot, item)
		}
		if !c.EmailSent && isNew(c) && now.Sub(c.CreatedAt) > untouchedAfter {
			stats.Untouched = append(stats.Untouched, item)
		}
	}
	return stats
}

func isNew(c models.Contact) bool {
	status := c.EffectiveStatus()
	return status == "" || status == string(models.CRMStatusNew)
}

func RenderDashboard(stats DashboardStats) string {
	var out strings.Builder

	// Header
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  LEADBOOK DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("BY SOURCE\n")
	counts := make([]int, len(models.Origins))
	labels := make([]string, len(models.Origins))
	for i, origin := range models.Origins {
		labels[i] = string(origin)
		counts[i] = stats.ByOrigin[origin]
	}
	renderBars(&out, labels, counts)
	out.WriteString("\n")

	out.WriteString("BY PRIORITY\n")
	renderBars(&out,
		[]string{string(models.PriorityHot), string(models.PriorityWarm), string(models.PriorityCold)},
		[]int{stats.Hot, stats.Warm, stats.Cold})
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  📇 %d leads  👤 %d unique  ✅ %d qualified (%.0f%%)\n",
		stats.Total, stats.UniqueContacts, stats.Qualified, stats.QualifiedRate*100))
	out.WriteString(fmt.Sprintf("  ✉️  %d sent  👀 %d opened (%.0f%%)\n",
		stats.EmailsSent, stats.EmailsOpened, stats.OpenRate*100))
	out.WriteString(fmt.Sprintf("  💶 %.0fK valuation  %.0fK revenue\n\n",
		stats.TotalValuation/1000, stats.TotalRevenue/1000))

	if len(stats.UnassignedHot) > 0 || len(stats.Untouched) > 0 {
		out.WriteString("NEEDS ATTENTION\n")

		if len(stats.UnassignedHot) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d hot leads - no owner assigned\n", len(stats.UnassignedHot)))
		}

		if len(stats.Untouched) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d new leads - no email in 7+ days\n", len(stats.Untouched)))
		}
	}

	return out.String()
}

func renderBars(out *strings.Builder, labels []string, counts []int) {
	// Find max count for scaling
	maxCount := 0
	for _, n := range counts {
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for i, label := range labels {
		// 0-10 blocks
		barLength := (counts[i] * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-13s %s  %2d\n", label, bar, counts[i]))
	}
}
