// ABOUTME: Stats calculator reducing a view into aggregate counters
// ABOUTME: Pure; an empty view yields all zeros
package unify

import "github.com/harperreed/leadbook/models"

// ComputeStats summarizes view. Rates are fractions in [0,1] and zero when
// their denominator is zero.
func ComputeStats(view []models.Contact) models.Stats {
	s := models.Stats{ByOrigin: make(map[models.Origin]int, len(models.Origins))}
	for _, origin := range models.Origins {
		s.ByOrigin[origin] = 0
	}

	identities := make(map[string]struct{}, len(view))
	for _, c := range view {
		s.Total++
		identities[c.IdentityKey()] = struct{}{}
		s.ByOrigin[c.Origin]++

		switch c.Priority {
		case models.PriorityHot:
			s.Hot++
		case models.PriorityWarm:
			s.Warm++
		default:
			s.Cold++
		}
		if models.IsQualifiedStatus(c.EffectiveStatus()) {
			s.Qualified++
		}
		if c.EmailSent {
			s.EmailsSent++
		}
		if c.EmailOpened {
			s.EmailsOpened++
		}
		if c.FinalValuation != nil {
			s.TotalValuation += *c.FinalValuation
		}
		if r := c.RevenueValue(); r != nil {
			s.TotalRevenue += *r
		}
	}
	s.UniqueContacts = len(identities)

	if s.EmailsSent > 0 {
		s.OpenRate = float64(s.EmailsOpened) / float64(s.EmailsSent)
	}
	if s.Total > 0 {
		s.QualifiedRate = float64(s.Qualified) / float64(s.Total)
	}
	return s
}
