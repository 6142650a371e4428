// ABOUTME: Shared hot/warm/cold priority classifier for every lead origin
// ABOUTME: Evaluates engagement, value and status signals in a fixed order
package models

import "strings"

// HighValueThreshold is the monetary value above which a lead is hot regardless of engagement.
const HighValueThreshold = 1_000_000.0

var qualifiedStatuses = map[string]bool{
	string(CRMStatusQualified):   true,
	string(CRMStatusOpportunity): true,
}

// PrioritySignals are the only inputs the classifier looks at. Origin is deliberately absent.
type PrioritySignals struct {
	EmailOpened   bool
	EmailSent     bool
	MonetaryValue *float64
	Status        string
}

// ClassifyPriority applies the rules in order; the first match wins.
func ClassifyPriority(s PrioritySignals) Priority {
	status := strings.ToLower(strings.TrimSpace(s.Status))

	switch {
	case s.EmailOpened:
		return PriorityHot
	case s.MonetaryValue != nil && *s.MonetaryValue > HighValueThreshold:
		return PriorityHot
	case qualifiedStatuses[status]:
		return PriorityHot
	case s.EmailSent:
		return PriorityWarm
	case status == string(CRMStatusContacted):
		return PriorityWarm
	default:
		return PriorityCold
	}
}

// IsQualifiedStatus reports whether status belongs to the qualified/opportunity set.
func IsQualifiedStatus(status string) bool {
	return qualifiedStatuses[strings.ToLower(strings.TrimSpace(status))]
}

// Signals extracts the classifier inputs from a contact.
func (c Contact) Signals() PrioritySignals {
	return PrioritySignals{
		EmailOpened:   c.EmailOpened,
		EmailSent:     c.EmailSent,
		MonetaryValue: c.MonetaryValue(),
		Status:        c.EffectiveStatus(),
	}
}

// RefreshPriority recomputes the derived priority field.
func (c *Contact) RefreshPriority() {
	c.Priority = ClassifyPriority(c.Signals())
}
