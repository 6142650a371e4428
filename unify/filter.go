// ABOUTME: Filter engine applying conjunctive predicates over the merged stream
// ABOUTME: Fixed order: dedup, free text, categorical, ranges, derived booleans
package unify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/harperreed/leadbook/models"
)

type predicate func(models.Contact) bool

// Apply returns the records of stream matching every active filter. When
// UniqueOnly is set the stream is deduplicated before any other predicate.
// The input is never modified.
func Apply(stream []models.Contact, f models.Filters) []models.Contact {
	var view []models.Contact
	if f.UniqueOnly {
		view = GroupByIdentity(stream)
	} else {
		view = make([]models.Contact, len(stream))
		copy(view, stream)
	}

	stages := [][]predicate{
		searchPredicates(f),
		categoricalPredicates(f),
		rangePredicates(f),
		derivedPredicates(f),
	}
	for _, stage := range stages {
		if len(stage) == 0 {
			continue
		}
		view = keep(view, stage)
	}
	return view
}

func keep(view []models.Contact, preds []predicate) []models.Contact {
	out := make([]models.Contact, 0, len(view))
next:
	for _, c := range view {
		for _, p := range preds {
			if !p(c) {
				continue next
			}
		}
		out = append(out, c)
	}
	return out
}

func searchPredicates(f models.Filters) []predicate {
	n := newNormalizer()
	q := newSearchQuery(n, f.Search)
	if q.empty() {
		return nil
	}
	return []predicate{func(c models.Contact) bool { return q.matches(n, c) }}
}

func categoricalPredicates(f models.Filters) []predicate {
	var preds []predicate
	eq := func(want string, get func(models.Contact) string) {
		if want = strings.TrimSpace(want); want == "" {
			return
		}
		preds = append(preds, func(c models.Contact) bool { return strings.EqualFold(get(c), want) })
	}

	if f.Origin != "" {
		preds = append(preds, func(c models.Contact) bool { return c.Origin == f.Origin })
	}
	if status := strings.TrimSpace(f.Status); status != "" {
		preds = append(preds, func(c models.Contact) bool {
			if strings.EqualFold(c.Status, status) {
				return true
			}
			return c.CRMStatus != nil && strings.EqualFold(string(*c.CRMStatus), status)
		})
	}
	if f.EmailStatus != "" {
		preds = append(preds, emailStatusPredicate(f.EmailStatus))
	}
	eq(f.UTMSource, func(c models.Contact) string { return c.UTMSource })
	eq(f.Budget, func(c models.Contact) string { return c.InvestmentBudget })
	eq(f.Sector, func(c models.Contact) string { return c.Sector })
	eq(f.CompanySize, func(c models.Contact) string { return c.EmployeeRange })
	eq(f.Location, func(c models.Contact) string { return c.PreferredLocation })
	eq(f.ChannelID, func(c models.Contact) string { return deref(c.AcquisitionChannelID) })
	eq(f.LeadFormID, func(c models.Contact) string { return deref(c.LeadFormID) })
	eq(f.ValuationType, func(c models.Contact) string { return c.ValuationType })
	return preds
}

func emailStatusPredicate(s models.EmailStatus) predicate {
	switch s {
	case models.EmailStatusSent:
		return func(c models.Contact) bool { return c.EmailSent }
	case models.EmailStatusOpened:
		return func(c models.Contact) bool { return c.EmailOpened }
	case models.EmailStatusNotSent:
		return func(c models.Contact) bool { return !c.EmailSent }
	case models.EmailStatusSentNotOpened:
		return func(c models.Contact) bool { return c.EmailSent && !c.EmailOpened }
	default:
		return func(models.Contact) bool { return false }
	}
}

func rangePredicates(f models.Filters) []predicate {
	var preds []predicate

	if f.DateFrom != nil {
		from := *f.DateFrom
		preds = append(preds, func(c models.Contact) bool { return !c.CreatedAt.Before(from) })
	}
	if f.DateTo != nil {
		to := *f.DateTo
		preds = append(preds, func(c models.Contact) bool { return !c.CreatedAt.After(to) })
	}

	preds = appendRange(preds, f.RevenueMin, f.RevenueMax, func(c models.Contact) *float64 { return c.RevenueValue() })
	preds = appendRange(preds, f.EBITDAMin, f.EBITDAMax, func(c models.Contact) *float64 { return c.EBITDA })
	preds = appendRange(preds, intToFloat(f.EmployeesMin), intToFloat(f.EmployeesMax), employeeCount)
	return preds
}

// appendRange adds inclusive bound checks. A missing value counts as 0 for the
// minimum and never fails the maximum.
func appendRange(preds []predicate, min, max *float64, get func(models.Contact) *float64) []predicate {
	if min != nil {
		lo := *min
		preds = append(preds, func(c models.Contact) bool {
			v := 0.0
			if p := get(c); p != nil {
				v = *p
			}
			return v >= lo
		})
	}
	if max != nil {
		hi := *max
		preds = append(preds, func(c models.Contact) bool {
			p := get(c)
			return p == nil || *p <= hi
		})
	}
	return preds
}

func derivedPredicates(f models.Filters) []predicate {
	var preds []predicate
	if f.Priority != "" {
		preds = append(preds, func(c models.Contact) bool { return c.Priority == f.Priority })
	}
	if f.RepeatedOnly {
		preds = append(preds, func(c models.Contact) bool { return c.OccurrenceCount > 1 })
	}
	return preds
}

var firstInt = regexp.MustCompile(`\d+`)

// employeeCount extracts the first integer of a bracket such as "11-50".
func employeeCount(c models.Contact) *float64 {
	token := firstInt.FindString(c.EmployeeRange)
	if token == "" {
		return nil
	}
	n, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil
	}
	return &n
}

func intToFloat(p *int) *float64 {
	if p == nil {
		return nil
	}
	f := float64(*p)
	return &f
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
