// ABOUTME: Free-text search normalization and matching
// ABOUTME: Lower-cases and strips diacritics, then matches all terms or the exact phrase
package unify

import (
	"strings"
	"unicode"

	"github.com/harperreed/leadbook/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizer is not safe for concurrent use; create one per filter pass.
type normalizer struct {
	t transform.Transformer
}

func newNormalizer() *normalizer {
	return &normalizer{t: transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)}
}

func (n *normalizer) normalize(s string) string {
	out, _, err := transform.String(n.t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.Join(strings.Fields(out), " "))
}

// searchQuery is a pre-normalized query.
type searchQuery struct {
	phrase string
	terms  []string
}

func newSearchQuery(n *normalizer, q string) searchQuery {
	phrase := n.normalize(q)
	return searchQuery{phrase: phrase, terms: strings.Fields(phrase)}
}

func (q searchQuery) empty() bool { return q.phrase == "" }

// matches reports whether every term appears somewhere in the searched
// fields, or the whole phrase appears contiguously.
func (q searchQuery) matches(n *normalizer, c models.Contact) bool {
	haystack := n.normalize(searchText(c))
	if strings.Contains(haystack, q.phrase) {
		return true
	}
	for _, term := range q.terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

func searchText(c models.Contact) string {
	fields := []string{
		c.Name,
		c.Email,
		c.Phone,
		c.Company,
		c.LinkedCompanyName,
		c.Sector,
		c.Message,
		c.ServiceType,
		c.Profession,
		c.PreferredLocation,
		c.AssignedToName,
	}
	return strings.Join(fields, " ")
}
