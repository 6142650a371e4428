// ABOUTME: Identity grouping over the merged stream
// ABOUTME: Occurrence counting and newest-record-per-identity deduplication
package unify

import (
	"sort"

	"github.com/harperreed/leadbook/models"
)

// annotateOccurrences sets OccurrenceCount on every record in place from a
// single identity->count pass. Only stream owners call this.
func annotateOccurrences(stream []models.Contact) {
	counts := make(map[string]int, len(stream))
	for i := range stream {
		counts[stream[i].IdentityKey()]++
	}
	for i := range stream {
		stream[i].OccurrenceCount = counts[stream[i].IdentityKey()]
	}
}

// sortByRecency orders newest first. Equal timestamps keep their input order.
func sortByRecency(stream []models.Contact) {
	sort.SliceStable(stream, func(i, j int) bool {
		return stream[i].CreatedAt.After(stream[j].CreatedAt)
	})
}

// GroupByIdentity keeps the newest record per normalized email. Ties go to
// the record that appears first. Output follows the input order of the kept
// records, so a recency-sorted stream stays recency-sorted. The input is not modified.
func GroupByIdentity(stream []models.Contact) []models.Contact {
	groups := make(map[string][]int, len(stream))
	order := make([]string, 0, len(stream))
	for i := range stream {
		id := stream[i].IdentityKey()
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], i)
	}

	kept := make([]int, 0, len(order))
	for _, id := range order {
		members := groups[id]
		sort.SliceStable(members, func(a, b int) bool {
			return stream[members[a]].CreatedAt.After(stream[members[b]].CreatedAt)
		})
		kept = append(kept, members[0])
	}
	sort.Ints(kept)

	out := make([]models.Contact, len(kept))
	for i, idx := range kept {
		out[i] = stream[idx]
	}
	return out
}
