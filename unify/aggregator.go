// ABOUTME: Aggregator fans out one read per source, maps rows through the adapters and merges them
// ABOUTME: Attaches owner names, occurrence counts and recency order; any source failure fails the run
package unify

import (
	"context"
	"sort"
	"time"

	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/sources"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Aggregator builds the merged contact stream from every source.
type Aggregator struct {
	reader SourceReader
	owners OwnerDirectory
	opts   options
}

// NewAggregator creates an aggregator. owners may be nil, in which case
// assignee names are left empty.
func NewAggregator(reader SourceReader, owners OwnerDirectory, opts ...Option) *Aggregator {
	return &Aggregator{reader: reader, owners: owners, opts: buildOptions(opts)}
}

// FetchAll reads all seven sources concurrently and returns the merged stream,
// newest first. Each source read is retried on its own; if one still fails the
// whole run fails with a *FetchError and no partial result is returned.
func (a *Aggregator) FetchAll(ctx context.Context) ([]models.Contact, error) {
	start := time.Now()
	stream, err := a.fetchAll(ctx)
	a.opts.metrics.observeFetch(start, err)
	if err != nil {
		a.opts.logger.Warn("aggregation failed", zap.Error(err))
		return nil, err
	}
	a.opts.logger.Debug("aggregation complete",
		zap.Int("contacts", len(stream)),
		zap.Duration("elapsed", time.Since(start)))
	return stream, nil
}

func (a *Aggregator) fetchAll(ctx context.Context) ([]models.Contact, error) {
	adapters := sources.All()
	results := make([][]models.Contact, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, adapter := range adapters {
		g.Go(func() error {
			records, err := retry(gctx, a.opts, "select_"+string(adapter.Origin), func() ([]sources.Record, error) {
				return a.reader.SelectActive(gctx, adapter.Origin)
			})
			if err != nil {
				a.opts.metrics.observeSourceError(string(adapter.Origin))
				return &FetchError{Origin: adapter.Origin, Err: err}
			}
			results[i] = adapter.MapAll(records)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	stream := make([]models.Contact, 0, total)
	for _, r := range results {
		stream = append(stream, r...)
	}

	a.attachOwnerNames(ctx, stream)
	annotateOccurrences(stream)
	sortByRecency(stream)
	return stream, nil
}

// attachOwnerNames resolves every distinct owner id with one lookup. A failed
// lookup leaves names empty rather than failing the run.
func (a *Aggregator) attachOwnerNames(ctx context.Context, stream []models.Contact) {
	if a.owners == nil {
		return
	}
	ids := ownerIDs(stream)
	if len(ids) == 0 {
		return
	}

	names, err := retry(ctx, a.opts, "resolve_owners", func() (map[string]string, error) {
		return a.owners.ResolveOwners(ctx, ids)
	})
	if err != nil {
		a.opts.logger.Warn("failed to resolve owner names", zap.Int("owners", len(ids)), zap.Error(err))
		return
	}
	for i := range stream {
		if stream[i].AssignedTo != nil {
			stream[i].AssignedToName = names[*stream[i].AssignedTo]
		}
	}
}

func ownerIDs(stream []models.Contact) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range stream {
		if c.AssignedTo == nil || seen[*c.AssignedTo] {
			continue
		}
		seen[*c.AssignedTo] = true
		ids = append(ids, *c.AssignedTo)
	}
	sort.Strings(ids)
	return ids
}
