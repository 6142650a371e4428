package unify

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAllMergesAcrossSources(t *testing.T) {
	reader := newFakeReader()
	reader.rows[models.OriginValuation] = []sources.Record{
		{"id": "v1", "contact_name": "Ann", "email": "A@X.com", "created_at": at(2)},
	}
	reader.rows[models.OriginCollaborator] = []sources.Record{}
	reader.rows[models.OriginContact] = []sources.Record{
		{"id": "c1", "full_name": "Ann", "email": "a@x.com", "created_at": at(1)},
	}

	agg := NewAggregator(reader, nil, fastRetry())
	stream, err := agg.FetchAll(context.Background())
	require.NoError(t, err)

	require.Len(t, stream, 2)
	assert.Equal(t, "v1", stream[0].ID, "newest first")
	assert.Equal(t, "c1", stream[1].ID)
	for _, c := range stream {
		assert.Equal(t, 2, c.OccurrenceCount)
	}

	unique := GroupByIdentity(stream)
	require.Len(t, unique, 1)
	assert.Equal(t, "v1", unique[0].ID)
	assert.Equal(t, 2, unique[0].OccurrenceCount)

	for _, origin := range models.Origins {
		assert.Equal(t, 1, reader.callsFor(origin), "one read per source for %s", origin)
	}
}

func TestFetchAllLengthIsSumOfSources(t *testing.T) {
	reader := newFakeReader()
	want := 0
	for i, origin := range models.Origins {
		for j := 0; j <= i; j++ {
			reader.rows[origin] = append(reader.rows[origin], sources.Record{
				"id":         string(origin) + "-" + string(rune('a'+j)),
				"email":      "shared@example.com",
				"created_at": at(i*10 + j),
			})
			want++
		}
	}

	stream, err := NewAggregator(reader, nil, fastRetry()).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, stream, want)

	seen := make(map[models.ContactKey]bool)
	for i, c := range stream {
		assert.False(t, seen[c.Key()], "duplicate %s", c.Key())
		seen[c.Key()] = true
		assert.Equal(t, want, c.OccurrenceCount)
		if i > 0 {
			assert.False(t, c.CreatedAt.After(stream[i-1].CreatedAt), "stream must be sorted newest first")
		}
	}
}

func TestFetchAllResolvesOwnersInOneBatch(t *testing.T) {
	reader := newFakeReader()
	reader.rows[models.OriginValuation] = []sources.Record{
		{"id": "v1", "email": "a@x.com", "assigned_to": "p1", "created_at": at(1)},
		{"id": "v2", "email": "b@x.com", "assigned_to": "p2", "created_at": at(2)},
	}
	reader.rows[models.OriginAdvisor] = []sources.Record{
		{"id": "a1", "email": "c@x.com", "assigned_to": "p1", "created_at": at(3)},
	}
	owners := &fakeOwners{names: map[string]string{"p1": "Ana", "p2": "Luis"}}

	stream, err := NewAggregator(reader, owners, fastRetry()).FetchAll(context.Background())
	require.NoError(t, err)

	require.Len(t, owners.calls, 1)
	assert.Equal(t, []string{"p1", "p2"}, owners.calls[0])
	for _, c := range stream {
		switch *c.AssignedTo {
		case "p1":
			assert.Equal(t, "Ana", c.AssignedToName)
		case "p2":
			assert.Equal(t, "Luis", c.AssignedToName)
		}
	}
}

func TestFetchAllOwnerLookupFailureIsNotFatal(t *testing.T) {
	reader := newFakeReader()
	reader.rows[models.OriginGeneral] = []sources.Record{
		{"id": "g1", "email": "a@x.com", "assigned_to": "p1", "created_at": at(1)},
	}
	owners := &fakeOwners{err: errRemote}

	stream, err := NewAggregator(reader, owners, fastRetry()).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stream, 1)
	assert.Empty(t, stream[0].AssignedToName)
}

func TestFetchAllFailsFastOnPersistentSourceError(t *testing.T) {
	reader := newFakeReader()
	reader.rows[models.OriginValuation] = []sources.Record{{"id": "v1", "email": "a@x.com"}}
	reader.failN[models.OriginInquiry] = -1

	stream, err := NewAggregator(reader, nil, fastRetry()).FetchAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, stream, "no partial merge")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, models.OriginInquiry, fetchErr.Origin)
	assert.ErrorIs(t, err, errRemote)
	assert.Equal(t, 3, reader.callsFor(models.OriginInquiry), "retried up to the attempt limit")
}

func TestFetchAllRetriesOnlyTheFailingSource(t *testing.T) {
	reader := newFakeReader()
	reader.rows[models.OriginAcquisition] = []sources.Record{{"id": "q1", "email": "a@x.com"}}
	reader.failN[models.OriginAcquisition] = 1

	stream, err := NewAggregator(reader, nil, fastRetry()).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, stream, 1)
	assert.Equal(t, 2, reader.callsFor(models.OriginAcquisition))
	assert.Equal(t, 1, reader.callsFor(models.OriginValuation))
}

func TestFetchAllHonorsCancellation(t *testing.T) {
	reader := newFakeReader()
	reader.block = make(chan struct{})
	reader.started = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := NewAggregator(reader, nil, fastRetry()).FetchAll(ctx)
		done <- err
	}()

	<-reader.started
	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}
