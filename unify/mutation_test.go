package unify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStream() []models.Contact {
	v1 := contact(models.OriginValuation, "v1", "a@x.com", at(5))
	v1.FinalValuation = ptr(250_000.0)
	v1.RefreshPriority()
	c1 := contact(models.OriginContact, "c1", "a@x.com", at(4))
	g1 := contact(models.OriginGeneral, "g1", "b@x.com", at(3))
	col1 := contact(models.OriginCollaborator, "col_1_x", "c@x.com", at(2))
	stream := []models.Contact{v1, c1, g1, col1}
	annotateOccurrences(stream)
	return stream
}

func newLoadedManager(t *testing.T, opts ...Option) (*Manager, *fakeFetcher, *fakeMutator) {
	t.Helper()
	fetcher := &fakeFetcher{stream: seedStream()}
	store := NewStore(fetcher, opts...)
	t.Cleanup(store.Close)
	require.NoError(t, store.Refetch(context.Background()))

	mutator := newFakeMutator()
	mgr := NewManager(store, mutator, append([]Option{fastRetry()}, opts...)...)
	return mgr, fetcher, mutator
}

var (
	keyV1 = models.ContactKey{Origin: models.OriginValuation, ID: "v1"}
	keyC1 = models.ContactKey{Origin: models.OriginContact, ID: "c1"}
	keyG1 = models.ContactKey{Origin: models.OriginGeneral, ID: "g1"}
)

func TestUpdateAppliesAndWritesNativeColumns(t *testing.T) {
	mgr, fetcher, mutator := newLoadedManager(t)

	status := models.CRMStatusQualified
	err := mgr.Update(context.Background(), keyV1, models.ContactPatch{CRMStatus: &status, Name: ptr("Ann")}, InvalidateSilent)
	require.NoError(t, err)

	got, ok := mgr.Store().Get(keyV1)
	require.True(t, ok)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, models.PriorityHot, got.Priority, "qualified status reclassifies")

	require.Len(t, mutator.updates, 1)
	call := mutator.updates[0]
	assert.Equal(t, "valuation_leads", call.table)
	assert.Equal(t, "v1", call.id)
	assert.Equal(t, map[string]any{"contact_name": "Ann", "crm_status": "qualified"}, call.cols)

	assert.True(t, mgr.Store().Stale(), "silent invalidation marks stale")
	assert.Equal(t, 1, fetcher.callCount(), "silent invalidation does not refetch")
	assert.Equal(t, 0, mgr.Store().Snapshot().Pending)
}

func TestUpdateActiveInvalidationRefetches(t *testing.T) {
	mgr, fetcher, _ := newLoadedManager(t)

	err := mgr.Update(context.Background(), keyG1, models.ContactPatch{Status: ptr("contacted")}, InvalidateActive)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.callCount())
	assert.False(t, mgr.Store().Stale())
}

func TestRollbackRestoresExactSnapshot(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t)
	mutator.failN = -1
	before := mgr.Store().Contacts()

	err := mgr.Update(context.Background(), keyV1, models.ContactPatch{
		Email:       ptr("new@x.com"),
		AssignedTo:  ptr("p9"),
		EmailOpened: ptr(true),
	}, InvalidateActive)

	var mutErr *MutationError
	require.True(t, errors.As(err, &mutErr))
	assert.ErrorIs(t, err, errRemote)
	assert.Equal(t, []models.ContactKey{keyV1}, mutErr.Keys)
	assert.NotEmpty(t, mutErr.MutationID)

	if diff := cmp.Diff(before, mgr.Store().Contacts()); diff != "" {
		t.Errorf("stream after rollback differs (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, mutator.updateCount(), "remote call retried")
	assert.False(t, mgr.Store().Stale(), "failed mutation triggers no invalidation")
}

func TestOptimisticPatchVisibleBeforeRemoteCompletes(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t, noRetry())
	started, release := mutator.hold("g1")

	done := make(chan error, 1)
	go func() {
		done <- mgr.Update(context.Background(), keyG1, models.ContactPatch{Company: ptr("Optimistic")}, InvalidateSilent)
	}()

	<-started
	got, _ := mgr.Store().Get(keyG1)
	assert.Equal(t, "Optimistic", got.Company)
	assert.Equal(t, 1, mgr.Store().Snapshot().Pending)

	release(errRemote)
	require.Error(t, <-done)
	got, _ = mgr.Store().Get(keyG1)
	assert.Empty(t, got.Company)
}

func TestRetryDoesNotReapplyPatch(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t)
	mutator.failN = 2

	var versions []uint64
	var mu sync.Mutex
	unsubscribe := mgr.Store().Subscribe(func(v View) {
		mu.Lock()
		versions = append(versions, v.Version)
		mu.Unlock()
	})
	defer unsubscribe()

	err := mgr.Update(context.Background(), keyC1, models.ContactPatch{Phone: ptr("+34 600")}, InvalidateSilent)
	require.NoError(t, err)
	assert.Equal(t, 3, mutator.updateCount())

	mu.Lock()
	defer mu.Unlock()
	// begin, commit, mark stale: retries add no notifications
	assert.Len(t, versions, 3)
}

func TestRollbackKeepsOtherPendingMutation(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t, noRetry())
	startedA, releaseA := mutator.hold("v1")
	startedB, releaseB := mutator.hold("g1")

	doneA := make(chan error, 1)
	go func() {
		doneA <- mgr.Update(context.Background(), keyV1, models.ContactPatch{Name: ptr("A")}, InvalidateSilent)
	}()
	<-startedA

	doneB := make(chan error, 1)
	go func() {
		doneB <- mgr.Update(context.Background(), keyG1, models.ContactPatch{Name: ptr("B")}, InvalidateSilent)
	}()
	<-startedB

	// A fails first: B's pending patch must survive A's rollback.
	releaseA(errRemote)
	require.Error(t, <-doneA)
	a, _ := mgr.Store().Get(keyV1)
	b, _ := mgr.Store().Get(keyG1)
	assert.Equal(t, "v1", a.Name)
	assert.Equal(t, "B", b.Name)

	releaseB(nil)
	require.NoError(t, <-doneB)
	b, _ = mgr.Store().Get(keyG1)
	assert.Equal(t, "B", b.Name)
}

func TestEarlierRollbackDoesNotRevertLaterSuccess(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t, noRetry())
	startedA, releaseA := mutator.hold("v1")

	doneA := make(chan error, 1)
	go func() {
		doneA <- mgr.Update(context.Background(), keyV1, models.ContactPatch{Name: ptr("A")}, InvalidateSilent)
	}()
	<-startedA

	require.NoError(t, mgr.Update(context.Background(), keyG1, models.ContactPatch{Name: ptr("B")}, InvalidateSilent))

	releaseA(errRemote)
	require.Error(t, <-doneA)

	a, _ := mgr.Store().Get(keyV1)
	b, _ := mgr.Store().Get(keyG1)
	assert.Equal(t, "v1", a.Name)
	assert.Equal(t, "B", b.Name)
}

func TestSameIdentityPatchVisibleWhileEarlierWritePending(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t, noRetry())
	started, release := mutator.hold("v1")

	first := make(chan error, 1)
	go func() {
		first <- mgr.Update(context.Background(), keyV1, models.ContactPatch{Name: ptr("first")}, InvalidateSilent)
	}()
	<-started

	second := make(chan error, 1)
	go func() {
		second <- mgr.Update(context.Background(), keyV1, models.ContactPatch{Phone: ptr("second")}, InvalidateSilent)
	}()

	// The second patch shows up at once; only its remote write waits.
	require.Eventually(t, func() bool {
		got, _ := mgr.Store().Get(keyV1)
		return got.Phone == "second"
	}, time.Second, 5*time.Millisecond)
	got, _ := mgr.Store().Get(keyV1)
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, 2, mgr.Store().Snapshot().Pending)
	assert.Equal(t, 1, mutator.updateCount(), "second write waits for the first")

	release(errRemote)
	require.Error(t, <-first)
	require.NoError(t, <-second)

	got, _ = mgr.Store().Get(keyV1)
	assert.Equal(t, "v1", got.Name)
	assert.Equal(t, "second", got.Phone)
	assert.Equal(t, 2, mutator.updateCount())
}

func TestWaitingMutationHonoursContext(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t, noRetry())
	started, release := mutator.hold("g1")

	first := make(chan error, 1)
	go func() {
		first <- mgr.Update(context.Background(), keyG1, models.ContactPatch{Company: ptr("A")}, InvalidateSilent)
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	second := make(chan error, 1)
	go func() {
		second <- mgr.Update(ctx, keyG1, models.ContactPatch{Name: ptr("B")}, InvalidateSilent)
	}()
	require.Eventually(t, func() bool {
		got, _ := mgr.Store().Get(keyG1)
		return got.Name == "B"
	}, time.Second, 5*time.Millisecond)

	cancel()
	err := <-second
	var mutErr *MutationError
	require.True(t, errors.As(err, &mutErr))
	assert.ErrorIs(t, err, context.Canceled)

	got, _ := mgr.Store().Get(keyG1)
	assert.Equal(t, "g1", got.Name, "cancelled patch rolled back")
	assert.Equal(t, "A", got.Company, "pending patch of the other mutation kept")
	assert.Equal(t, 1, mgr.Store().Snapshot().Pending)

	release(nil)
	require.NoError(t, <-first)
	assert.Equal(t, 1, mutator.updateCount(), "cancelled mutation never reached the datastore")
}

func TestOverlappingFailuresRestoreOriginalStream(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t, noRetry())
	before := mgr.Store().Contacts()
	startedA, releaseA := mutator.hold("g1")
	startedB, releaseB := mutator.hold("v1")

	doneA := make(chan error, 1)
	go func() {
		doneA <- mgr.Update(context.Background(), keyG1, models.ContactPatch{Company: ptr("A-patch")}, InvalidateSilent)
	}()
	<-startedA

	doneB := make(chan error, 1)
	go func() {
		doneB <- mgr.Update(context.Background(), keyV1, models.ContactPatch{Company: ptr("B-patch")}, InvalidateSilent)
	}()
	<-startedB

	releaseA(errRemote)
	require.Error(t, <-doneA)
	releaseB(errRemote)
	require.Error(t, <-doneB)

	if diff := cmp.Diff(before, mgr.Store().Contacts()); diff != "" {
		t.Errorf("stream after both rollbacks differs (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, mgr.Store().Snapshot().Pending)
}

func TestMutationCancelsInFlightFetch(t *testing.T) {
	mgr, fetcher, _ := newLoadedManager(t)

	stale := seedStream()
	stale[0].Name = "stale server copy"
	fetcher.set(stale, nil)
	fetcher.mu.Lock()
	fetcher.block = make(chan struct{})
	fetcher.started = make(chan struct{})
	started := fetcher.started
	fetcher.mu.Unlock()

	fetchDone := make(chan error, 1)
	go func() { fetchDone <- mgr.Store().Refetch(context.Background()) }()
	<-started

	require.NoError(t, mgr.Update(context.Background(), keyV1, models.ContactPatch{Name: ptr("mine")}, InvalidateSilent))
	assert.ErrorIs(t, <-fetchDone, ErrFetchSuperseded)

	got, _ := mgr.Store().Get(keyV1)
	assert.Equal(t, "mine", got.Name)
	assert.True(t, mgr.Store().Stale())
}

func TestDeleteRemovesAndRestores(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t)

	require.NoError(t, mgr.Delete(context.Background(), keyG1, InvalidateSilent))
	_, ok := mgr.Store().Get(keyG1)
	assert.False(t, ok)
	assert.Equal(t, map[string]any{"is_deleted": true}, mutator.updates[0].cols)

	mutator.failN = -1
	before := mgr.Store().Contacts()
	err := mgr.Delete(context.Background(), keyC1, InvalidateSilent)
	require.Error(t, err)
	if diff := cmp.Diff(before, mgr.Store().Contacts()); diff != "" {
		t.Errorf("failed delete not rolled back (-want +got):\n%s", diff)
	}
}

func TestDeleteRecomputesOccurrences(t *testing.T) {
	mgr, _, _ := newLoadedManager(t)

	require.NoError(t, mgr.Delete(context.Background(), keyC1, InvalidateSilent))
	v1, _ := mgr.Store().Get(keyV1)
	assert.Equal(t, 1, v1.OccurrenceCount)
}

func TestUpdateRejectsBadInput(t *testing.T) {
	mgr, _, mutator := newLoadedManager(t)
	ctx := context.Background()

	err := mgr.Update(ctx, keyV1, models.ContactPatch{}, InvalidateSilent)
	assert.ErrorIs(t, err, ErrEmptyPatch)

	err = mgr.Update(ctx, models.ContactKey{Origin: models.OriginAdvisor, ID: "nope"}, models.ContactPatch{Name: ptr("x")}, InvalidateSilent)
	assert.ErrorIs(t, err, ErrContactNotFound)

	status := models.CRMStatusWon
	collab := models.ContactKey{Origin: models.OriginCollaborator, ID: "col_1_x"}
	err = mgr.Update(ctx, collab, models.ContactPatch{CRMStatus: &status}, InvalidateSilent)
	assert.ErrorIs(t, err, sources.ErrFieldNotMapped)

	assert.Equal(t, 0, mutator.updateCount())
	assert.Equal(t, 0, mgr.Store().Snapshot().Pending)
}

func TestPermanentErrorsAreNotRetried(t *testing.T) {
	errGone := errors.New("row gone")
	mgr, _, mutator := newLoadedManager(t)
	mgr.opts.permanent = []error{errGone}
	mutator.failN = -1
	mutator.failErr = errGone

	err := mgr.Update(context.Background(), keyV1, models.ContactPatch{Name: ptr("x")}, InvalidateSilent)
	assert.ErrorIs(t, err, errGone)
	assert.Equal(t, 1, mutator.updateCount())
}

func TestRefreshIfStale(t *testing.T) {
	mgr, fetcher, _ := newLoadedManager(t)
	ctx := context.Background()

	ran, err := mgr.RefreshIfStale(ctx)
	require.NoError(t, err)
	assert.False(t, ran)

	mgr.Store().MarkStale()
	ran, err = mgr.RefreshIfStale(ctx)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 2, fetcher.callCount())
	assert.False(t, mgr.Store().Stale())
}

func TestParseInvalidation(t *testing.T) {
	p, err := ParseInvalidation("active")
	require.NoError(t, err)
	assert.Equal(t, InvalidateActive, p)

	p, err = ParseInvalidation("")
	require.NoError(t, err)
	assert.Equal(t, InvalidateSilent, p)

	_, err = ParseInvalidation("eventually")
	assert.Error(t, err)
}
