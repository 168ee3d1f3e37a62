package services

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"medcamp-backend/internal/models"
)

func TestDirectoryStartsLoading(t *testing.T) {
	d := NewDirectory(newFakeCampStore(), &recordingNotifier{}, keyTranslator{})
	if !d.Loading() {
		t.Fatal("new directory should be loading")
	}
	if len(d.Camps()) != 0 {
		t.Fatal("new directory should be empty")
	}
}

func TestDirectoryRefresh(t *testing.T) {
	later := freeCamp("later")
	later.Date = day("2026-12-01")
	pending := freeCamp("pending")
	pending.Status = models.CampStatusPending
	store := newFakeCampStore(later, paidCamp("early", 100), pending)
	notifier := &recordingNotifier{}
	d := NewDirectory(store, notifier, keyTranslator{})

	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if d.Loading() {
		t.Fatal("loading should be cleared after refresh")
	}
	// Ordered by date, pending camps excluded.
	if got := ids(d.Camps()); !reflect.DeepEqual(got, []string{"early", "later"}) {
		t.Fatalf("camps = %v, want [early later]", got)
	}
	if d.RefreshedAt().IsZero() {
		t.Fatal("refreshedAt not set")
	}
	if len(notifier.all()) != 0 {
		t.Fatalf("unexpected notices: %+v", notifier.all())
	}
}

func TestDirectoryRefreshFailureKeepsSnapshot(t *testing.T) {
	store := newFakeCampStore(freeCamp("1"), paidCamp("2", 500))
	notifier := &recordingNotifier{}
	d := NewDirectory(store, notifier, keyTranslator{})
	ctx := context.Background()

	if err := d.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	before := d.Camps()

	store.listErr = errBoom
	err := d.Refresh(ctx)
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want %v", err, errBoom)
	}
	var re *models.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("err = %T, want *models.RemoteError", err)
	}
	if d.Loading() {
		t.Fatal("loading should be cleared after a failed refresh")
	}
	if !reflect.DeepEqual(d.Camps(), before) {
		t.Fatal("snapshot changed after a failed refresh")
	}
	if !errors.Is(d.LastError(), errBoom) {
		t.Fatalf("LastError = %v", d.LastError())
	}

	sent := notifier.all()
	if len(sent) != 1 {
		t.Fatalf("notices = %+v, want one", sent)
	}
	if sent[0].userID != "" {
		t.Fatalf("failure notice addressed to %q, want broadcast", sent[0].userID)
	}
	if sent[0].notice.Title != "directory.load_failed.title" || sent[0].notice.Severity != models.SeverityDestructive {
		t.Fatalf("notice = %+v", sent[0].notice)
	}

	store.listErr = nil
	if err := d.Refresh(ctx); err != nil {
		t.Fatalf("Refresh after recovery: %v", err)
	}
	if d.LastError() != nil {
		t.Fatal("LastError should clear after a successful refresh")
	}
}

func TestDirectoryCampsReturnsCopy(t *testing.T) {
	d := NewDirectory(newFakeCampStore(freeCamp("1")), &recordingNotifier{}, keyTranslator{})
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	camps := d.Camps()
	camps[0].Title = "mutated"
	if got, _ := d.Camp("1"); got.Title == "mutated" {
		t.Fatal("Camps exposed the internal snapshot")
	}
	if _, err := d.Camp("missing"); !errors.Is(err, models.ErrCampNotFound) {
		t.Fatalf("Camp(missing) err = %v", err)
	}
}

func TestDirectorySearch(t *testing.T) {
	d := NewDirectory(newFakeCampStore(freeCamp("1"), paidCamp("2", 500)), &recordingNotifier{}, keyTranslator{})
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	got := d.Search(Criteria{CampType: models.CampTypePaid})
	if !reflect.DeepEqual(ids(got), []string{"2"}) {
		t.Fatalf("Search = %v, want [2]", ids(got))
	}
}

// blockingCampStore holds ListApproved until released.
type blockingCampStore struct {
	*fakeCampStore
	release chan struct{}
	started chan struct{}
}

func (s *blockingCampStore) ListApproved(ctx context.Context) ([]models.Camp, error) {
	s.started <- struct{}{}
	<-s.release
	return s.fakeCampStore.ListApproved(ctx)
}

func TestDirectoryConcurrentRefreshes(t *testing.T) {
	store := &blockingCampStore{
		fakeCampStore: newFakeCampStore(freeCamp("1")),
		release:       make(chan struct{}),
		started:       make(chan struct{}, 2),
	}
	d := NewDirectory(store, &recordingNotifier{}, keyTranslator{})

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Refresh(context.Background()); err != nil {
				t.Errorf("Refresh: %v", err)
			}
		}()
	}
	<-store.started
	<-store.started

	store.release <- struct{}{}
	deadline := time.Now().Add(time.Second)
	for d.RefreshedAt().IsZero() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !d.Loading() {
		t.Fatal("loading cleared while a refresh is still in flight")
	}

	store.release <- struct{}{}
	wg.Wait()
	if d.Loading() {
		t.Fatal("loading should clear once every refresh finished")
	}
	if len(d.Camps()) != 1 {
		t.Fatalf("camps = %d, want 1", len(d.Camps()))
	}
}

func TestDirectoryRequestRefresh(t *testing.T) {
	d := NewDirectory(newFakeCampStore(freeCamp("1")), &recordingNotifier{}, keyTranslator{})
	ctx, cancel := context.WithCancel(context.Background())
	d.RequestRefresh(ctx)
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for d.RefreshedAt().IsZero() {
		if time.Now().After(deadline) {
			t.Fatal("background refresh did not complete")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(d.Camps()) != 1 {
		t.Fatalf("camps = %d, want 1", len(d.Camps()))
	}
}
