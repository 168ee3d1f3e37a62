package services

import (
	"context"
	"sync"
	"time"

	"medcamp-backend/internal/i18n"
	"medcamp-backend/internal/models"

	"github.com/rs/zerolog/log"
)

const directoryRefreshTimeout = 30 * time.Second

// Directory holds the snapshot of camps visible to patients. Only Refresh
// writes the snapshot; readers always get a copy.
type Directory struct {
	camps      CampStore
	notifier   Notifier
	translator Translator

	mu          sync.RWMutex
	snapshot    []models.Camp
	inflight    int
	loading     bool
	lastErr     error
	refreshedAt time.Time
}

// NewDirectory creates a directory in the loading state with an empty snapshot.
func NewDirectory(camps CampStore, notifier Notifier, translator Translator) *Directory {
	return &Directory{
		camps:      camps,
		notifier:   notifier,
		translator: translator,
		snapshot:   []models.Camp{},
		loading:    true,
	}
}

// Refresh reloads approved camps ordered by date. On failure the previous
// snapshot is kept, connected users are notified and the error is returned.
// Refresh never retries; overlapping calls run independently.
func (d *Directory) Refresh(ctx context.Context) error {
	d.mu.Lock()
	d.inflight++
	d.loading = true
	d.mu.Unlock()

	camps, err := d.camps.ListApproved(ctx)

	d.mu.Lock()
	d.inflight--
	d.loading = d.inflight > 0
	if err == nil {
		d.snapshot = camps
		d.lastErr = nil
		d.refreshedAt = time.Now()
	} else {
		d.lastErr = err
	}
	d.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Msg("Failed to refresh camp directory")
		locale := i18n.LocaleFromContext(ctx)
		d.notifier.Notify(ctx, "", models.Notice{
			Title:    d.translator.T(locale, "directory.load_failed.title", nil),
			Message:  d.translator.T(locale, "directory.load_failed.message", nil),
			Severity: models.SeverityDestructive,
		})
		return models.Remote("list approved camps", err)
	}

	log.Debug().Int("camps", len(camps)).Msg("Camp directory refreshed")
	return nil
}

// RequestRefresh starts a refresh in the background and returns immediately.
func (d *Directory) RequestRefresh(ctx context.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), directoryRefreshTimeout)
		defer cancel()
		_ = d.Refresh(ctx)
	}()
}

// Camps returns a copy of the current snapshot.
func (d *Directory) Camps() []models.Camp {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Camp, len(d.snapshot))
	copy(out, d.snapshot)
	return out
}

// Camp looks a camp up in the snapshot.
func (d *Directory) Camp(id string) (*models.Camp, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for i := range d.snapshot {
		if d.snapshot[i].ID == id {
			camp := d.snapshot[i]
			return &camp, nil
		}
	}
	return nil, models.ErrCampNotFound
}

// Search applies criteria to the current snapshot.
func (d *Directory) Search(c Criteria) []models.Camp {
	return Filter(d.Camps(), c)
}

func (d *Directory) Loading() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loading
}

// LastError returns the error of the most recent refresh, nil after a success.
func (d *Directory) LastError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastErr
}

func (d *Directory) RefreshedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.refreshedAt
}
