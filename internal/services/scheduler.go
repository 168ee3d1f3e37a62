package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

const jobTimeout = 2 * time.Minute

// Scheduler runs the periodic maintenance jobs: directory refresh and camp
// lifecycle completion.
type Scheduler struct {
	scheduler *gocron.Scheduler
}

// NewScheduler registers the jobs. Nothing runs until Start.
func NewScheduler(directory *Directory, camps *CampService, refreshInterval, lifecycleInterval time.Duration) (*Scheduler, error) {
	scheduler := gocron.NewScheduler(time.Local)
	scheduler.SingletonModeAll()

	if _, err := scheduler.Every(refreshInterval).WaitForSchedule().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		// Refresh logs and notifies on its own.
		_ = directory.Refresh(ctx)
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule directory refresh: %w", err)
	}

	if _, err := scheduler.Every(lifecycleInterval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		completed, err := camps.CompletePastCamps(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Camp lifecycle job failed")
			return
		}
		if completed > 0 {
			log.Info().Int("completed", completed).Msg("Past camps marked as completed")
		}
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule camp lifecycle: %w", err)
	}

	return &Scheduler{scheduler: scheduler}, nil
}

func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
	log.Info().Int("jobs", s.scheduler.Len()).Msg("Scheduler started")
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	log.Info().Msg("Scheduler stopped")
}
