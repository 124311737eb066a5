package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const refreshTimeout = 5 * time.Second

type refresher interface {
	Refresh(ctx context.Context) error
}

type refreshObserver interface {
	RefreshTriggered()
}

// Refresher re-fetches the screen's current city on a cron schedule.
type Refresher struct {
	screen   refresher
	observer refreshObserver
	logger   zerolog.Logger
	cron     *cron.Cron
	spec     string
	cancel   context.CancelFunc
}

func NewRefresher(
	screen refresher,
	spec string,
	observer refreshObserver,
	logger zerolog.Logger,
) *Refresher {
	return &Refresher{
		screen:   screen,
		observer: observer,
		logger:   logger.With().Str("component", "Refresher").Logger(),
		cron:     cron.New(cron.WithSeconds()),
		spec:     spec,
	}
}

// Start registers the refresh job and starts the scheduler.
func (r *Refresher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	if _, err := r.cron.AddFunc(r.spec, func() { r.RunOnce(ctx) }); err != nil {
		cancel()
		r.logger.Error().Err(err).Str("spec", r.spec).Msg("failed to schedule refresh job")
		return err
	}

	r.cron.Start()
	r.logger.Info().Str("spec", r.spec).Msg("refresher started")
	return nil
}

// Stop cancels pending refreshes and waits for a running job to finish.
func (r *Refresher) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	<-r.cron.Stop().Done()
	r.logger.Info().Msg("refresher stopped")
}

func (r *Refresher) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	r.observer.RefreshTriggered()
	if err := r.screen.Refresh(ctx); err != nil {
		r.logger.Error().Err(err).Msg("scheduled refresh failed")
		return
	}
	r.logger.Debug().Msg("scheduled refresh queued")
}
