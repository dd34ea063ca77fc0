package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"studio-availability-backend/config"
	"studio-availability-backend/internal/model"
	"studio-availability-backend/internal/store"
)

// AvailabilityQuerier is the slice of the availability service the watcher
// needs.
type AvailabilityQuerier interface {
	GetMatchingAvailability(ctx context.Context, sourceID, shopID string, date time.Time, rng model.DesiredRange, durationHours float64) ([]model.RoomAvailability, error)
}

// Watcher periodically re-runs stored watch subscriptions and alerts
// subscribers when a query that previously had no qualifying window gains
// one.
type Watcher struct {
	cfg   *config.Config
	store store.Store
	svc   AvailabilityQuerier
	pool  *WorkerPool
}

// NewWatcher creates a watcher over the store, service and worker pool.
func NewWatcher(cfg *config.Config, st store.Store, svc AvailabilityQuerier, pool *WorkerPool) *Watcher {
	return &Watcher{cfg: cfg, store: st, svc: svc, pool: pool}
}

// Run starts the watch loop and blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	if !w.cfg.Watcher.Enabled {
		log.Println("Watcher is disabled. Not starting.")
		return
	}
	log.Println("Starting watcher service...")

	w.pool.Start(ctx)
	w.CheckOnce(ctx)

	timer := time.NewTimer(w.cfg.Watcher.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Watcher service shutting down.")
			return
		case <-timer.C:
			w.CheckOnce(ctx)
			timer.Reset(w.cfg.Watcher.Interval)
		}
	}
}

// CheckOnce re-runs every stored subscription query once.
func (w *Watcher) CheckOnce(ctx context.Context) {
	subs, err := w.store.ListSubscriptions(ctx)
	if err != nil {
		log.Printf("Error listing subscriptions: %v", err)
		return
	}
	if len(subs) == 0 {
		return
	}
	log.Printf("Checking %d watch subscriptions...", len(subs))

	for _, sub := range subs {
		if err := w.checkSubscription(ctx, sub); err != nil {
			log.Printf("Error checking subscription %s: %v", sub.Endpoint, err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (w *Watcher) checkSubscription(ctx context.Context, sub model.WatchSubscription) error {
	studio, err := w.store.GetStudio(ctx, sub.StudioID)
	if err != nil {
		return err
	}
	if !studio.HasAvailability() {
		return nil
	}

	date, err := time.Parse("2006-01-02", sub.Date)
	if err != nil {
		return fmt.Errorf("bad date %q: %w", sub.Date, err)
	}
	start, err := model.ParseTimeOfDay(sub.RangeStart)
	if err != nil {
		return err
	}
	end, err := model.ParseTimeOfDay(sub.RangeEnd)
	if err != nil {
		return err
	}
	rng, err := model.NewDesiredRange(start, end)
	if err != nil {
		return err
	}

	rooms, err := w.svc.GetMatchingAvailability(ctx, studio.ScraperType, studio.ShopID, date, rng, sub.DurationHours)
	if err != nil {
		return err
	}

	matched := len(rooms) > 0
	switch {
	case matched && !sub.Notified:
		w.pool.Dispatch(Alert{
			Subscription: sub,
			Message: fmt.Sprintf("%s has an opening on %s between %s and %s",
				studio.Name, sub.Date, sub.RangeStart, sub.RangeEnd),
		})
		return w.store.SetNotified(ctx, sub.Endpoint, true)
	case !matched && sub.Notified:
		// The window closed again; re-arm the alert.
		return w.store.SetNotified(ctx, sub.Endpoint, false)
	}
	return nil
}
