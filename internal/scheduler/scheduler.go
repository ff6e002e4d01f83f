package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"

	"github.com/weatherpro/weather-ensemble/internal/store"
	"github.com/weatherpro/weather-ensemble/internal/weather"
)

// Scheduler periodically refreshes the forecast bundle for every configured
// location and caches the result, so API reads can be served from the store
// between refreshes.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *weather.Service
	cache     *store.MemoryStore
	locations []weather.Location
	strategy  weather.Strategy
	interval  time.Duration
	timeout   time.Duration
}

// New creates a Scheduler refreshing each location every interval under the
// given merge strategy.
func New(locations []weather.Location, interval time.Duration, strategy weather.Strategy, service *weather.Service, cache *store.MemoryStore) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		cache:     cache,
		locations: locations,
		strategy:  strategy,
		interval:  interval,
		timeout:   90 * time.Second,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler. With no locations configured it is a no-op.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		log.Println("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.refreshAll)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// refreshAll refreshes every configured location concurrently. A failing
// location only logs; the others still refresh.
func (s *Scheduler) refreshAll() {
	log.Printf("scheduler: refreshing %d locations", len(s.locations))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var g errgroup.Group
	for _, loc := range s.locations {
		loc := loc
		g.Go(func() error {
			bundle := s.service.PrepareForecast(ctx, loc.Lat, loc.Lon, s.strategy)
			if bundle.Empty() {
				log.Printf("scheduler: refresh produced no data for %s", loc.Key())
				return nil
			}
			s.cache.SaveBundle(loc, bundle)
			return nil
		})
	}
	_ = g.Wait()

	log.Println("scheduler: refresh complete")
}
