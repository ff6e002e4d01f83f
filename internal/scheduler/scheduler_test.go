package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weatherpro/weather-ensemble/internal/store"
	"github.com/weatherpro/weather-ensemble/internal/weather"
)

type stubFetcher struct {
	name string
	temp float64
	err  error
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) FetchCurrent(ctx context.Context, lat, lon float64) (*weather.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &weather.Record{TS: time.Now().UTC(), Temp: weather.Float(f.temp), Source: f.name}, nil
}

func (f *stubFetcher) FetchHourly(ctx context.Context, lat, lon float64, hours int) (weather.Series, error) {
	return nil, f.err
}

func (f *stubFetcher) FetchDaily(ctx context.Context, lat, lon float64, days int) (weather.Series, error) {
	return nil, f.err
}

func newScheduler(locations []weather.Location, sources []weather.Fetcher) (*Scheduler, *store.MemoryStore) {
	cache := store.NewMemoryStore(10, time.Hour)
	svc := weather.NewService(sources, weather.NewTracker(), nil, time.Second)
	return New(locations, 15*time.Minute, weather.StrategyBest, svc, cache), cache
}

func TestRefreshAllCachesBundles(t *testing.T) {
	hanoi := weather.Location{Name: "Hanoi", Lat: 21.0285, Lon: 105.8542}
	danang := weather.Location{Name: "Da Nang", Lat: 16.0544, Lon: 108.2022}

	sched, cache := newScheduler(
		[]weather.Location{hanoi, danang},
		[]weather.Fetcher{&stubFetcher{name: weather.SourceWeatherAPI, temp: 29}},
	)

	sched.refreshAll()

	for _, loc := range []weather.Location{hanoi, danang} {
		entry, err := cache.GetLatest(loc)
		require.NoError(t, err)
		require.InDelta(t, 29.0, *entry.Bundle.Current.Temp, 1e-9)
	}
}

// Empty merge results are not cached; stale-but-present data beats cached
// nothing.
func TestRefreshAllSkipsEmptyBundles(t *testing.T) {
	hanoi := weather.Location{Name: "Hanoi", Lat: 21.0285, Lon: 105.8542}

	sched, cache := newScheduler(
		[]weather.Location{hanoi},
		[]weather.Fetcher{&stubFetcher{name: weather.SourceWeatherAPI, err: errors.New("down")}},
	)

	sched.refreshAll()

	_, err := cache.GetLatest(hanoi)
	require.ErrorIs(t, err, store.ErrNotFound)
}

// With no locations configured Start is a no-op instead of an error.
func TestStartNoLocations(t *testing.T) {
	sched, _ := newScheduler(nil, nil)
	require.NoError(t, sched.Start())
	sched.Stop()
}

func TestStartAndStop(t *testing.T) {
	hanoi := weather.Location{Name: "Hanoi", Lat: 21.0285, Lon: 105.8542}
	sched, _ := newScheduler(
		[]weather.Location{hanoi},
		[]weather.Fetcher{&stubFetcher{name: weather.SourceWeatherAPI, temp: 29}},
	)

	require.NoError(t, sched.Start())
	sched.Stop()
}
