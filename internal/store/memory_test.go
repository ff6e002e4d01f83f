package store

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/weatherpro/weather-ensemble/internal/weather"
)

var hanoi = weather.Location{Name: "Hanoi", Lat: 21.0285, Lon: 105.8542}

func bundleAt(temp float64) weather.Bundle {
	return weather.Bundle{
		Current: &weather.Record{TS: time.Now().UTC(), Temp: weather.Float(temp)},
	}
}

func TestGetLatestEmpty(t *testing.T) {
	s := NewMemoryStore(10, time.Hour)
	_, err := s.GetLatest(hanoi)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAndGetLatest(t *testing.T) {
	s := NewMemoryStore(10, time.Hour)
	s.SaveBundle(hanoi, bundleAt(28))
	s.SaveBundle(hanoi, bundleAt(30))

	entry, err := s.GetLatest(hanoi)
	require.NoError(t, err)
	require.Equal(t, 30.0, *entry.Bundle.Current.Temp)
}

// Locations are keyed by coordinates, not names.
func TestLocationsAreIndependent(t *testing.T) {
	s := NewMemoryStore(10, time.Hour)
	danang := weather.Location{Name: "Da Nang", Lat: 16.0544, Lon: 108.2022}

	s.SaveBundle(hanoi, bundleAt(28))

	_, err := s.GetLatest(danang)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCountRetention(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewMemoryStoreWithClock(3, 0, clock)

	for i := 0; i < 5; i++ {
		s.SaveBundle(hanoi, bundleAt(float64(20+i)))
		clock.Advance(time.Minute)
	}

	entries, err := s.GetRange(hanoi, time.Time{}, clock.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// The oldest two were evicted.
	require.Equal(t, 22.0, *entries[0].Bundle.Current.Temp)
	require.Equal(t, 24.0, *entries[len(entries)-1].Bundle.Current.Temp)
}

func TestAgeRetention(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewMemoryStoreWithClock(0, time.Hour, clock)

	s.SaveBundle(hanoi, bundleAt(20))
	clock.Advance(2 * time.Hour)
	s.SaveBundle(hanoi, bundleAt(25))

	entries, err := s.GetRange(hanoi, time.Time{}, clock.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 25.0, *entries[0].Bundle.Current.Temp)
}

func TestGetRangeBounds(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewMemoryStoreWithClock(0, 0, clock)

	start := clock.Now().UTC()
	for i := 0; i < 4; i++ {
		s.SaveBundle(hanoi, bundleAt(float64(20+i)))
		clock.Advance(time.Hour)
	}

	// Only the middle two fall inside the window.
	entries, err := s.GetRange(hanoi, start.Add(time.Hour), start.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, 21.0, *entries[0].Bundle.Current.Temp)
	require.Equal(t, 22.0, *entries[1].Bundle.Current.Temp)

	// An empty window is a not-found, matching the latest-lookup contract.
	_, err = s.GetRange(hanoi, start.Add(10*time.Hour), start.Add(11*time.Hour))
	require.ErrorIs(t, err, ErrNotFound)
}
