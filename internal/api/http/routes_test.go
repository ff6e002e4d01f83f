package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/weatherpro/weather-ensemble/internal/store"
	"github.com/weatherpro/weather-ensemble/internal/weather"
)

func newTestApp(t *testing.T) (*fiber.App, *store.MemoryStore) {
	t.Helper()

	app := fiber.New()
	cache := store.NewMemoryStore(10, time.Hour)
	svc := weather.NewService(nil, weather.NewTracker(), nil, time.Second)
	RegisterRoutes(app, svc, cache, nil)
	return app, cache
}

// TestForecastCoordValidation verifies that the forecast endpoint rejects
// missing and out-of-range coordinates.
func TestForecastCoordValidation(t *testing.T) {
	app, _ := newTestApp(t)

	cases := []struct {
		name string
		url  string
		want int
	}{
		{"missing coords", "/api/v1/forecast", http.StatusBadRequest},
		{"missing lon", "/api/v1/forecast?lat=21.02", http.StatusBadRequest},
		{"non-numeric lat", "/api/v1/forecast?lat=hanoi&lon=105.84", http.StatusBadRequest},
		{"lat out of range", "/api/v1/forecast?lat=91&lon=105.84", http.StatusBadRequest},
		{"lon out of range", "/api/v1/forecast?lat=21.02&lon=181", http.StatusBadRequest},
		{"valid coords", "/api/v1/forecast?lat=21.02&lon=105.84", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

// TestForecastUnknownStrategyFallsBack verifies that an unrecognised strategy
// name resolves to "best" instead of failing the request.
func TestForecastUnknownStrategyFallsBack(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast?lat=21.02&lon=105.84&strategy=bogus", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Strategy string `json:"strategy"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "best", body.Strategy)
}

func TestReliabilityReport(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reliability", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report []weather.SourceReliability
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	require.Len(t, report, 3)

	scores := make(map[string]float64, len(report))
	for _, r := range report {
		scores[r.Source] = r.ReliabilityScore
	}
	require.Equal(t, 1.0, scores[weather.SourceWeatherAPI])
	require.Equal(t, 0.9, scores[weather.SourceOpenMeteo])
	require.Equal(t, 0.5, scores[weather.SourceOpenWeather])
}

func TestCachedEndpoints(t *testing.T) {
	app, cache := newTestApp(t)

	loc := weather.Location{Name: "Hanoi", Lat: 21.0285, Lon: 105.8542}

	// No cached bundle yet.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cached?lat=21.0285&lon=105.8542", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	cache.SaveBundle(loc, weather.Bundle{
		Current: &weather.Record{TS: time.Now().UTC(), Temp: weather.Float(29.5), Source: weather.SourceWeatherAPI},
	})

	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// History requires a valid from/to range.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/cached/history?lat=21.0285&lon=105.8542", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	from := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	to := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/cached/history?lat=21.0285&lon=105.8542&from="+from+"&to="+to, nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
