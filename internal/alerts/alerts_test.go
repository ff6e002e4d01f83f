package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weatherpro/weather-ensemble/internal/weather"
)

func TestDetectHourlyRain(t *testing.T) {
	ts := time.Date(2026, 7, 10, 14, 0, 0, 0, time.UTC)
	hourly := weather.Series{
		{TS: ts, Rain: weather.Float(5)},
		{TS: ts.Add(time.Hour), Rain: weather.Float(12)},
		{TS: ts.Add(2 * time.Hour), Rain: weather.Float(45)},
	}

	out := DetectHourly(hourly)
	require.Len(t, out, 2)
	require.Equal(t, TypeHeavyRain, out[0].Type)
	require.Equal(t, SeverityModerate, out[0].Severity)
	require.Equal(t, SeveritySevere, out[1].Severity)
	require.Equal(t, 45.0, out[1].Value)
}

// A humid hour can trigger the severe heat alert at a lower air temperature
// than a dry one.
func TestDetectHourlyHeatIndex(t *testing.T) {
	ts := time.Date(2026, 7, 10, 13, 0, 0, 0, time.UTC)

	dry := DetectHourly(weather.Series{
		{TS: ts, Temp: weather.Float(36), Humidity: weather.Float(20)},
	})
	// 36 + 0.33*0.2*36 - 4 = 34.4 < 38: moderate only.
	require.Len(t, dry, 1)
	require.Equal(t, SeverityModerate, dry[0].Severity)

	humid := DetectHourly(weather.Series{
		{TS: ts, Temp: weather.Float(36), Humidity: weather.Float(80)},
	})
	// 36 + 0.33*0.8*36 - 4 = 41.5 >= 38: moderate plus severe.
	require.Len(t, humid, 2)
	require.Equal(t, SeveritySevere, humid[1].Severity)
	require.Equal(t, "heat_index", humid[1].Metric)
}

func TestDetectHourlyWind(t *testing.T) {
	ts := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	out := DetectHourly(weather.Series{
		{TS: ts, WindSpeed: weather.Float(11)},
		{TS: ts.Add(time.Hour), WindSpeed: weather.Float(18)},
	})

	require.Len(t, out, 2)
	require.Equal(t, SeverityModerate, out[0].Severity)
	require.Equal(t, SeveritySevere, out[1].Severity)
}

func TestDetectStorm(t *testing.T) {
	ts := time.Date(2026, 9, 3, 6, 0, 0, 0, time.UTC)
	current := &weather.Record{
		TS:        ts,
		WindSpeed: weather.Float(19),
		Pressure:  weather.Float(985),
	}
	daily := weather.Series{
		{TS: ts, Rain: weather.Float(120)},
		{TS: ts.Add(24 * time.Hour), Rain: weather.Float(20)},
	}

	out := DetectStorm(current, daily)
	require.Len(t, out, 3)
	for _, a := range out {
		require.Equal(t, TypeStorm, a.Type)
		require.Equal(t, SeveritySevere, a.Severity)
	}
}

func TestDetectUnusualKeywords(t *testing.T) {
	ts := time.Date(2026, 7, 10, 10, 0, 0, 0, time.UTC)
	current := &weather.Record{TS: ts, WeatherDesc: "Có Mưa Đá rải rác"}

	out := DetectUnusual(current, nil, nil)
	require.Len(t, out, 1)
	require.Equal(t, TypeUnusual, out[0].Type)
	require.Equal(t, "mưa đá", out[0].Detail)

	// Plain conditions raise nothing.
	calm := &weather.Record{TS: ts, WeatherDesc: "trời quang mây"}
	require.Empty(t, DetectUnusual(calm, nil, nil))
}

func TestDetectEmptyBundle(t *testing.T) {
	require.Empty(t, Detect(weather.Bundle{}))
}

func TestHeatIndexProxy(t *testing.T) {
	require.InDelta(t, 36.0, HeatIndexProxy(36, 0)+4, 1e-9)
	require.Greater(t, HeatIndexProxy(36, 80), HeatIndexProxy(36, 20))
}
