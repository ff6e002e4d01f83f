package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/weatherpro/weather-ensemble/internal/weather"
)

// OpenWeatherProvider adapts OpenWeatherMap, the fallback source. Its free
// forecast endpoint is 3-hourly; the normalizer interpolates those records
// onto the hourly grid downstream. Daily records are aggregated here from
// the same 3-hourly feed.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	api     *apiClient
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    weather.SourceOpenWeather,
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5",
		api:     newAPIClient(client, weather.SourceOpenWeather),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) endpoint(path string, lat, lon float64) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("openweather api key is not configured")
	}
	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	values.Set("lang", "vi")
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	return fmt.Sprintf("%s/%s?%s", p.baseURL, path, values.Encode()), nil
}

// owmRain models OpenWeatherMap's loosely-shaped precipitation object: it
// may be absent, or carry a 1-hour or a 3-hour accumulation. flatten turns
// it into a per-hour rate so the core never sees the interval ambiguity.
type owmRain struct {
	OneH   *float64 `json:"1h"`
	ThreeH *float64 `json:"3h"`
}

func (r owmRain) flatten() *float64 {
	if r.OneH != nil {
		return r.OneH
	}
	if r.ThreeH != nil {
		return weather.Float(*r.ThreeH / 3.0)
	}
	return nil
}

type owmEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     *float64 `json:"temp"`
		TempMin  *float64 `json:"temp_min"`
		TempMax  *float64 `json:"temp_max"`
		Humidity *float64 `json:"humidity"`
		Pressure *float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
		Deg   *float64 `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All *float64 `json:"all"`
	} `json:"clouds"`
	Rain    owmRain `json:"rain"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

func (e owmEntry) toRecord(source string) weather.Record {
	rec := weather.Record{
		TS:        time.Unix(e.Dt, 0).UTC(),
		Temp:      e.Main.Temp,
		Humidity:  e.Main.Humidity,
		Pressure:  e.Main.Pressure,
		WindSpeed: e.Wind.Speed, // already m/s with units=metric
		WindDeg:   e.Wind.Deg,
		Clouds:    e.Clouds.All,
		Rain:      e.Rain.flatten(),
		Source:    source,
	}
	if len(e.Weather) > 0 {
		rec.WeatherDesc = e.Weather[0].Description
	}
	return rec
}

func (p *OpenWeatherProvider) FetchCurrent(ctx context.Context, lat, lon float64) (*weather.Record, error) {
	u, err := p.endpoint("weather", lat, lon)
	if err != nil {
		return nil, err
	}

	var payload owmEntry
	if err := p.api.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}

	rec := payload.toRecord(p.name)
	return &rec, nil
}

func (p *OpenWeatherProvider) FetchHourly(ctx context.Context, lat, lon float64, hours int) (weather.Series, error) {
	entries, err := p.fetchForecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	cutoff := time.Unix(entries[0].Dt, 0).UTC().Add(time.Duration(hours) * time.Hour)

	var series weather.Series
	for _, e := range entries {
		rec := e.toRecord(p.name)
		if rec.TS.After(cutoff) {
			break
		}
		series = append(series, rec)
	}
	return series, nil
}

func (p *OpenWeatherProvider) FetchDaily(ctx context.Context, lat, lon float64, days int) (weather.Series, error) {
	entries, err := p.fetchForecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	type dayAgg struct {
		ts          time.Time
		tempMin     *float64
		tempMax     *float64
		rainSum     float64
		hasRain     bool
		windMax     *float64
		humiditySum float64
		humidityN   int
		desc        string
	}

	var order []string
	byDay := make(map[string]*dayAgg)
	for _, e := range entries {
		ts := time.Unix(e.Dt, 0).UTC()
		key := ts.Format("2006-01-02")
		agg, ok := byDay[key]
		if !ok {
			agg = &dayAgg{ts: time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)}
			byDay[key] = agg
			order = append(order, key)
		}

		if e.Main.TempMin != nil && (agg.tempMin == nil || *e.Main.TempMin < *agg.tempMin) {
			agg.tempMin = e.Main.TempMin
		}
		if e.Main.TempMax != nil && (agg.tempMax == nil || *e.Main.TempMax > *agg.tempMax) {
			agg.tempMax = e.Main.TempMax
		}
		if e.Rain.ThreeH != nil {
			agg.rainSum += *e.Rain.ThreeH
			agg.hasRain = true
		}
		if e.Wind.Speed != nil && (agg.windMax == nil || *e.Wind.Speed > *agg.windMax) {
			agg.windMax = e.Wind.Speed
		}
		if e.Main.Humidity != nil {
			agg.humiditySum += *e.Main.Humidity
			agg.humidityN++
		}
		if agg.desc == "" && len(e.Weather) > 0 {
			agg.desc = e.Weather[0].Description
		}
	}

	var series weather.Series
	for _, key := range order {
		if len(series) >= days {
			break
		}
		agg := byDay[key]
		rec := weather.Record{
			TS:          agg.ts,
			TempMin:     agg.tempMin,
			TempMax:     agg.tempMax,
			WindSpeed:   agg.windMax,
			WeatherDesc: agg.desc,
			Source:      p.name,
		}
		if agg.hasRain {
			rec.Rain = weather.Float(agg.rainSum)
		}
		if agg.humidityN > 0 {
			rec.Humidity = weather.Float(agg.humiditySum / float64(agg.humidityN))
		}
		series = append(series, rec)
	}
	return series, nil
}

func (p *OpenWeatherProvider) fetchForecast(ctx context.Context, lat, lon float64) ([]owmEntry, error) {
	u, err := p.endpoint("forecast", lat, lon)
	if err != nil {
		return nil, err
	}

	var payload struct {
		List []owmEntry `json:"list"`
	}
	if err := p.api.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}
	return payload.List, nil
}
