package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/weatherpro/weather-ensemble/internal/weather"
)

// openMeteoTime is the layout Open-Meteo uses for minute-resolution
// timestamps when timezone=UTC is requested.
const openMeteoTime = "2006-01-02T15:04"

// OpenMeteoProvider adapts Open-Meteo, the secondary source. It needs no
// API key. Its current-conditions payload is sparse (no humidity, pressure,
// clouds or rain), so those fields stay null.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	api     *apiClient
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    weather.SourceOpenMeteo,
		baseURL: "https://api.open-meteo.com/v1/forecast",
		api:     newAPIClient(client, weather.SourceOpenMeteo),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) endpoint(lat, lon float64, extra url.Values) string {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", lat))
	values.Set("longitude", fmt.Sprintf("%f", lon))
	values.Set("timezone", "UTC")
	for k, vs := range extra {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	return fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
}

func (p *OpenMeteoProvider) FetchCurrent(ctx context.Context, lat, lon float64) (*weather.Record, error) {
	u := p.endpoint(lat, lon, url.Values{"current_weather": {"true"}})

	var payload struct {
		CurrentWeather struct {
			Temperature   *float64 `json:"temperature"`
			WindSpeed     *float64 `json:"windspeed"`
			WindDirection *float64 `json:"winddirection"`
			Time          string   `json:"time"`
		} `json:"current_weather"`
	}
	if err := p.api.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}

	ts, err := time.Parse(openMeteoTime, payload.CurrentWeather.Time)
	if err != nil {
		return nil, fmt.Errorf("openmeteo current time %q: %w", payload.CurrentWeather.Time, err)
	}

	rec := weather.Record{
		TS:        ts.UTC(),
		Temp:      payload.CurrentWeather.Temperature,
		WindDeg:   payload.CurrentWeather.WindDirection,
		Source:    p.name,
		WindSpeed: nil,
	}
	if payload.CurrentWeather.WindSpeed != nil {
		// Open-Meteo reports wind in km/h by default.
		rec.WindSpeed = weather.Float(kphToMS(*payload.CurrentWeather.WindSpeed))
	}
	return &rec, nil
}

func (p *OpenMeteoProvider) FetchHourly(ctx context.Context, lat, lon float64, hours int) (weather.Series, error) {
	u := p.endpoint(lat, lon, url.Values{
		"hourly":        {"temperature_2m,relativehumidity_2m,pressure_msl,windspeed_10m,cloudcover,precipitation"},
		"forecast_days": {"2"},
	})

	var payload struct {
		Hourly struct {
			Time             []string   `json:"time"`
			Temperature2m    []*float64 `json:"temperature_2m"`
			RelativeHumidity []*float64 `json:"relativehumidity_2m"`
			PressureMsl      []*float64 `json:"pressure_msl"`
			WindSpeed10m     []*float64 `json:"windspeed_10m"`
			CloudCover       []*float64 `json:"cloudcover"`
			Precipitation    []*float64 `json:"precipitation"`
		} `json:"hourly"`
	}
	if err := p.api.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}

	var series weather.Series
	for i, raw := range payload.Hourly.Time {
		if len(series) >= hours {
			break
		}
		ts, err := time.Parse(openMeteoTime, raw)
		if err != nil {
			continue
		}
		rec := weather.Record{
			TS:       ts.UTC(),
			Temp:     at(payload.Hourly.Temperature2m, i),
			Humidity: at(payload.Hourly.RelativeHumidity, i),
			Pressure: at(payload.Hourly.PressureMsl, i),
			Clouds:   at(payload.Hourly.CloudCover, i),
			Rain:     at(payload.Hourly.Precipitation, i),
			Source:   p.name,
		}
		if v := at(payload.Hourly.WindSpeed10m, i); v != nil {
			rec.WindSpeed = weather.Float(kphToMS(*v))
		}
		series = append(series, rec)
	}
	return series, nil
}

func (p *OpenMeteoProvider) FetchDaily(ctx context.Context, lat, lon float64, days int) (weather.Series, error) {
	u := p.endpoint(lat, lon, url.Values{
		"daily":         {"temperature_2m_max,temperature_2m_min,precipitation_sum,windspeed_10m_max"},
		"forecast_days": {fmt.Sprintf("%d", days)},
	})

	var payload struct {
		Daily struct {
			Time             []string   `json:"time"`
			Temperature2mMax []*float64 `json:"temperature_2m_max"`
			Temperature2mMin []*float64 `json:"temperature_2m_min"`
			PrecipitationSum []*float64 `json:"precipitation_sum"`
			WindSpeed10mMax  []*float64 `json:"windspeed_10m_max"`
		} `json:"daily"`
	}
	if err := p.api.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}

	var series weather.Series
	for i, raw := range payload.Daily.Time {
		if len(series) >= days {
			break
		}
		ts, err := time.Parse("2006-01-02", raw)
		if err != nil {
			continue
		}
		rec := weather.Record{
			TS:      ts.UTC(),
			TempMin: at(payload.Daily.Temperature2mMin, i),
			TempMax: at(payload.Daily.Temperature2mMax, i),
			Rain:    at(payload.Daily.PrecipitationSum, i),
			Source:  p.name,
		}
		if v := at(payload.Daily.WindSpeed10mMax, i); v != nil {
			rec.WindSpeed = weather.Float(kphToMS(*v))
		}
		series = append(series, rec)
	}
	return series, nil
}

// at safely indexes the parallel arrays Open-Meteo returns; entries can be
// null and arrays can be shorter than the time axis.
func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}
