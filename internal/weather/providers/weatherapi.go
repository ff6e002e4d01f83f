package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/weatherpro/weather-ensemble/internal/weather"
)

// WeatherAPIProvider adapts WeatherAPI.com, the primary source. It carries
// the richest payload: every field of the record schema including a
// Vietnamese condition text.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	lang    string
	api     *apiClient
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    weather.SourceWeatherAPI,
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1",
		lang:    "vi",
		api:     newAPIClient(client, weather.SourceWeatherAPI),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) endpoint(path string, extra url.Values) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("weatherapi api key is not configured")
	}
	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("lang", p.lang)
	for k, vs := range extra {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	return fmt.Sprintf("%s/%s?%s", p.baseURL, path, values.Encode()), nil
}

type weatherAPICondition struct {
	Text string `json:"text"`
}

type weatherAPIHour struct {
	TimeEpoch  int64               `json:"time_epoch"`
	TempC      *float64            `json:"temp_c"`
	Humidity   *float64            `json:"humidity"`
	PressureMb *float64            `json:"pressure_mb"`
	WindKph    *float64            `json:"wind_kph"`
	WindDegree *float64            `json:"wind_degree"`
	Cloud      *float64            `json:"cloud"`
	PrecipMm   *float64            `json:"precip_mm"`
	Condition  weatherAPICondition `json:"condition"`
}

func (p *WeatherAPIProvider) FetchCurrent(ctx context.Context, lat, lon float64) (*weather.Record, error) {
	u, err := p.endpoint("current.json", url.Values{"q": {fmt.Sprintf("%f,%f", lat, lon)}})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Current struct {
			LastUpdatedEpoch int64 `json:"last_updated_epoch"`
			weatherAPIHour
		} `json:"current"`
	}
	if err := p.api.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}

	rec := hourToRecord(payload.Current.weatherAPIHour, p.name)
	rec.TS = time.Unix(payload.Current.LastUpdatedEpoch, 0).UTC()
	return &rec, nil
}

func (p *WeatherAPIProvider) FetchHourly(ctx context.Context, lat, lon float64, hours int) (weather.Series, error) {
	// Two forecast days guarantee 24 future hours regardless of local time.
	u, err := p.endpoint("forecast.json", url.Values{
		"q":      {fmt.Sprintf("%f,%f", lat, lon)},
		"days":   {"2"},
		"aqi":    {"no"},
		"alerts": {"no"},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				Hour []weatherAPIHour `json:"hour"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := p.api.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}

	var series weather.Series
	for _, day := range payload.Forecast.ForecastDay {
		for _, h := range day.Hour {
			if len(series) >= hours {
				return series, nil
			}
			rec := hourToRecord(h, p.name)
			rec.TS = time.Unix(h.TimeEpoch, 0).UTC()
			series = append(series, rec)
		}
	}
	return series, nil
}

func (p *WeatherAPIProvider) FetchDaily(ctx context.Context, lat, lon float64, days int) (weather.Series, error) {
	u, err := p.endpoint("forecast.json", url.Values{
		"q":      {fmt.Sprintf("%f,%f", lat, lon)},
		"days":   {fmt.Sprintf("%d", days)},
		"aqi":    {"no"},
		"alerts": {"no"},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				DateEpoch int64 `json:"date_epoch"`
				Day       struct {
					MinTempC      *float64            `json:"mintemp_c"`
					MaxTempC      *float64            `json:"maxtemp_c"`
					AvgTempC      *float64            `json:"avgtemp_c"`
					AvgHumidity   *float64            `json:"avghumidity"`
					MaxWindKph    *float64            `json:"maxwind_kph"`
					TotalPrecipMm *float64            `json:"totalprecip_mm"`
					Condition     weatherAPICondition `json:"condition"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := p.api.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}

	var series weather.Series
	for _, fd := range payload.Forecast.ForecastDay {
		if len(series) >= days {
			break
		}
		rec := weather.Record{
			TS:          time.Unix(fd.DateEpoch, 0).UTC(),
			TempMin:     fd.Day.MinTempC,
			TempMax:     fd.Day.MaxTempC,
			TempAvg:     fd.Day.AvgTempC,
			Humidity:    fd.Day.AvgHumidity,
			Rain:        fd.Day.TotalPrecipMm,
			WeatherDesc: fd.Day.Condition.Text,
			Source:      p.name,
		}
		if fd.Day.MaxWindKph != nil {
			rec.WindSpeed = weather.Float(kphToMS(*fd.Day.MaxWindKph))
		}
		series = append(series, rec)
	}
	return series, nil
}

func hourToRecord(h weatherAPIHour, source string) weather.Record {
	rec := weather.Record{
		Temp:        h.TempC,
		Humidity:    h.Humidity,
		Pressure:    h.PressureMb,
		WindDeg:     h.WindDegree,
		Clouds:      h.Cloud,
		Rain:        h.PrecipMm,
		WeatherDesc: h.Condition.Text,
		Source:      source,
	}
	if h.WindKph != nil {
		rec.WindSpeed = weather.Float(kphToMS(*h.WindKph))
	}
	return rec
}
