package weather

import (
	"strconv"
	"time"
)

// Known source names, in fixed priority order: WeatherAPI is the official
// feed, Open-Meteo the secondary, OpenWeatherMap the fallback.
const (
	SourceWeatherAPI  = "weatherapi"
	SourceOpenMeteo   = "openmeteo"
	SourceOpenWeather = "openweather"
)

// DefaultPriority is the fixed source order used by the "best" strategy.
var DefaultPriority = []string{SourceWeatherAPI, SourceOpenMeteo, SourceOpenWeather}

// Location represents a place we prepare forecasts for, addressed by
// coordinates. Name is informational only.
type Location struct {
	Name string  `json:"name,omitempty"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Key returns a canonical string key for indexing this location in stores.
// Four decimals is roughly 11m of precision, plenty for cache keys.
func (l Location) Key() string {
	return strconv.FormatFloat(l.Lat, 'f', 4, 64) + ":" + strconv.FormatFloat(l.Lon, 'f', 4, 64)
}

// Record is a single point-in-time weather reading from one source.
// Numeric fields are pointers: nil means the source did not report the value.
// TS is always UTC; a record whose timestamp cannot be resolved is discarded
// before it reaches the core.
type Record struct {
	TS time.Time `json:"ts"`

	Temp    *float64 `json:"temp,omitempty"`
	TempMin *float64 `json:"temp_min,omitempty"`
	TempMax *float64 `json:"temp_max,omitempty"`
	TempAvg *float64 `json:"temp_avg,omitempty"`

	Humidity  *float64 `json:"humidity,omitempty"`
	Pressure  *float64 `json:"pressure,omitempty"`
	WindSpeed *float64 `json:"wind_speed,omitempty"`
	WindDeg   *float64 `json:"wind_deg,omitempty"`
	Clouds    *float64 `json:"clouds,omitempty"`
	Rain      *float64 `json:"rain,omitempty"`

	WeatherDesc string `json:"weather_desc,omitempty"`
	Source      string `json:"source,omitempty"`
}

// Series is a timestamp-ordered sequence of records sharing a cadence.
type Series []Record

// Empty reports whether the series has no records at all.
func (s Series) Empty() bool { return len(s) == 0 }

// AllNull reports whether no record in the series carries a single numeric
// value. Such series are excluded from aggregation so they cannot poison a
// weighted sum with zero-weight contributions.
func (s Series) AllNull() bool {
	for i := range s {
		if !s[i].allNull() {
			return false
		}
	}
	return true
}

func (r *Record) allNull() bool {
	for _, f := range numericFields {
		if f.get(r) != nil {
			return false
		}
	}
	return true
}

// Bundle is the canonical merged output of one orchestration call:
// current conditions plus hourly and daily series. Any of the three may be
// absent when no source had data for that group.
type Bundle struct {
	Current *Record `json:"current"`
	Hourly  Series  `json:"hourly,omitempty"`
	Daily   Series  `json:"daily,omitempty"`
}

// Empty reports whether the bundle carries nothing at all.
func (b Bundle) Empty() bool {
	return b.Current == nil && b.Hourly.Empty() && b.Daily.Empty()
}

// numericField gives uniform access to one optional numeric field of a
// Record, the way a dataframe column would be addressed by name.
type numericField struct {
	name string
	get  func(*Record) *float64
	set  func(*Record, *float64)
}

// numericFields lists every numeric field the normalizer and merger operate
// on. Order is stable so merged output is deterministic.
var numericFields = []numericField{
	{"temp", func(r *Record) *float64 { return r.Temp }, func(r *Record, v *float64) { r.Temp = v }},
	{"temp_min", func(r *Record) *float64 { return r.TempMin }, func(r *Record, v *float64) { r.TempMin = v }},
	{"temp_max", func(r *Record) *float64 { return r.TempMax }, func(r *Record, v *float64) { r.TempMax = v }},
	{"temp_avg", func(r *Record) *float64 { return r.TempAvg }, func(r *Record, v *float64) { r.TempAvg = v }},
	{"humidity", func(r *Record) *float64 { return r.Humidity }, func(r *Record, v *float64) { r.Humidity = v }},
	{"pressure", func(r *Record) *float64 { return r.Pressure }, func(r *Record, v *float64) { r.Pressure = v }},
	{"wind_speed", func(r *Record) *float64 { return r.WindSpeed }, func(r *Record, v *float64) { r.WindSpeed = v }},
	{"wind_deg", func(r *Record) *float64 { return r.WindDeg }, func(r *Record, v *float64) { r.WindDeg = v }},
	{"clouds", func(r *Record) *float64 { return r.Clouds }, func(r *Record, v *float64) { r.Clouds = v }},
	{"rain", func(r *Record) *float64 { return r.Rain }, func(r *Record, v *float64) { r.Rain = v }},
}

// Float returns a pointer to v; shorthand for building records.
func Float(v float64) *float64 { return &v }
