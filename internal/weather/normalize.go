package weather

import (
	"errors"
	"sort"
	"time"
)

// Cadence selects the canonical grid step a series is normalized onto.
type Cadence int

const (
	CadenceHourly Cadence = iota
	CadenceDaily
)

var (
	// ErrEmptySeries means the input had no records with a resolvable timestamp.
	ErrEmptySeries = errors.New("series is empty or has no usable timestamps")

	// ErrMissingColumns means none of the required numeric fields carried a value.
	ErrMissingColumns = errors.New("series is missing required numeric fields")
)

// requiredFields are the numeric fields a series must carry at least one of
// to be normalizable, per cadence. Humidity and the rest are optional
// enrichments and are gridded only when present.
var requiredFields = map[Cadence][]string{
	CadenceHourly: {"temp", "rain", "wind_speed"},
	CadenceDaily:  {"temp_min", "temp_max", "temp_avg", "rain", "wind_speed"},
}

// Normalize aligns one source's raw series onto a contiguous grid covering
// the observed span. For the hourly cadence the span is day-aligned (floor of
// the earliest day to 23:00 of the latest day) so every covered day has
// exactly 24 records even when upstream data is sparse at the edges.
//
// Numeric fields are filled by linear interpolation over time, then
// forward/backward filled at the edges so no value inside the span is left
// unset. The textual description is filled by nearest-neighbor selection.
// Values are not rounded here; rounding is a presentation concern.
func Normalize(raw Series, cadence Cadence) (Series, error) {
	usable := make(Series, 0, len(raw))
	for _, r := range raw {
		if r.TS.IsZero() {
			continue
		}
		r.TS = r.TS.UTC()
		usable = append(usable, r)
	}
	if len(usable) == 0 {
		return nil, ErrEmptySeries
	}

	sort.SliceStable(usable, func(i, j int) bool { return usable[i].TS.Before(usable[j].TS) })

	// Duplicate timestamps within one series are resolved by grouped averaging.
	usable = groupMeanByTimestamp(usable)

	present := presentFields(usable)
	if !anyRequired(present, cadence) {
		return nil, ErrMissingColumns
	}

	grid := buildGrid(usable[0].TS, usable[len(usable)-1].TS, cadence)

	out := make(Series, len(grid))
	source := seriesSource(usable)
	for i, ts := range grid {
		out[i] = Record{TS: ts, Source: source}
	}

	for _, name := range present {
		f, _ := fieldByName(name)
		knots := collectKnots(usable, f)
		if len(knots) == 0 {
			continue
		}
		for i, ts := range grid {
			v := interpolateAt(knots, ts.Unix())
			f.set(&out[i], Float(v))
		}
	}

	fillDescriptions(usable, out)
	return out, nil
}

// NormalizeDailySchema guarantees every daily record has a temp_min/temp_max
// pair, deriving both from an average temperature when that is all the
// source provided. Sources that report only temp_avg (or a single temp) are
// common among the fallback providers.
func NormalizeDailySchema(s Series) Series {
	out := make(Series, len(s))
	for i, r := range s {
		if r.TempMin == nil {
			r.TempMin = copyOf(firstNonNil(r.TempAvg, r.Temp))
		}
		if r.TempMax == nil {
			r.TempMax = copyOf(firstNonNil(r.TempAvg, r.Temp))
		}
		out[i] = r
	}
	return out
}

func fieldByName(name string) (numericField, bool) {
	for _, f := range numericFields {
		if f.name == name {
			return f, true
		}
	}
	return numericField{}, false
}

// presentFields lists the numeric fields that carry at least one value
// anywhere in the series, in canonical order.
func presentFields(s Series) []string {
	var names []string
	for _, f := range numericFields {
		for i := range s {
			if f.get(&s[i]) != nil {
				names = append(names, f.name)
				break
			}
		}
	}
	return names
}

func anyRequired(present []string, cadence Cadence) bool {
	for _, req := range requiredFields[cadence] {
		for _, name := range present {
			if name == req {
				return true
			}
		}
	}
	return false
}

func buildGrid(first, last time.Time, cadence Cadence) []time.Time {
	startDay := dayFloor(first)
	var end time.Time
	var step time.Duration
	switch cadence {
	case CadenceDaily:
		end = dayFloor(last)
		step = 24 * time.Hour
	default:
		end = dayFloor(last).Add(23 * time.Hour)
		step = time.Hour
	}

	var grid []time.Time
	for ts := startDay; !ts.After(end); ts = ts.Add(step) {
		grid = append(grid, ts)
	}
	return grid
}

func dayFloor(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// knot is one known sample of a numeric field on the time axis.
type knot struct {
	at  int64 // unix seconds
	val float64
}

func collectKnots(s Series, f numericField) []knot {
	var knots []knot
	for i := range s {
		if v := f.get(&s[i]); v != nil {
			knots = append(knots, knot{at: s[i].TS.Unix(), val: *v})
		}
	}
	return knots
}

// interpolateAt evaluates the piecewise-linear curve through knots at t.
// Points before the first knot take the first value and points after the
// last take the last, which is the forward/backward fill of the edges.
func interpolateAt(knots []knot, t int64) float64 {
	if t <= knots[0].at {
		return knots[0].val
	}
	last := knots[len(knots)-1]
	if t >= last.at {
		return last.val
	}
	i := sort.Search(len(knots), func(i int) bool { return knots[i].at >= t })
	if knots[i].at == t {
		return knots[i].val
	}
	lo, hi := knots[i-1], knots[i]
	frac := float64(t-lo.at) / float64(hi.at-lo.at)
	return lo.val + frac*(hi.val-lo.val)
}

// fillDescriptions assigns each grid record the description of the nearest
// input record in time that has one. Categorical values are never
// interpolated.
func fillDescriptions(in Series, out Series) {
	type stamp struct {
		at   int64
		desc string
	}
	var stamps []stamp
	for i := range in {
		if in[i].WeatherDesc != "" {
			stamps = append(stamps, stamp{at: in[i].TS.Unix(), desc: in[i].WeatherDesc})
		}
	}
	if len(stamps) == 0 {
		return
	}

	for i := range out {
		t := out[i].TS.Unix()
		best := stamps[0]
		for _, s := range stamps[1:] {
			if abs64(s.at-t) < abs64(best.at-t) {
				best = s
			}
		}
		out[i].WeatherDesc = best.desc
	}
}

func seriesSource(s Series) string {
	for i := range s {
		if s[i].Source != "" {
			return s[i].Source
		}
	}
	return ""
}

func firstNonNil(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func copyOf(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
