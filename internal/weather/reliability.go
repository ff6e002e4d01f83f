package weather

import (
	"sort"
	"sync"
)

// Default reliability scores per source. WeatherAPI is the official feed,
// Open-Meteo the secondary, OpenWeatherMap the last-resort fallback.
var defaultScores = map[string]float64{
	SourceWeatherAPI:  1.0,
	SourceOpenMeteo:   0.9,
	SourceOpenWeather: 0.5,
}

const (
	scoreFloor   = 0.0
	scoreCeiling = 2.0
	scoreReward  = 0.1
	scorePenalty = 0.2
)

// trackedMetric names one current-condition metric the tracker compares
// across sources, with the absolute-deviation threshold beyond which a
// source is considered an outlier.
type trackedMetric struct {
	name      string
	threshold float64
	get       func(*Record) *float64
}

// defaultMetrics are the metrics compared on every update: 3°C for
// temperature, 10% for humidity, 5hPa for pressure, 2m/s for wind.
var defaultMetrics = []trackedMetric{
	{"temp", 3.0, func(r *Record) *float64 { return r.Temp }},
	{"humidity", 10.0, func(r *Record) *float64 { return r.Humidity }},
	{"pressure", 5.0, func(r *Record) *float64 { return r.Pressure }},
	{"wind_speed", 2.0, func(r *Record) *float64 { return r.WindSpeed }},
}

// SourceReliability is one row of the reliability report.
type SourceReliability struct {
	Source           string  `json:"source"`
	ReliabilityScore float64 `json:"reliability_score"`
	DeviationCount   int     `json:"deviation_count"`
}

// Tracker maintains per-source trust scores, adjusted after every
// orchestration call by comparing each source's current reading against the
// cross-source mean. It is an explicit injectable component rather than
// package state, so concurrent orchestrators can carry independent trust.
//
// Scores are process-lifetime only; a restart resets them to defaults.
type Tracker struct {
	mu         sync.Mutex
	order      []string
	scores     map[string]float64
	deviations map[string]int
}

// NewTracker creates a tracker seeded with the default per-source scores.
func NewTracker() *Tracker {
	return NewTrackerWithScores(defaultScores, DefaultPriority)
}

// NewTrackerWithScores creates a tracker with explicit initial scores.
// order fixes the tie-break sequence used when scores are equal.
func NewTrackerWithScores(initial map[string]float64, order []string) *Tracker {
	t := &Tracker{
		order:      append([]string(nil), order...),
		scores:     make(map[string]float64, len(initial)),
		deviations: make(map[string]int, len(initial)),
	}
	for src, score := range initial {
		t.scores[src] = score
		t.deviations[src] = 0
	}
	return t
}

// Update compares every source's current reading against the cross-source
// mean, metric by metric, and nudges scores: −0.2 for a deviation beyond the
// metric threshold (and a deviation-count increment), +0.1 otherwise. Every
// metric is evaluated independently, so a source that is an outlier across
// several metrics degrades faster than one occasionally wrong on a single
// one. Metrics reported by fewer than two sources are skipped; no comparison
// is possible there.
func (t *Tracker) Update(results map[string]Bundle) {
	t.UpdateMetrics(results, defaultMetrics)
}

// UpdateMetrics is Update with an explicit metric set.
func (t *Tracker) UpdateMetrics(results map[string]Bundle, metrics []trackedMetric) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, m := range metrics {
		var sources []string
		var values []float64
		// Deterministic source order keeps the update reproducible.
		for _, src := range t.order {
			bundle, ok := results[src]
			if !ok || bundle.Current == nil {
				continue
			}
			if v := m.get(bundle.Current); v != nil {
				sources = append(sources, src)
				values = append(values, *v)
			}
		}
		if len(values) < 2 {
			continue
		}

		var sum float64
		for _, v := range values {
			sum += v
		}
		mean := sum / float64(len(values))

		for i, src := range sources {
			deviation := values[i] - mean
			if deviation < 0 {
				deviation = -deviation
			}
			if deviation > m.threshold {
				t.scores[src] = maxf(t.scores[src]-scorePenalty, scoreFloor)
				t.deviations[src]++
			} else {
				t.scores[src] = minf(t.scores[src]+scoreReward, scoreCeiling)
			}
		}
	}
}

// Score returns the current reliability score for a source (0 if untracked).
func (t *Tracker) Score(source string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scores[source]
}

// Weights returns a copy of every tracked source's current score, keyed by
// source name, for use as merge weights.
func (t *Tracker) Weights() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	weights := make(map[string]float64, len(t.scores))
	for src, score := range t.scores {
		weights[src] = score
	}
	return weights
}

// Ranked returns the tracked sources ordered by reliability score descending.
// Ties keep the configured priority order. Re-evaluated on every call so the
// "dynamic" strategy always sees the latest signal.
func (t *Tracker) Ranked() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ranked := append([]string(nil), t.order...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return t.scores[ranked[i]] > t.scores[ranked[j]]
	})
	return ranked
}

// Report snapshots the score and deviation count of every tracked source,
// in the configured priority order.
func (t *Tracker) Report() []SourceReliability {
	t.mu.Lock()
	defer t.mu.Unlock()

	report := make([]SourceReliability, 0, len(t.order))
	for _, src := range t.order {
		report = append(report, SourceReliability{
			Source:           src,
			ReliabilityScore: t.scores[src],
			DeviationCount:   t.deviations[src],
		})
	}
	return report
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
