package weather

import (
	"sort"
	"strings"
	"time"
)

// Strategy selects how per-source results are combined into one bundle.
// It is a closed enum so a typo can never silently select a different
// behavior: ParseStrategy maps anything unrecognized to StrategyBest.
type Strategy int

const (
	// StrategyBest picks the first available source in fixed priority order.
	StrategyBest Strategy = iota
	// StrategyAvg takes the unweighted per-field mean across sources.
	StrategyAvg
	// StrategyDynamic is StrategyBest with the order ranked by reliability.
	StrategyDynamic
	// StrategyWeighted averages sources weighted by reliability score.
	StrategyWeighted
)

// ParseStrategy resolves a strategy name. Unrecognized names fall back to
// "best" rather than failing, so callers never see an error from a typo.
func ParseStrategy(name string) Strategy {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "avg":
		return StrategyAvg
	case "dynamic":
		return StrategyDynamic
	case "weighted":
		return StrategyWeighted
	default:
		return StrategyBest
	}
}

func (s Strategy) String() string {
	switch s {
	case StrategyAvg:
		return "avg"
	case StrategyDynamic:
		return "dynamic"
	case StrategyWeighted:
		return "weighted"
	default:
		return "best"
	}
}

// Merge combines per-source bundles into one canonical bundle under the
// given strategy. Sources with empty, absent, or entirely null data are
// excluded before aggregation. Zero usable sources for a field-group yields
// a nil/empty group, never an error: a fully-failed merge is an empty
// bundle, and the caller decides what to do about it.
func Merge(results map[string]Bundle, strategy Strategy, tracker *Tracker) Bundle {
	switch strategy {
	case StrategyAvg:
		return mergeAverage(results)
	case StrategyDynamic:
		return mergeBest(results, tracker.Ranked())
	case StrategyWeighted:
		return mergeWeighted(results, tracker.Weights())
	default:
		return mergeBest(results, DefaultPriority)
	}
}

// mergeBest walks sources in priority order and takes, independently per
// field-group, the first usable value: the first current with a non-nil
// temperature, the first non-empty hourly series, the first non-empty daily
// series. The three groups may come from three different winners.
func mergeBest(results map[string]Bundle, order []string) Bundle {
	var merged Bundle
	for _, src := range order {
		cur := results[src].Current
		if cur != nil && cur.Temp != nil {
			merged.Current = cur
			break
		}
	}
	for _, src := range order {
		if h := results[src].Hourly; !h.Empty() {
			merged.Hourly = h
			break
		}
	}
	for _, src := range order {
		if d := results[src].Daily; !d.Empty() {
			merged.Daily = d
			break
		}
	}
	return merged
}

func mergeAverage(results map[string]Bundle) Bundle {
	var merged Bundle
	order := orderedSources(results)

	var currents []*Record
	for _, src := range order {
		if cur := results[src].Current; cur != nil {
			currents = append(currents, cur)
		}
	}
	if len(currents) > 0 {
		merged.Current = averageCurrents(currents)
	}

	merged.Hourly = mergeSeriesMean(collectSeries(results, order, func(b Bundle) Series { return b.Hourly }))
	merged.Daily = mergeSeriesMean(collectSeries(results, order, func(b Bundle) Series { return b.Daily }))
	return merged
}

func mergeWeighted(results map[string]Bundle, weights map[string]float64) Bundle {
	var merged Bundle
	order := orderedSources(results)

	// Current: per-field weighted mean over sources that reported a
	// temperature, skipping fields a contributor left null.
	type contribution struct {
		rec    *Record
		weight float64
	}
	var contribs []contribution
	for _, src := range order {
		cur := results[src].Current
		if cur != nil && cur.Temp != nil {
			contribs = append(contribs, contribution{rec: cur, weight: weights[src]})
		}
	}
	if len(contribs) > 0 {
		out := &Record{Source: "weighted"}
		for _, c := range contribs {
			if c.rec.TS.After(out.TS) {
				out.TS = c.rec.TS
			}
		}
		for _, f := range numericFields {
			var sum, wsum float64
			for _, c := range contribs {
				if v := f.get(c.rec); v != nil {
					sum += *v * c.weight
					wsum += c.weight
				}
			}
			if wsum != 0 {
				f.set(out, Float(sum/wsum))
			}
		}
		merged.Current = out
	}

	merged.Hourly = mergeSeriesWeighted(results, order, weights, func(b Bundle) Series { return b.Hourly })
	merged.Daily = mergeSeriesWeighted(results, order, weights, func(b Bundle) Series { return b.Daily })
	return merged
}

// collectSeries gathers the usable per-source series for one field-group,
// dropping empty and entirely-null ones.
func collectSeries(results map[string]Bundle, order []string, pick func(Bundle) Series) []Series {
	var out []Series
	for _, src := range order {
		s := pick(results[src])
		if !s.Empty() && !s.AllNull() {
			out = append(out, s)
		}
	}
	return out
}

// mergeSeriesMean unions the series by concatenation, groups records by
// timestamp, and takes the unweighted per-field mean within each group.
func mergeSeriesMean(series []Series) Series {
	if len(series) == 0 {
		return nil
	}
	var all Series
	for _, s := range series {
		all = append(all, s...)
	}
	return groupMeanByTimestamp(all)
}

// mergeSeriesWeighted computes a per-timestamp weighted average: each
// source's values are scaled by its reliability weight, everything is
// concatenated and grouped by timestamp, then the summed scaled values are
// divided by the summed weight of the group. Timestamps covered by only a
// subset of sources divide by only the weight that actually arrived there.
func mergeSeriesWeighted(results map[string]Bundle, order []string, weights map[string]float64, pick func(Bundle) Series) Series {
	type weightedRecord struct {
		rec    *Record
		weight float64
	}
	groups := make(map[int64][]weightedRecord)
	var stamps []int64

	for _, src := range order {
		s := pick(results[src])
		if s.Empty() || s.AllNull() {
			continue
		}
		w := weights[src]
		for i := range s {
			key := s[i].TS.Unix()
			if _, seen := groups[key]; !seen {
				stamps = append(stamps, key)
			}
			groups[key] = append(groups[key], weightedRecord{rec: &s[i], weight: w})
		}
	}
	if len(groups) == 0 {
		return nil
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	out := make(Series, 0, len(stamps))
	for _, key := range stamps {
		group := groups[key]
		rec := Record{TS: time.Unix(key, 0).UTC()}
		var wsum float64
		for _, wr := range group {
			wsum += wr.weight
		}
		for _, f := range numericFields {
			var sum float64
			hasValue := false
			for _, wr := range group {
				if v := f.get(wr.rec); v != nil {
					sum += *v * wr.weight
					hasValue = true
				}
			}
			if hasValue && wsum != 0 {
				f.set(&rec, Float(sum/wsum))
			}
		}
		out = append(out, rec)
	}
	return out
}

// averageCurrents takes the per-field arithmetic mean of the given current
// readings, ignoring nulls field by field. A field nobody reported stays nil.
func averageCurrents(currents []*Record) *Record {
	out := &Record{Source: "avg"}
	for _, c := range currents {
		if c.TS.After(out.TS) {
			out.TS = c.TS
		}
	}
	for _, f := range numericFields {
		var sum float64
		var n int
		for _, c := range currents {
			if v := f.get(c); v != nil {
				sum += *v
				n++
			}
		}
		if n > 0 {
			f.set(out, Float(sum/float64(n)))
		}
	}
	return out
}

// groupMeanByTimestamp collapses records sharing a timestamp into one record
// holding the per-field mean of the group's non-null values. Output is
// ordered by timestamp ascending. Textual fields keep the group's first
// non-empty value.
func groupMeanByTimestamp(records Series) Series {
	groups := make(map[int64]Series)
	var stamps []int64
	for i := range records {
		key := records[i].TS.Unix()
		if _, seen := groups[key]; !seen {
			stamps = append(stamps, key)
		}
		groups[key] = append(groups[key], records[i])
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	out := make(Series, 0, len(stamps))
	for _, key := range stamps {
		group := groups[key]
		rec := Record{TS: time.Unix(key, 0).UTC()}
		for _, f := range numericFields {
			var sum float64
			var n int
			for i := range group {
				if v := f.get(&group[i]); v != nil {
					sum += *v
					n++
				}
			}
			if n > 0 {
				f.set(&rec, Float(sum/float64(n)))
			}
		}
		for i := range group {
			if rec.WeatherDesc == "" {
				rec.WeatherDesc = group[i].WeatherDesc
			}
			if rec.Source == "" {
				rec.Source = group[i].Source
			}
		}
		out = append(out, rec)
	}
	return out
}

// orderedSources returns the result keys in deterministic order: the known
// priority order first, then any extra sources sorted by name.
func orderedSources(results map[string]Bundle) []string {
	var order []string
	seen := make(map[string]bool)
	for _, src := range DefaultPriority {
		if _, ok := results[src]; ok {
			order = append(order, src)
			seen[src] = true
		}
	}
	var extra []string
	for src := range results {
		if !seen[src] {
			extra = append(extra, src)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}
