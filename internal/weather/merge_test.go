package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	require.Equal(t, StrategyBest, ParseStrategy("best"))
	require.Equal(t, StrategyAvg, ParseStrategy("AVG"))
	require.Equal(t, StrategyDynamic, ParseStrategy(" dynamic "))
	require.Equal(t, StrategyWeighted, ParseStrategy("weighted"))
	require.Equal(t, StrategyBest, ParseStrategy(""))
	require.Equal(t, StrategyBest, ParseStrategy("no-such-strategy"))
}

func TestMergeBestPriorityOrder(t *testing.T) {
	ts := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	results := map[string]Bundle{
		SourceOpenMeteo: {
			Current: &Record{TS: ts, Temp: Float(28), Source: SourceOpenMeteo},
		},
		SourceOpenWeather: {
			Current: &Record{TS: ts, Temp: Float(31), Source: SourceOpenWeather},
		},
	}

	merged := Merge(results, StrategyBest, NewTracker())
	require.NotNil(t, merged.Current)
	require.Equal(t, SourceOpenMeteo, merged.Current.Source)
	require.Equal(t, 28.0, *merged.Current.Temp)
}

// Field-groups are won independently: a source missing a current reading can
// still supply the hourly series.
func TestMergeBestIndependentGroups(t *testing.T) {
	ts := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	results := map[string]Bundle{
		SourceWeatherAPI: {
			Current: &Record{TS: ts, Temp: Float(30), Source: SourceWeatherAPI},
		},
		SourceOpenMeteo: {
			Hourly: Series{{TS: ts, Temp: Float(29), Source: SourceOpenMeteo}},
		},
	}

	merged := Merge(results, StrategyBest, NewTracker())
	require.Equal(t, SourceWeatherAPI, merged.Current.Source)
	require.Len(t, merged.Hourly, 1)
	require.Equal(t, SourceOpenMeteo, merged.Hourly[0].Source)
}

// A current record whose temperature is null is skipped by best, even when
// the source is higher priority.
func TestMergeBestSkipsNullTemp(t *testing.T) {
	ts := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	results := map[string]Bundle{
		SourceWeatherAPI: {
			Current: &Record{TS: ts, Humidity: Float(80), Source: SourceWeatherAPI},
		},
		SourceOpenMeteo: {
			Current: &Record{TS: ts, Temp: Float(27), Source: SourceOpenMeteo},
		},
	}

	merged := Merge(results, StrategyBest, NewTracker())
	require.Equal(t, SourceOpenMeteo, merged.Current.Source)
}

func TestMergeAverageIgnoresNulls(t *testing.T) {
	ts := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	results := map[string]Bundle{
		SourceWeatherAPI: {
			Current: &Record{TS: ts, Temp: Float(30), Humidity: Float(70)},
		},
		SourceOpenMeteo: {
			Current: &Record{TS: ts, Temp: Float(32)},
		},
	}

	merged := Merge(results, StrategyAvg, NewTracker())
	require.NotNil(t, merged.Current)
	require.InDelta(t, 31.0, *merged.Current.Temp, 1e-9)
	// Humidity came from one source only; the mean is over one value.
	require.InDelta(t, 70.0, *merged.Current.Humidity, 1e-9)
	require.Nil(t, merged.Current.Pressure)
}

func TestMergeAverageSeriesGroupsByTimestamp(t *testing.T) {
	t0 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	results := map[string]Bundle{
		SourceWeatherAPI: {
			Hourly: Series{
				{TS: t0, Temp: Float(28)},
				{TS: t1, Temp: Float(29)},
			},
		},
		SourceOpenMeteo: {
			Hourly: Series{
				{TS: t0, Temp: Float(30)},
			},
		},
	}

	merged := Merge(results, StrategyAvg, NewTracker())
	require.Len(t, merged.Hourly, 2)
	require.InDelta(t, 29.0, *merged.Hourly[0].Temp, 1e-9)
	require.InDelta(t, 29.0, *merged.Hourly[1].Temp, 1e-9)
}

func TestMergeWeightedCurrent(t *testing.T) {
	ts := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewTrackerWithScores(map[string]float64{
		SourceWeatherAPI: 1.0,
		SourceOpenMeteo:  1.0,
	}, []string{SourceWeatherAPI, SourceOpenMeteo})

	results := map[string]Bundle{
		SourceWeatherAPI: {Current: &Record{TS: ts, Temp: Float(25)}},
		SourceOpenMeteo:  {Current: &Record{TS: ts, Temp: Float(30)}},
	}

	merged := Merge(results, StrategyWeighted, tracker)
	require.NotNil(t, merged.Current)
	require.InDelta(t, 27.5, *merged.Current.Temp, 1e-9)
	require.Equal(t, "weighted", merged.Current.Source)
}

// With unequal weights the combined value leans toward the more reliable
// source.
func TestMergeWeightedUnequalWeights(t *testing.T) {
	ts := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewTrackerWithScores(map[string]float64{
		SourceWeatherAPI: 2.0,
		SourceOpenMeteo:  1.0,
	}, []string{SourceWeatherAPI, SourceOpenMeteo})

	results := map[string]Bundle{
		SourceWeatherAPI: {Current: &Record{TS: ts, Temp: Float(24)}},
		SourceOpenMeteo:  {Current: &Record{TS: ts, Temp: Float(30)}},
	}

	merged := Merge(results, StrategyWeighted, tracker)
	// (24*2 + 30*1) / 3 = 26
	require.InDelta(t, 26.0, *merged.Current.Temp, 1e-9)
}

// With equal weights everywhere, weighted degrades to the plain average for
// fields every contributor reported.
func TestMergeWeightedEqualsAvgForEqualWeights(t *testing.T) {
	t0 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	tracker := NewTrackerWithScores(map[string]float64{
		SourceWeatherAPI: 1.0,
		SourceOpenMeteo:  1.0,
	}, []string{SourceWeatherAPI, SourceOpenMeteo})

	results := map[string]Bundle{
		SourceWeatherAPI: {
			Hourly: Series{{TS: t0, Temp: Float(20), Rain: Float(1)}},
		},
		SourceOpenMeteo: {
			Hourly: Series{{TS: t0, Temp: Float(26), Rain: Float(3)}},
		},
	}

	weighted := Merge(results, StrategyWeighted, tracker)
	avg := Merge(results, StrategyAvg, tracker)

	require.Len(t, weighted.Hourly, 1)
	require.InDelta(t, *avg.Hourly[0].Temp, *weighted.Hourly[0].Temp, 1e-9)
	require.InDelta(t, *avg.Hourly[0].Rain, *weighted.Hourly[0].Rain, 1e-9)
}

func TestMergeDynamicFollowsReliability(t *testing.T) {
	ts := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewTrackerWithScores(map[string]float64{
		SourceWeatherAPI:  0.2,
		SourceOpenMeteo:   1.8,
		SourceOpenWeather: 0.5,
	}, DefaultPriority)

	results := map[string]Bundle{
		SourceWeatherAPI: {Current: &Record{TS: ts, Temp: Float(30), Source: SourceWeatherAPI}},
		SourceOpenMeteo:  {Current: &Record{TS: ts, Temp: Float(28), Source: SourceOpenMeteo}},
	}

	merged := Merge(results, StrategyDynamic, tracker)
	require.Equal(t, SourceOpenMeteo, merged.Current.Source)
}

func TestMergeEmptyResults(t *testing.T) {
	tracker := NewTracker()
	for _, s := range []Strategy{StrategyBest, StrategyAvg, StrategyDynamic, StrategyWeighted} {
		merged := Merge(map[string]Bundle{}, s, tracker)
		require.True(t, merged.Empty(), "strategy %s should produce an empty bundle", s)
	}
}

func TestCollectSeriesDropsAllNull(t *testing.T) {
	t0 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	results := map[string]Bundle{
		SourceWeatherAPI: {
			Hourly: Series{{TS: t0}, {TS: t0.Add(time.Hour)}},
		},
		SourceOpenMeteo: {
			Hourly: Series{{TS: t0, Temp: Float(25)}},
		},
	}

	merged := Merge(results, StrategyAvg, NewTracker())
	require.Len(t, merged.Hourly, 1)
	require.InDelta(t, 25.0, *merged.Hourly[0].Temp, 1e-9)
}
