package weather

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/weatherpro/weather-ensemble/internal/observability"
)

// Defaults for how much forecast data one orchestration call requests.
const (
	DefaultHourlyHours = 24
	DefaultDailyDays   = 10
)

// Fetcher abstracts one upstream weather source. Implementations translate
// upstream HTTP or payload failures into an error return; they never panic
// across this boundary.
type Fetcher interface {
	Name() string
	FetchCurrent(ctx context.Context, lat, lon float64) (*Record, error)
	FetchHourly(ctx context.Context, lat, lon float64, hours int) (Series, error)
	FetchDaily(ctx context.Context, lat, lon float64, days int) (Series, error)
}

// Service is the orchestration entry point consumed by the bulletin and
// alert layers: it fetches every configured source, normalizes each series,
// merges them under the requested strategy, and feeds the reliability
// tracker after every call.
type Service struct {
	sources []Fetcher
	tracker *Tracker
	metrics *observability.Metrics

	sourceTimeout time.Duration
	hours         int
	days          int
}

// NewService creates a Service. The tracker must be shared across calls for
// the dynamic and weighted strategies to accumulate signal; metrics may be
// nil to disable instrumentation.
func NewService(sources []Fetcher, tracker *Tracker, metrics *observability.Metrics, sourceTimeout time.Duration) *Service {
	if sourceTimeout <= 0 {
		sourceTimeout = 20 * time.Second
	}
	return &Service{
		sources:       sources,
		tracker:       tracker,
		metrics:       metrics,
		sourceTimeout: sourceTimeout,
		hours:         DefaultHourlyHours,
		days:          DefaultDailyDays,
	}
}

// PrepareForecast fetches current/hourly/daily from every source
// concurrently, reconciles them into one bundle under the strategy, and
// updates the reliability tracker with the per-source current readings.
//
// A single source's failure never aborts the others: it degrades to absence
// for that source, and a fully-failed call returns an empty bundle rather
// than an error. Each source fetch is bounded by its own timeout.
func (s *Service) PrepareForecast(ctx context.Context, lat, lon float64, strategy Strategy) Bundle {
	results := s.collectSources(ctx, lat, lon)

	merged := Merge(results, strategy, s.tracker)

	// Update reliability after every merge, whatever the strategy, so the
	// dynamic and weighted strategies see fresh scores on the next call.
	s.tracker.Update(results)
	s.publishReliability()

	if s.metrics != nil {
		s.metrics.MergeCalls.WithLabelValues(strategy.String()).Inc()
	}
	if merged.Empty() {
		log.Printf("no source produced any data for %.4f,%.4f", lat, lon)
	}
	return merged
}

// ReliabilityReport snapshots per-source trust scores and deviation counts.
func (s *Service) ReliabilityReport() []SourceReliability {
	return s.tracker.Report()
}

// collectSources runs the per-source fetches concurrently and returns the
// per-source bundles, already normalized. Missing or failed field-groups are
// simply absent from the source's bundle.
func (s *Service) collectSources(ctx context.Context, lat, lon float64) map[string]Bundle {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]Bundle, len(s.sources))
	)

	for _, src := range s.sources {
		wg.Add(1)
		go func(src Fetcher) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
			defer cancel()

			bundle := s.fetchSource(fetchCtx, src, lat, lon)

			mu.Lock()
			results[src.Name()] = bundle
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	return results
}

func (s *Service) fetchSource(ctx context.Context, src Fetcher, lat, lon float64) Bundle {
	var bundle Bundle
	started := time.Now()

	current, err := src.FetchCurrent(ctx, lat, lon)
	s.countFetch(src.Name(), "current", err)
	if err != nil {
		log.Printf("source %s current fetch failed for %.4f,%.4f: %v", src.Name(), lat, lon, err)
	} else {
		bundle.Current = current
	}

	hourly, err := src.FetchHourly(ctx, lat, lon, s.hours)
	s.countFetch(src.Name(), "hourly", err)
	if err != nil {
		log.Printf("source %s hourly fetch failed for %.4f,%.4f: %v", src.Name(), lat, lon, err)
	} else if len(hourly) > 0 {
		normalized, nerr := Normalize(hourly, CadenceHourly)
		if nerr != nil {
			// The source stays available for the other field-groups.
			log.Printf("source %s hourly series unusable: %v", src.Name(), nerr)
		} else {
			bundle.Hourly = normalized
		}
	}

	daily, err := src.FetchDaily(ctx, lat, lon, s.days)
	s.countFetch(src.Name(), "daily", err)
	if err != nil {
		log.Printf("source %s daily fetch failed for %.4f,%.4f: %v", src.Name(), lat, lon, err)
	} else if len(daily) > 0 {
		bundle.Daily = NormalizeDailySchema(daily)
	}

	if s.metrics != nil {
		s.metrics.SourceFetchDuration.WithLabelValues(src.Name()).Observe(time.Since(started).Seconds())
	}
	return bundle
}

func (s *Service) countFetch(source, group string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.SourceFetches.WithLabelValues(source, group, outcome).Inc()
}

func (s *Service) publishReliability() {
	if s.metrics == nil {
		return
	}
	for _, row := range s.tracker.Report() {
		s.metrics.ReliabilityScore.WithLabelValues(row.Source).Set(row.ReliabilityScore)
	}
}
