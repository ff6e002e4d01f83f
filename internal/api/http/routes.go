package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/weatherpro/weather-ensemble/internal/alerts"
	"github.com/weatherpro/weather-ensemble/internal/observability"
	"github.com/weatherpro/weather-ensemble/internal/store"
	"github.com/weatherpro/weather-ensemble/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, cache *store.MemoryStore, metrics *observability.Metrics) {
	v1 := app.Group("/api/v1")

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		req, err := parseCoordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		// Unknown strategy names fall back to "best" rather than erroring.
		strategy := weather.ParseStrategy(c.Query("strategy"))

		bundle := service.PrepareForecast(c.Context(), req.Lat, req.Lon, strategy)
		return c.JSON(fiber.Map{
			"strategy": strategy.String(),
			"current":  bundle.Current,
			"hourly":   bundle.Hourly,
			"daily":    bundle.Daily,
		})
	})

	v1.Get("/alerts", func(c *fiber.Ctx) error {
		req, err := parseCoordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		strategy := weather.ParseStrategy(c.Query("strategy"))
		bundle := service.PrepareForecast(c.Context(), req.Lat, req.Lon, strategy)
		detected := alerts.Detect(bundle)

		if metrics != nil {
			for _, a := range detected {
				metrics.AlertsDetected.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
			}
		}

		return c.JSON(fiber.Map{
			"strategy": strategy.String(),
			"alerts":   detected,
		})
	})

	v1.Get("/reliability", func(c *fiber.Ctx) error {
		return c.JSON(service.ReliabilityReport())
	})

	v1.Get("/cached", func(c *fiber.Ctx) error {
		req, err := parseCoordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entry, err := cache.GetLatest(weather.Location{Lat: req.Lat, Lon: req.Lon})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no cached forecast for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast cache")
		}
		return c.JSON(entry)
	})

	v1.Get("/cached/history", func(c *fiber.Ctx) error {
		req, err := parseCoordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		from, to, err := parseRangeQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entries, err := cache.GetRange(weather.Location{Lat: req.Lat, Lon: req.Lon}, from, to)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no cached forecasts for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast cache")
		}
		return c.JSON(fiber.Map{
			"from":    from,
			"to":      to,
			"entries": entries,
		})
	})
}

// coordQuery holds the lat/lon query parameters every endpoint takes.
type coordQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

func parseCoordQuery(c *fiber.Ctx) (coordQuery, error) {
	var q coordQuery

	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return q, errors.New("lat and lon query parameters are required")
	}

	var err error
	if q.Lat, err = strconv.ParseFloat(latStr, 64); err != nil {
		return q, errors.New("lat must be a number")
	}
	if q.Lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return q, errors.New("lon must be a number")
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func parseRangeQuery(c *fiber.Ctx) (time.Time, time.Time, error) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}
	return from, to, nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
