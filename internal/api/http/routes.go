package httpapi

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-anomaly/internal/anomaly"
	"github.com/i474232898/weather-anomaly/internal/series"
	"github.com/i474232898/weather-anomaly/internal/store"
	"github.com/i474232898/weather-anomaly/internal/weather"
	"github.com/i474232898/weather-anomaly/internal/weather/providers"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Post("/datasets", func(c *fiber.Ctx) error {
		source, body, err := readUpload(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ds, err := service.ImportCSV(source, body)
		if err != nil {
			return mapError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(ds.Summary())
	})

	v1.Get("/datasets", func(c *fiber.Ctx) error {
		datasets := service.Datasets()
		out := make([]weather.DatasetSummary, 0, len(datasets))
		for _, ds := range datasets {
			out = append(out, ds.Summary())
		}
		return c.JSON(out)
	})

	v1.Get("/datasets/:id/observations", func(c *fiber.Ctx) error {
		ds, err := service.Dataset(c.Params("id"))
		if err != nil {
			return mapError(err)
		}

		city := c.Query("city")
		anomaliesOnly := c.QueryBool("anomalies", false)

		out := make([]anomaly.EnrichedObservation, 0)
		for _, o := range ds.Result.Observations {
			if city != "" && o.City != city {
				continue
			}
			if anomaliesOnly && !o.IsAnomaly {
				continue
			}
			out = append(out, o)
		}

		return c.JSON(fiber.Map{
			"datasetId":    ds.ID,
			"observations": out,
		})
	})

	v1.Get("/datasets/:id/baselines", func(c *fiber.Ctx) error {
		ds, err := service.Dataset(c.Params("id"))
		if err != nil {
			return mapError(err)
		}

		baselines := ds.Result.Baselines.List()
		if city := c.Query("city"); city != "" {
			baselines = ds.Result.Baselines.ForCity(city)
		}
		if baselines == nil {
			baselines = []anomaly.Baseline{}
		}

		return c.JSON(fiber.Map{
			"datasetId": ds.ID,
			"baselines": baselines,
		})
	})

	v1.Get("/datasets/:id/distribution", func(c *fiber.Ctx) error {
		city := c.Query("city")
		if city == "" {
			return fiber.NewError(fiber.StatusBadRequest, "city query parameter is required")
		}

		ds, err := service.Dataset(c.Params("id"))
		if err != nil {
			return mapError(err)
		}

		return c.JSON(fiber.Map{
			"datasetId": ds.ID,
			"city":      city,
			"seasons":   anomaly.Distribution(ds.Result.Observations, city),
		})
	})

	v1.Post("/datasets/:id/classify", func(c *fiber.Ctx) error {
		var req classifyRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := service.Classify(c.Params("id"), req.City, req.Season, *req.Temperature)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(result)
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		locReq, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		check, err := service.CheckCurrent(c.UserContext(), c.Query("dataset"), locReq.toLocation(), c.Query("season"))
		if err != nil {
			return mapError(err)
		}

		return c.JSON(check)
	})

	v1.Get("/weather/checks", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := req.Location.toLocation()
		checks, err := service.Checks(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no live checks for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch live checks")
		}

		return c.JSON(fiber.Map{
			"location": loc,
			"from":     req.From,
			"to":       req.To,
			"checks":   checks,
		})
	})
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// mapError turns service errors into HTTP errors.
func mapError(err error) error {
	var (
		malformed  *series.MalformedInputError
		noBaseline *anomaly.BaselineNotFoundError
		apiErr     *providers.APIError
	)

	switch {
	case errors.As(err, &malformed):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &noBaseline):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "dataset not found")
	case errors.As(err, &apiErr):
		// Show the provider's own message, e.g. "city not found".
		return fiber.NewError(fiber.StatusBadGateway, apiErr.Message)
	case errors.Is(err, weather.ErrNoProviders):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, weather.ErrProvidersFailed):
		return fiber.NewError(fiber.StatusBadGateway, "failed to fetch live weather")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}
}

// readUpload returns the uploaded CSV either from a multipart "file" field or
// from the raw request body.
func readUpload(c *fiber.Ctx) (string, io.Reader, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return "", nil, err
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return "", nil, err
		}
		return fh.Filename, bytes.NewReader(data), nil
	}

	body := c.Body()
	if len(body) == 0 {
		return "", nil, errors.New("empty upload; send a CSV body or a multipart \"file\" field")
	}
	source := c.Query("name", "upload.csv")
	// fasthttp reuses the body buffer after the handler returns.
	return source, bytes.NewReader(append([]byte(nil), body...)), nil
}

// classifyRequest is the body of the classify endpoint.
type classifyRequest struct {
	City        string   `json:"city" validate:"required"`
	Season      string   `json:"season" validate:"required"`
	Temperature *float64 `json:"temperature" validate:"required"`
}

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	City    string `validate:"required"`
	Country string
}

func (l locationQuery) toLocation() weather.Location {
	return weather.Location{
		City:    l.City,
		Country: l.Country,
	}
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	var q locationQuery

	q.City = c.Query("city")
	q.Country = c.Query("country")

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// historyQuery holds query parameters for the checks endpoint.
type historyQuery struct {
	Location locationQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
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
