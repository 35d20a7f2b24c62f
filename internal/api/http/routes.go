package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-diary/internal/common"
	"github.com/i474232898/weather-diary/internal/diary"
	"github.com/i474232898/weather-diary/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the diary handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *diary.Service) {
	v1 := app.Group("/api/v1")

	v1.Post("/create/diary", func(c *fiber.Ctx) error {
		date, err := parseDateQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		text, err := parseText(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entry, err := service.Create(c.UserContext(), date, text)
		if err != nil {
			return toHTTPError(err, "failed to create diary")
		}
		return c.Status(fiber.StatusCreated).JSON(entry)
	})

	v1.Get("/read/diary", func(c *fiber.Ctx) error {
		date, err := parseDateQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entries, err := service.Read(c.UserContext(), date)
		if err != nil {
			return toHTTPError(err, "failed to read diary")
		}
		return c.JSON(entries)
	})

	v1.Get("/read/diaries", func(c *fiber.Ctx) error {
		var q rangeQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entries, err := service.ReadRange(c.UserContext(), q.start, q.end)
		if err != nil {
			return toHTTPError(err, "failed to read diaries")
		}
		return c.JSON(entries)
	})

	v1.Put("/update/diary", func(c *fiber.Ctx) error {
		date, err := parseDateQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		text, err := parseText(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := service.Update(c.UserContext(), date, text); err != nil {
			return toHTTPError(err, "failed to update diary")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Delete("/delete/diary", func(c *fiber.Ctx) error {
		date, err := parseDateQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		n, err := service.Delete(c.UserContext(), date)
		if err != nil {
			return toHTTPError(err, "failed to delete diary")
		}
		return c.JSON(fiber.Map{"deleted": n})
	})
}

// ErrorHandler renders every handler error as {"error": true, "message": ...}.
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

func toHTTPError(err error, fallback string) error {
	switch {
	case errors.Is(err, diary.ErrInvalidDate):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, diary.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, weather.ErrParse):
		return fiber.NewError(fiber.StatusBadGateway, "weather provider returned a malformed response")
	case errors.Is(err, weather.ErrUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, "weather provider unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, fallback)
	default:
		slog.Error(fallback, "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, fallback)
	}
}

// dateQuery holds the single-date query parameter.
type dateQuery struct {
	Date string `validate:"required,datetime=2006-01-02"`
}

func parseDateQuery(c *fiber.Ctx) (time.Time, error) {
	q := dateQuery{Date: c.Query("date")}
	if err := validate.Struct(q); err != nil {
		return time.Time{}, err
	}
	return common.ParseDate(q.Date)
}

// rangeQuery holds query parameters for the range endpoint.
type rangeQuery struct {
	StartDate string `validate:"required,datetime=2006-01-02"`
	EndDate   string `validate:"required,datetime=2006-01-02"`

	start, end time.Time
}

func (r *rangeQuery) bind(c *fiber.Ctx) error {
	r.StartDate = c.Query("startDate")
	r.EndDate = c.Query("endDate")
	if err := validate.Struct(r); err != nil {
		return err
	}

	start, err := common.ParseDate(r.StartDate)
	if err != nil {
		return err
	}
	end, err := common.ParseDate(r.EndDate)
	if err != nil {
		return err
	}
	r.start, r.end = start, end
	return nil
}

// textBody is the raw request body carrying the diary text.
type textBody struct {
	Text string `validate:"required"`
}

func parseText(c *fiber.Ctx) (string, error) {
	b := textBody{Text: string(c.Body())}
	if err := validate.Struct(b); err != nil {
		return "", errors.New("diary text is required in the request body")
	}
	return b.Text, nil
}
