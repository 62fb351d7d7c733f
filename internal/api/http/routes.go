package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-legend/internal/audit"
	"github.com/i474232898/weather-legend/internal/legend"
	"github.com/i474232898/weather-legend/internal/logger"
	"github.com/i474232898/weather-legend/internal/metrics"
	"github.com/i474232898/weather-legend/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, registry *legend.Registry, audits *audit.Service) {
	resolver := legend.NewResolver(registry)
	v1 := app.Group("/api/v1")

	v1.Get("/providers", func(c *fiber.Ctx) error {
		ids := registry.Providers()
		out := make([]providerInfo, 0, len(ids))
		for _, id := range ids {
			s := registry.Store(id)
			out = append(out, providerInfo{
				Provider: id,
				Records:  s.Len(),
				Patched:  s.Provider() != "",
			})
		}
		return c.JSON(fiber.Map{"providers": out})
	})

	v1.Get("/legends/resolve", func(c *fiber.Ctx) error {
		q, err := parseResolveQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		kind, err := legend.ParseKind(q.Kind)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		// Label values must not alias the request buffer.
		provider, ok := registry.ID(q.Provider)
		if !ok {
			provider = metrics.ProviderUnregistered
		}

		d, err := resolver.Resolve(q.Provider, q.ID, kind)
		if err != nil {
			if errors.Is(err, legend.ErrUnresolved) {
				metrics.Resolutions.WithLabelValues(provider, string(kind), metrics.ResultMiss).Inc()
				logger.FromContext(c.UserContext()).Debug("unresolved symbol", "provider", q.Provider, "kind", kind, "id", q.ID)
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			metrics.Resolutions.WithLabelValues(provider, string(kind), metrics.ResultError).Inc()
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		metrics.Resolutions.WithLabelValues(provider, string(kind), metrics.ResultOK).Inc()

		return c.JSON(d.WithIcons())
	})

	v1.Get("/reports/latest", func(c *fiber.Ctx) error {
		provider := c.Query("provider", audit.BaseProvider)
		report, err := audits.Latest(c.UserContext(), provider)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no verification report for requested provider")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch verification report")
		}
		return c.JSON(report)
	})

	v1.Get("/reports/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		reports, err := audits.History(c.UserContext(), req.Provider, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no verification reports for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch verification reports")
		}

		return c.JSON(fiber.Map{
			"provider": req.Provider,
			"from":     req.From,
			"to":       req.To,
			"reports":  reports,
		})
	})

	v1.Post("/reports/run", func(c *fiber.Ctx) error {
		reports, err := audits.Run(c.UserContext())
		if err != nil {
			logger.FromContext(c.UserContext()).Error("manual verification failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "verification run failed")
		}
		return c.JSON(fiber.Map{"reports": reports})
	})
}

type providerInfo struct {
	Provider string `json:"provider"`
	Records  int    `json:"records"`
	Patched  bool   `json:"patched"`
}

// resolveQuery holds query parameters for the resolve endpoint.
type resolveQuery struct {
	Provider string `validate:"required"`
	Kind     string `validate:"required,oneof=legend_code old_id symbol_id"`
	ID       string `validate:"required"`
}

func parseResolveQuery(c *fiber.Ctx) (resolveQuery, error) {
	q := resolveQuery{
		Provider: c.Query("provider"),
		Kind:     c.Query("kind", string(legend.KindSymbolID)),
		ID:       c.Query("id"),
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Provider string    `validate:"required"`
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.Provider = c.Query("provider", audit.BaseProvider)

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
