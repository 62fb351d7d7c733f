package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "missing" {
			return fiber.NewError(fiber.StatusNotFound, "no such item")
		}
		return c.SendString("ok")
	})

	ok := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "200")
	notFound := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "404")
	okBefore, notFoundBefore := testutil.ToFloat64(ok), testutil.ToFloat64(notFound)

	for _, path := range []string{"/items/1", "/items/2", "/items/missing"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, okBefore+2, testutil.ToFloat64(ok))
	assert.Equal(t, notFoundBefore+1, testutil.ToFloat64(notFound))
}
