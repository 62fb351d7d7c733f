package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// Middleware collects HTTP request metrics. Paths are labelled by route
// pattern so query strings and ids do not explode the label set.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}
		// Label values outlive the request, so none may point into its buffer.
		method := utils.CopyString(c.Method())
		path := utils.CopyString(c.Route().Path)

		HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}
