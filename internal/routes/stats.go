package routes

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/consultacpf/consulta-clientes/internal/customer"
	"github.com/consultacpf/consulta-clientes/internal/store"
)

type statsSource interface {
	Stats(ctx context.Context) (customer.Stats, error)
}

// RegisterStatsRoutes wires the admin dashboard numbers.
func RegisterStatsRoutes(r fiber.Router, customers statsSource, db store.DB) {
	r.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := customers.Stats(c.UserContext())
		if err != nil {
			return fiber.NewError(http.StatusServiceUnavailable, err.Error())
		}
		size, err := db.SizeBytes(c.UserContext())
		if err != nil {
			return fiber.NewError(http.StatusServiceUnavailable, err.Error())
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"customers":  stats.Customers,
			"phones":     stats.Phones,
			"engine":     db.Engine(),
			"size_bytes": size,
			"size_mb":    float64(size*100/(1024*1024)) / 100,
		})
	})
}
