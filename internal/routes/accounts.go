package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/consultacpf/consulta-clientes/internal/account"
)

// RegisterAccountRoutes wires account management endpoints.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler) {
	r.Get("/accounts", h.List)
	r.Post("/accounts", h.Create)
	r.Put("/accounts/:id", h.Update)
	r.Delete("/accounts/:id", h.Delete)
}
