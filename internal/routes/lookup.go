package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/consultacpf/consulta-clientes/internal/lookup"
)

// RegisterLookupRoutes wires the customer lookup endpoint.
func RegisterLookupRoutes(r fiber.Router, h *lookup.Handler) {
	r.Post("/lookup", h.Lookup)
}
