package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/consultacpf/consulta-clientes/internal/importer"
)

// RegisterImportRoutes wires the CSV import endpoint, behind the idempotency
// middleware when one is given.
func RegisterImportRoutes(r fiber.Router, h *importer.Handler, idempotency fiber.Handler) {
	if idempotency != nil {
		r.Post("/import", idempotency, h.Upload)
		return
	}
	r.Post("/import", h.Upload)
}
