package lookup

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/consultacpf/consulta-clientes/internal/store"
)

// Handler exposes the lookup endpoint.
type Handler struct {
	service *Service
}

// NewHandler builds a lookup HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type lookupRequest struct {
	Query string `json:"query"`
}

// Lookup answers a single query. A miss is a 200 with found=false.
func (h *Handler) Lookup(c *fiber.Ctx) error {
	var req lookupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Lookup(c.UserContext(), req.Query)
	switch {
	case err == nil:
		return c.Status(http.StatusOK).JSON(res)
	case errors.Is(err, ErrEmptyQuery):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
