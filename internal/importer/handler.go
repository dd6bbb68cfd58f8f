package importer

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// FormField is the multipart field carrying the CSV file.
const FormField = "file"

// Handler exposes the import endpoint.
type Handler struct {
	importer *Importer
}

// NewHandler builds an import HTTP handler.
func NewHandler(importer *Importer) *Handler {
	return &Handler{importer: importer}
}

type importResponse struct {
	Result
	Message string `json:"message"`
}

// Upload imports the uploaded CSV synchronously and reports the counts.
func (h *Handler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile(FormField)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, fmt.Sprintf("multipart field %q is required", FormField))
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		return fiber.NewError(http.StatusBadRequest, "send a valid .csv file")
	}

	f, err := fh.Open()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	res, err := h.importer.Import(c.UserContext(), f)
	switch {
	case err == nil:
	case errors.Is(err, ErrSource):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"error":  err.Error(),
			"result": res,
		})
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusOK).JSON(importResponse{
		Result:  res,
		Message: fmt.Sprintf("Importação concluída! %d novos e %d atualizados.", res.New, res.Updated),
	})
}
