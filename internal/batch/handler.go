package batch

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/txengine/internal/ingest"
	"github.com/congo-pay/txengine/internal/report"
	"github.com/congo-pay/txengine/internal/transaction"
)

// Handler exposes batch and account endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a batch handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Submit replays the CSV request body as one batch.
func (h *Handler) Submit(c *fiber.Ctx) error {
	summary, err := h.service.Submit(c.UserContext(), bytes.NewReader(c.Body()))
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidInput) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(summary)
}

// Accounts returns every account, as JSON or as CSV with ?format=csv.
func (h *Handler) Accounts(c *fiber.Ctx) error {
	rows := h.service.Accounts()
	if c.Query("format") == "csv" {
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, rows); err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return c.Status(http.StatusOK).Send(buf.Bytes())
	}
	return c.Status(http.StatusOK).JSON(rows)
}

// Account returns a single account.
func (h *Handler) Account(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("client"), 10, 16)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid client id")
	}
	row, ok := h.service.Account(transaction.ClientID(id))
	if !ok {
		return fiber.NewError(http.StatusNotFound, "account not found")
	}
	return c.Status(http.StatusOK).JSON(row)
}

// Export pushes the current snapshot to the configured sinks.
func (h *Handler) Export(c *fiber.Ctx) error {
	sinks, err := h.service.Export(c.UserContext())
	if err != nil {
		if errors.Is(err, ErrNoSinks) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"accounts": len(h.service.Accounts()),
		"sinks":    sinks,
	})
}
