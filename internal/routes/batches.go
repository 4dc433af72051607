package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/txengine/internal/batch"
)

// RegisterBatchRoutes wires batch submission, account and export endpoints.
// Guards run in front of the state changing routes only.
func RegisterBatchRoutes(r fiber.Router, h *batch.Handler, guards ...fiber.Handler) {
	r.Post("/batches", guarded(guards, h.Submit)...)
	r.Post("/exports", guarded(guards, h.Export)...)
	r.Get("/accounts", h.Accounts)
	r.Get("/accounts/:client", h.Account)
}

func guarded(guards []fiber.Handler, h fiber.Handler) []fiber.Handler {
	chain := make([]fiber.Handler, 0, len(guards)+1)
	chain = append(chain, guards...)
	return append(chain, h)
}
