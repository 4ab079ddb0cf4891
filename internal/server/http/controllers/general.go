package controllers

import (
	"net/http"

	"github.com/solanafuns/ddmonitor/internal/runtime"
)

// GeneralController serves health and host information.
type GeneralController struct {
	rt *runtime.Runtime
}

func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

// RegisterRoutes sets up:
// - Health checks (/v1/healthz)
// - Host information (/v1/info)
func (c *GeneralController) RegisterRoutes(handle Handle) {
	handle("GET /v1/healthz", c.handleHealth)
	handle("GET /v1/info", c.handleInfo)
}

// handleHealth returns 200 with {"status": "ok"} if healthy, 503 otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]any{"status": "ok", "slot": c.rt.Ledger().Slot()})
}

func (c *GeneralController) handleInfo(w http.ResponseWriter, _ *http.Request) {
	cfg := c.rt.Config()
	rent := c.rt.Ledger().Rent()
	writeJSON(w, map[string]any{
		"program_id":             c.rt.ProgramID().String(),
		"slot":                   c.rt.Ledger().Slot(),
		"lamports_per_byte_year": rent.LamportsPerByteYear,
		"exemption_threshold":    rent.ExemptionThreshold,
		"faucet_enabled":         cfg.Faucet.Enabled,
	})
}
