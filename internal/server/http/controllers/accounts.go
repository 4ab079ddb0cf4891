package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/runtime"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

// AccountsController exposes raw accounts and their change streams.
type AccountsController struct {
	rt     *runtime.Runtime
	logger log.Logger
}

func NewAccountsController(rt *runtime.Runtime) *AccountsController {
	return &AccountsController{rt: rt, logger: rt.Logger().WithComponent("http")}
}

// RegisterRoutes sets up:
// - Account lookup (/v1/accounts/{addr})
// - Account change stream over SSE (/v1/accounts/subscribe?address=&from_seq=)
func (c *AccountsController) RegisterRoutes(handle Handle) {
	handle("GET /v1/accounts/subscribe", c.handleSubscribeSSE)
	handle("GET /v1/accounts/{addr}", c.handleGet)
}

func (c *AccountsController) handleGet(w http.ResponseWriter, r *http.Request) {
	addr, err := identity.Parse(r.PathValue("addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}
	a, err := c.rt.Ledger().GetAccount(r.Context(), addr)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}
	writeJSON(w, map[string]any{"address": addr, "slot": c.rt.Ledger().Slot(), "account": a})
}

// handleSubscribeSSE streams every committed snapshot of an address as an
// SSE data event until the client disconnects.
func (c *AccountsController) handleSubscribeSSE(w http.ResponseWriter, r *http.Request) {
	addr, err := identity.Parse(r.URL.Query().Get("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}
	var from uint64
	if s := r.URL.Query().Get("from_seq"); s != "" {
		if from, err = strconv.ParseUint(s, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid from_seq")
			return
		}
	}
	sink := sseSink{w: w}
	sink.start()
	err = c.rt.Ledger().Subscribe(r.Context(), addr, from, func(u ledger.Update) error {
		if err := sink.Send(u); err != nil {
			return err
		}
		return sink.Flush()
	})
	if err != nil && r.Context().Err() == nil {
		c.logger.Warn("subscription ended", log.Stringer("address", addr), log.Err(err))
	}
}
