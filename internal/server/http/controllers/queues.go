package controllers

import (
	"errors"
	"net/http"

	"github.com/solanafuns/ddmonitor/internal/action"
	"github.com/solanafuns/ddmonitor/internal/address"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/queue"
	"github.com/solanafuns/ddmonitor/internal/runtime"
)

// QueuesController serves decoded queue records by name.
type QueuesController struct {
	rt *runtime.Runtime
}

func NewQueuesController(rt *runtime.Runtime) *QueuesController {
	return &QueuesController{rt: rt}
}

// RegisterRoutes sets up:
// - Queue address derivation (/v1/queues/{name}/address)
// - Decoded queue record and current action (/v1/queues/{name})
func (c *QueuesController) RegisterRoutes(handle Handle) {
	handle("GET /v1/queues/{name}/address", c.handleAddress)
	handle("GET /v1/queues/{name}", c.handleGet)
}

func (c *QueuesController) handleAddress(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	addr, bump, err := address.QueueAddress(c.rt.ProgramID(), name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]any{"name": name, "address": addr, "bump": bump})
}

// queueView is the JSON form of a decoded queue account.
type queueView struct {
	Name         string              `json:"name"`
	Address      identity.Identity   `json:"address"`
	Lamports     uint64              `json:"lamports"`
	Creator      identity.Identity   `json:"creator"`
	Allow        []identity.Identity `json:"allow"`
	Slots        int                 `json:"slots"`
	NeedDataSize uint64              `json:"need_data_size"`
	CreatedAt    int64               `json:"created_at"`
	LastChange   int64               `json:"last_change"`
	Data         []byte              `json:"data"`
	Action       map[string]any      `json:"action"`
}

func (c *QueuesController) handleGet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	addr, _, err := address.QueueAddress(c.rt.ProgramID(), name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := c.rt.Ledger().GetAccount(r.Context(), addr)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		writeError(w, http.StatusNotFound, "queue not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load queue")
		return
	}
	if a.Owner != c.rt.ProgramID() {
		writeError(w, http.StatusConflict, "account is not a queue")
		return
	}
	rec, err := queue.Decode(a.Data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, queueView{
		Name:         name,
		Address:      addr,
		Lamports:     a.Lamports,
		Creator:      rec.Creator,
		Allow:        rec.AllowList(),
		Slots:        len(rec.Allow),
		NeedDataSize: rec.NeedDataSize,
		CreatedAt:    rec.CreatedAt,
		LastChange:   rec.LastChange,
		Data:         rec.Data,
		Action:       action.Fields(action.DecodeOrNoop(rec.Data)),
	})
}
