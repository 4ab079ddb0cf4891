package controllers

import (
	"net/http"

	"github.com/solanafuns/ddmonitor/internal/runtime"
)

// Handle registers h under pattern.
type Handle func(pattern string, h http.HandlerFunc)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	rt       *runtime.Runtime
	general  *GeneralController
	accounts *AccountsController
	queues   *QueuesController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime) *ControllerRegistry {
	return &ControllerRegistry{
		rt:       rt,
		general:  NewGeneralController(rt),
		accounts: NewAccountsController(rt),
		queues:   NewQueuesController(rt),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
// Every route is wrapped with the runtime's request metrics, labelled by
// its pattern.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	m := r.rt.Metrics()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, m.Middleware(pattern, h))
	}
	r.general.RegisterRoutes(handle)
	r.accounts.RegisterRoutes(handle)
	r.queues.RegisterRoutes(handle)
	mux.Handle("GET /metrics", m.Handler())
}
