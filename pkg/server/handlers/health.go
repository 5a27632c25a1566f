package handlers

import (
	"net/http"
)

// ProviderLister exposes the registered provider names.
type ProviderLister interface {
	Names() []string
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	providers ProviderLister
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(providers ProviderLister) *HealthHandler {
	return &HealthHandler{providers: providers}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	if h.providers != nil {
		names = h.providers.Names()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"providers": names,
	})
}
