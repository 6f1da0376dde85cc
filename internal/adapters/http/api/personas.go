// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// PersonasHandler handles persona listing requests.
type PersonasHandler struct {
	deps Dependencies
}

// NewPersonasHandler creates a new personas handler.
func NewPersonasHandler(deps Dependencies) *PersonasHandler {
	return &PersonasHandler{deps: deps}
}

// personasResponse mirrors the HTTP schema for GET /personas.
type personasResponse struct {
	Default  string `json:"default"`
	Personas any    `json:"personas"`
}

// HandleGetPersonas handles GET /personas requests.
func (h *PersonasHandler) HandleGetPersonas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, personasResponse{
		Default:  h.deps.DefaultPersona(),
		Personas: h.deps.Personas(),
	})
}
