// Package persona exposes the configured assistant personas.
package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/teams-relay/backend/internal/model/persona"
	"github.com/zhouzirui/teams-relay/backend/pkg/utils"
)

// Handler serves the persona listing.
type Handler struct {
	personas persona.Store
	activeID string
}

// New creates the handler; activeID is the persona seeding new sessions.
func New(personas persona.Store, activeID string) *Handler {
	return &Handler{
		personas: personas,
		activeID: activeID,
	}
}

// RegisterRoutes mounts the persona routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
	r.Get("/personas/{personaID}", h.handleGetPersona)
}

type listResponse struct {
	Active   string            `json:"active"`
	Personas []persona.Persona `json:"personas"`
}

func (h *Handler) handleListPersonas(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, listResponse{
		Active:   h.activeID,
		Personas: h.personas.List(),
	})
}

func (h *Handler) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	p, ok := h.personas.FindByID(chi.URLParam(r, "personaID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}
