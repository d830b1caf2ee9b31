package catalog

import (
	"net/http"

	"inventario/internal/models"

	"github.com/gorilla/mux"
)

type HTTP struct{ repo *Repo }

func NewHTTP(r *Repo) *HTTP { return &HTTP{repo: r} }

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()
	// GET /api/v1/statuses?scope=equipo
	api.HandleFunc("/statuses", h.listStatuses).Methods(http.MethodGet)
	api.HandleFunc("/statuses/codes", h.codes).Methods(http.MethodGet)
}

func (h *HTTP) codes(w http.ResponseWriter, r *http.Request) {
	c, err := h.repo.Codes(r.Context())
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusOK, c)
}

func (h *HTTP) listStatuses(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.ListStatuses(r.Context(), r.URL.Query().Get("scope"))
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteList(w, out)
}
