package ipam

import (
	"encoding/json"
	"net/http"

	"inventario/internal/models"

	"github.com/gorilla/mux"
)

type HTTP struct{ repo *Repo }

func NewHTTP(r *Repo) *HTTP { return &HTTP{repo: r} }

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1/ipam").Subrouter()

	// POST /api/v1/ipam/ranges  { cidr, note }
	api.HandleFunc("/ranges", h.importRange).Methods(http.MethodPost)
}

func (h *HTTP) importRange(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CIDR string `json:"cidr"`
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.CIDR == "" {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_body", "cidr", "invalid body (need {cidr, note})")
		return
	}
	res, err := h.repo.ImportRange(r.Context(), in.CIDR, in.Note)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusCreated, res)
}
