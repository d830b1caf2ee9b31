package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"inventario/internal/models"

	"github.com/gorilla/mux"
)

type HTTP struct{ svc *Service }

func NewHTTP(s *Service) *HTTP { return &HTTP{svc: s} }

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/auth/login", h.login).Methods(http.MethodPost)
}

func (h *HTTP) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Username == "" || in.Password == "" {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_body", "", "need {username, password}")
		return
	}
	tok, exp, err := h.svc.Login(r.Context(), in.Username, in.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		models.WriteProblem(w, http.StatusUnauthorized, "invalid_credentials", "", err.Error())
		return
	}
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusOK, map[string]any{
		"token":      tok,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}
