package maintenance

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"inventario/internal/apperr"
	"inventario/internal/models"

	"github.com/gorilla/mux"
)

type HTTP struct{ store *Store }

func NewHTTP(s *Store) *HTTP { return &HTTP{store: s} }

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/mantenimientos", h.open).Methods(http.MethodPost)
	api.HandleFunc("/mantenimientos", h.list).Methods(http.MethodGet)
	api.HandleFunc("/mantenimientos/{id:[0-9]+}", h.get).Methods(http.MethodGet)
	api.HandleFunc("/mantenimientos/{id:[0-9]+}/close", h.close).Methods(http.MethodPut, http.MethodPost)
}

func pathID(r *http.Request) (uint, bool) {
	u, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || u == 0 {
		return 0, false
	}
	return uint(u), true
}

// parseTime: RFC3339 или дата "2006-01-02".
func parseTime(field, s string) (time.Time, error) {
	for _, l := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(l, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation("invalid_format", field)
}

func (h *HTTP) open(w http.ResponseWriter, r *http.Request) {
	var b struct {
		EquipmentID uint   `json:"equipment_id"`
		Description string `json:"description"`
		Technician  string `json:"technician"`
		StartTime   string `json:"start_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_body", "", "invalid json")
		return
	}
	in := OpenInput{EquipmentID: b.EquipmentID, Description: b.Description, Technician: b.Technician}
	if b.StartTime != "" {
		t, err := parseTime("start_time", b.StartTime)
		if err != nil {
			models.WriteError(w, err)
			return
		}
		in.StartTime = t
	}
	m, err := h.store.Open(r.Context(), in)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusCreated, m)
}

func (h *HTTP) close(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_format", "id", "invalid maintenance id")
		return
	}
	var b struct {
		Resolution string `json:"resolution"`
		EndTime    string `json:"end_time"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			models.WriteProblem(w, http.StatusBadRequest, "invalid_body", "", "invalid json")
			return
		}
	}
	in := CloseInput{Resolution: b.Resolution}
	if b.EndTime != "" {
		t, err := parseTime("end_time", b.EndTime)
		if err != nil {
			models.WriteError(w, err)
			return
		}
		in.EndTime = &t
	}
	m, err := h.store.Close(r.Context(), id, in)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusOK, m)
}

func (h *HTTP) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_format", "id", "invalid maintenance id")
		return
	}
	m, err := h.store.Get(r.Context(), id)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusOK, m)
}

func (h *HTTP) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f Filter
	if v := q.Get("equipment_id"); v != "" {
		u, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			models.WriteProblem(w, http.StatusBadRequest, "invalid_format", "equipment_id", "must be a positive integer")
			return
		}
		f.EquipmentID = uint(u)
	}
	if v := q.Get("open"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			models.WriteProblem(w, http.StatusBadRequest, "invalid_format", "open", "must be true or false")
			return
		}
		f.Open = &b
	}
	out, err := h.store.List(r.Context(), f)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteList(w, out)
}
