package registry

import (
	"encoding/json"
	"net/http"
	"strconv"

	"inventario/internal/models"

	"github.com/gorilla/mux"
)

type HTTP struct{ reg *Registry }

func NewHTTP(r *Registry) *HTTP { return &HTTP{reg: r} }

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	// equipment
	api.HandleFunc("/equipos", h.createEquipment).Methods(http.MethodPost)
	api.HandleFunc("/equipos", h.listEquipment).Methods(http.MethodGet)
	api.HandleFunc("/equipos/{id:[0-9]+}", h.getEquipment).Methods(http.MethodGet)
	api.HandleFunc("/equipos/{id:[0-9]+}/history", h.history(KindEquipment)).Methods(http.MethodGet)

	// ip addresses
	api.HandleFunc("/ips", h.createIP).Methods(http.MethodPost)
	api.HandleFunc("/ips", h.listIPs).Methods(http.MethodGet)
	api.HandleFunc("/ips/{id:[0-9]+}", h.getIP).Methods(http.MethodGet)
	api.HandleFunc("/ips/{id:[0-9]+}/history", h.history(KindIP)).Methods(http.MethodGet)

	// lookups для форм
	api.HandleFunc("/empleados", h.listEmployees).Methods(http.MethodGet)
	api.HandleFunc("/sucursales", h.listBranches).Methods(http.MethodGet)
	api.HandleFunc("/areas", h.listAreas).Methods(http.MethodGet)
}

func pathID(r *http.Request) (uint, bool) {
	u, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || u == 0 {
		return 0, false
	}
	return uint(u), true
}

func filterFrom(r *http.Request) Filter {
	var f Filter
	if s := r.URL.Query().Get("status_id"); s != "" {
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			f.StatusID = uint(u)
		}
	}
	return f
}

func (h *HTTP) createEquipment(w http.ResponseWriter, r *http.Request) {
	var in EquipmentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_body", "", "invalid json")
		return
	}
	e, err := h.reg.CreateEquipment(r.Context(), in)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusCreated, e)
}

func (h *HTTP) listEquipment(w http.ResponseWriter, r *http.Request) {
	out, err := h.reg.ListEquipment(r.Context(), filterFrom(r))
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteList(w, out)
}

func (h *HTTP) getEquipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_format", "id", "invalid equipment id")
		return
	}
	e, err := h.reg.GetEquipment(r.Context(), id)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusOK, e)
}

func (h *HTTP) createIP(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Address string `json:"address"`
		Note    string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_body", "", "invalid body (need {address, note})")
		return
	}
	ip, err := h.reg.CreateIP(r.Context(), in.Address, in.Note)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusCreated, ip)
}

func (h *HTTP) listIPs(w http.ResponseWriter, r *http.Request) {
	out, err := h.reg.ListIPs(r.Context(), filterFrom(r))
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteList(w, out)
}

func (h *HTTP) getIP(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_format", "id", "invalid ip id")
		return
	}
	ip, err := h.reg.GetIP(r.Context(), id)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusOK, ip)
}

func (h *HTTP) history(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			models.WriteProblem(w, http.StatusBadRequest, "invalid_format", "id", "invalid id")
			return
		}
		out, err := h.reg.History(r.Context(), kind, id)
		if err != nil {
			models.WriteError(w, err)
			return
		}
		models.WriteList(w, out)
	}
}

func (h *HTTP) listEmployees(w http.ResponseWriter, r *http.Request) {
	out, err := h.reg.ListEmployees(r.Context())
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteList(w, out)
}

func (h *HTTP) listBranches(w http.ResponseWriter, r *http.Request) {
	out, err := h.reg.ListBranches(r.Context())
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteList(w, out)
}

func (h *HTTP) listAreas(w http.ResponseWriter, r *http.Request) {
	out, err := h.reg.ListAreas(r.Context())
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteList(w, out)
}
