package assign

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"inventario/internal/apperr"
	"inventario/internal/models"

	"github.com/gorilla/mux"
)

type HTTP struct{ store *Store }

func NewHTTP(s *Store) *HTTP { return &HTTP{store: s} }

func (h *HTTP) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/assignments", h.create).Methods(http.MethodPost)
	api.HandleFunc("/assignments", h.list).Methods(http.MethodGet)
	// GET /api/v1/assignments/candidates?assignment_id=&equipment_id=
	api.HandleFunc("/assignments/candidates", h.candidates).Methods(http.MethodGet)
	api.HandleFunc("/assignments/{id:[0-9]+}", h.get).Methods(http.MethodGet)
	api.HandleFunc("/assignments/{id:[0-9]+}", h.update).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/assignments/{id:[0-9]+}/close", h.close).Methods(http.MethodPost)
}

// Форматы времени, которые присылает форма (datetime-local, date) и API-клиенты.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.ParseInLocation(l, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation("invalid_format", field)
}

type createBody struct {
	EquipmentID       *uint   `json:"equipment_id"`
	StartTime         *string `json:"start_time"`
	StatusID          *uint   `json:"status_id"`
	EmployeeID        *uint   `json:"employee_id"`
	BranchID          *uint   `json:"branch_id"`
	AreaID            *uint   `json:"area_id"`
	ParentEquipmentID *uint   `json:"parent_equipment_id"`
	IPID              *uint   `json:"ip_id"`
	Comment           *string `json:"comment"`
}

func (b createBody) input() (CreateInput, error) {
	in := CreateInput{
		EmployeeID:        b.EmployeeID,
		BranchID:          b.BranchID,
		AreaID:            b.AreaID,
		ParentEquipmentID: b.ParentEquipmentID,
		IPID:              b.IPID,
		Comment:           b.Comment,
	}
	if b.EquipmentID != nil {
		in.EquipmentID = *b.EquipmentID
	}
	if b.StatusID != nil {
		in.StatusID = *b.StatusID
	}
	if b.StartTime != nil && strings.TrimSpace(*b.StartTime) != "" {
		t, err := parseTime("start_time", *b.StartTime)
		if err != nil {
			return in, err
		}
		in.StartTime = t
	}
	return in, nil
}

type patchBody struct {
	EquipmentID       Optional[uint]   `json:"equipment_id"`
	StartTime         Optional[string] `json:"start_time"`
	EndTime           Optional[string] `json:"end_time"`
	StatusID          Optional[uint]   `json:"status_id"`
	EmployeeID        Optional[uint]   `json:"employee_id"`
	BranchID          Optional[uint]   `json:"branch_id"`
	AreaID            Optional[uint]   `json:"area_id"`
	ParentEquipmentID Optional[uint]   `json:"parent_equipment_id"`
	IPID              Optional[uint]   `json:"ip_id"`
	Comment           Optional[string] `json:"comment"`
}

func (b patchBody) patch() (Patch, error) {
	p := Patch{
		EquipmentID:       b.EquipmentID,
		StatusID:          b.StatusID,
		EmployeeID:        b.EmployeeID,
		BranchID:          b.BranchID,
		AreaID:            b.AreaID,
		ParentEquipmentID: b.ParentEquipmentID,
		IPID:              b.IPID,
		Comment:           b.Comment,
	}
	var err error
	if p.StartTime, err = optionalTime("start_time", b.StartTime); err != nil {
		return p, err
	}
	if p.EndTime, err = optionalTime("end_time", b.EndTime); err != nil {
		return p, err
	}
	return p, nil
}

// optionalTime: пустая строка равна null.
func optionalTime(field string, o Optional[string]) (Optional[time.Time], error) {
	if !o.Set {
		return Optional[time.Time]{}, nil
	}
	if o.Value == nil || strings.TrimSpace(*o.Value) == "" {
		return Null[time.Time](), nil
	}
	t, err := parseTime(field, *o.Value)
	if err != nil {
		return Optional[time.Time]{}, err
	}
	return Some(t), nil
}

func pathID(r *http.Request) (uint, bool) {
	u, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || u == 0 {
		return 0, false
	}
	return uint(u), true
}

func (h *HTTP) create(w http.ResponseWriter, r *http.Request) {
	var b createBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_body", "", "invalid json")
		return
	}
	in, err := b.input()
	if err != nil {
		models.WriteError(w, err)
		return
	}
	a, err := h.store.Create(r.Context(), in)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusCreated, a)
}

func (h *HTTP) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_format", "id", "invalid assignment id")
		return
	}
	var b patchBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_body", "", "invalid json")
		return
	}
	p, err := b.patch()
	if err != nil {
		models.WriteError(w, err)
		return
	}
	a, err := h.store.Update(r.Context(), id, p)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusOK, a)
}

func (h *HTTP) close(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_format", "id", "invalid assignment id")
		return
	}
	var b struct {
		EndTime *string `json:"end_time"`
		Comment *string `json:"comment"`
	}
	// тело необязательно
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil && !errors.Is(err, io.EOF) {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_body", "", "invalid json")
		return
	}
	var end *time.Time
	if b.EndTime != nil && strings.TrimSpace(*b.EndTime) != "" {
		t, err := parseTime("end_time", *b.EndTime)
		if err != nil {
			models.WriteError(w, err)
			return
		}
		end = &t
	}
	a, err := h.store.Close(r.Context(), id, end, b.Comment)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusOK, a)
}

func (h *HTTP) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		models.WriteProblem(w, http.StatusBadRequest, "invalid_format", "id", "invalid assignment id")
		return
	}
	a, err := h.store.Get(r.Context(), id)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusOK, a)
}

func (h *HTTP) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f Filter
	ids := []struct {
		name string
		dst  *uint
	}{
		{"equipment_id", &f.EquipmentID},
		{"ip_id", &f.IPID},
		{"employee_id", &f.EmployeeID},
		{"branch_id", &f.BranchID},
		{"area_id", &f.AreaID},
		{"status_id", &f.StatusID},
	}
	for _, p := range ids {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		u, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			models.WriteProblem(w, http.StatusBadRequest, "invalid_format", p.name, "must be a positive integer")
			return
		}
		*p.dst = uint(u)
	}
	if v := q.Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			models.WriteProblem(w, http.StatusBadRequest, "invalid_format", "active", "must be true or false")
			return
		}
		f.Active = &b
	}
	f.Order = q.Get("order")
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			models.WriteProblem(w, http.StatusBadRequest, "invalid_format", name, "must be a non-negative integer")
			return
		}
		*dst = n
	}

	out, err := h.store.List(r.Context(), f)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteList(w, out)
}

func (h *HTTP) candidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var c Context
	if v := q.Get("assignment_id"); v != "" {
		u, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			models.WriteProblem(w, http.StatusBadRequest, "invalid_format", "assignment_id", "must be a positive integer")
			return
		}
		a, err := h.store.Get(r.Context(), uint(u))
		if err != nil {
			models.WriteError(w, err)
			return
		}
		c.Current = a
	}
	if v := q.Get("equipment_id"); v != "" {
		u, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			models.WriteProblem(w, http.StatusBadRequest, "invalid_format", "equipment_id", "must be a positive integer")
			return
		}
		c.SelectedEquipmentID = uint(u)
	}
	out, err := h.store.Candidates(r.Context(), c)
	if err != nil {
		models.WriteError(w, err)
		return
	}
	models.WriteData(w, http.StatusOK, out)
}
