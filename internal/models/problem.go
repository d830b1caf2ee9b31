package models

import (
	"encoding/json"
	"net/http"

	"inventario/internal/apperr"
)

// Единый конверт ответа API: {"data": ...} либо {"error": {...}}.

type Envelope struct {
	Data  any      `json:"data,omitempty"`
	Count *int     `json:"count,omitempty"`
	Error *Problem `json:"error,omitempty"`
}

type Problem struct {
	Kind      string `json:"kind"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	ID        uint   `json:"id,omitempty"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func WriteData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Data: data})
}

func WriteList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	writeJSON(w, http.StatusOK, Envelope{Data: items, Count: &n})
}

// WriteError переводит ошибку в HTTP-статус по её виду.
// Нетипизированные ошибки считаются инфраструктурными.
func WriteError(w http.ResponseWriter, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e, _ = apperr.As(apperr.Infra(err))
	}
	p := &Problem{
		Kind:      string(e.Kind),
		Code:      e.Code,
		Field:     e.Field,
		ID:        e.ID,
		Message:   messageFor(e),
		Retryable: e.Retryable(),
	}
	writeJSON(w, e.HTTPStatus(), Envelope{Error: p})
}

// WriteProblem: ошибка уровня транспорта (битый JSON, неверный параметр пути).
func WriteProblem(w http.ResponseWriter, status int, code, field, message string) {
	writeJSON(w, status, Envelope{Error: &Problem{Kind: string(apperr.KindValidation), Code: code, Field: field, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var messages = map[string]string{
	"missing_required_field":     "A required field is missing.",
	"assignment_needs_target":    "An active assignment must point at an employee, a branch or an area.",
	"self_reference":             "Parent equipment cannot be the assigned equipment itself.",
	"invalid_reference":          "The referenced record does not exist.",
	"invalid_status":             "The status is not valid for this operation.",
	"invalid_time_range":         "Start time must not be after end time.",
	"invalid_format":             "The value has an invalid format.",
	"end_time_requires_close":    "End time can only be set when closing the assignment.",
	"immutable_on_close":         "Equipment, IP and parent equipment cannot change while closing the assignment.",
	"ip_already_assigned":        "IP already reserved by another active assignment.",
	"equipment_already_assigned": "Equipment already has an active assignment.",
	"equipment_unavailable":      "Equipment is not available.",
	"ip_unavailable":             "IP address is not available.",
	"assignment_closed":          "The assignment is closed and can no longer be edited.",
	"maintenance_closed":         "The maintenance record is already closed.",
	"duplicate":                  "A record with the same key already exists.",
	"storage_unavailable":        "Storage is temporarily unavailable, please retry.",
}

func messageFor(e *apperr.Error) string {
	if m, ok := messages[e.Code]; ok {
		return m
	}
	if e.Kind == apperr.KindNotFound {
		return "Record not found."
	}
	return e.Error()
}
