package assign_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inventario/internal/assign"
	"inventario/internal/models"
	"inventario/internal/registry"
	"inventario/internal/testutil"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Count *int            `json:"count"`
	Error *models.Problem `json:"error"`
}

func do(t *testing.T, h http.Handler, method, url, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestHTTPAssignmentLifecycle(t *testing.T) {
	f := setup(t)
	r := mux.NewRouter()
	assign.NewHTTP(f.store).RegisterRoutes(r)

	eq := testutil.Equipment(t, f.g, "SN-1", f.codes.EquipmentAvailable)
	ip := testutil.IP(t, f.g, "10.0.0.9", f.codes.IPAvailable)
	createBody := fmt.Sprintf(`{"equipment_id":%d,"employee_id":%d,"ip_id":%d,"start_time":"2024-01-10","status_id":%d}`,
		eq.ID, f.emp.ID, ip.ID, f.codes.AssignmentActive)

	code, env := do(t, r, http.MethodPost, "/api/v1/assignments", createBody)
	require.Equal(t, http.StatusCreated, code)
	var a models.Assignment
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, eq.ID, a.EquipmentID)
	assert.Equal(t, 10, a.StartTime.Day())

	code, env = do(t, r, http.MethodPost, "/api/v1/assignments", createBody)
	require.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ip_already_assigned", env.Error.Code)
	assert.Equal(t, "ip_id", env.Error.Field)
	assert.False(t, env.Error.Retryable)

	code, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/assignments/%d", a.ID), "")
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/v1/assignments/%d", a.ID),
		fmt.Sprintf(`{"status_id":%d,"end_time":"2024-02-01"}`, f.codes.AssignmentClosed))
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &a))
	require.NotNil(t, a.EndTime)
	assert.Equal(t, f.codes.EquipmentAvailable, testutil.Reload[models.Equipment](t, f.g, eq.ID).StatusID)

	code, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/v1/assignments/%d", a.ID), `{"comment":"x"}`)
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "assignment_closed", env.Error.Code)

	code, env = do(t, r, http.MethodGet, "/api/v1/assignments?active=false", "")
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
}

func TestHTTPErrors(t *testing.T) {
	f := setup(t)
	r := mux.NewRouter()
	assign.NewHTTP(f.store).RegisterRoutes(r)

	code, env := do(t, r, http.MethodPost, "/api/v1/assignments", `{"employee_id":1}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation", env.Error.Kind)
	assert.Equal(t, "missing_required_field", env.Error.Code)
	assert.Equal(t, "equipment_id", env.Error.Field)

	code, env = do(t, r, http.MethodPost, "/api/v1/assignments", `{"equipment_id":1,"start_time":"10/01/2024"}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_format", env.Error.Code)
	assert.Equal(t, "start_time", env.Error.Field)

	code, env = do(t, r, http.MethodGet, "/api/v1/assignments/404", "")
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", env.Error.Kind)

	code, _ = do(t, r, http.MethodPut, "/api/v1/assignments/404", `{}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = do(t, r, http.MethodGet, "/api/v1/assignments?equipment_id=abc", "")
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "equipment_id", env.Error.Field)
}

func TestHTTPCandidates(t *testing.T) {
	f := setup(t)
	r := mux.NewRouter()
	assign.NewHTTP(f.store).RegisterRoutes(r)
	store := assign.NewStore(f.g, registry.New(f.g))

	e1 := testutil.Equipment(t, f.g, "B-1", f.codes.EquipmentAvailable)
	testutil.Equipment(t, f.g, "A-2", f.codes.EquipmentAvailable)
	testutil.IP(t, f.g, "10.0.0.10", f.codes.IPAvailable)
	ip9 := testutil.IP(t, f.g, "10.0.0.9", f.codes.IPAvailable)

	in := f.input(e1.ID)
	in.IPID = ptr(ip9.ID)
	a, err := store.Create(t.Context(), in)
	require.NoError(t, err)

	code, env := do(t, r, http.MethodGet, "/api/v1/assignments/candidates", "")
	require.Equal(t, http.StatusOK, code)
	var c assign.Candidates
	require.NoError(t, json.Unmarshal(env.Data, &c))
	assert.Len(t, c.Equipment, 1)
	assert.Len(t, c.ParentEquipment, 2)
	require.Len(t, c.IPAddresses, 1)
	assert.Equal(t, "10.0.0.10", c.IPAddresses[0].Address)

	code, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/assignments/candidates?assignment_id=%d", a.ID), "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &c))
	assert.Len(t, c.Equipment, 2)
	require.Len(t, c.ParentEquipment, 1)
	assert.Equal(t, "A-2", c.ParentEquipment[0].Serial)
	require.Len(t, c.IPAddresses, 2)
	assert.Equal(t, "10.0.0.9", c.IPAddresses[0].Address)
}

func TestHTTPCloseWithoutBody(t *testing.T) {
	f := setup(t)
	r := mux.NewRouter()
	assign.NewHTTP(f.store).RegisterRoutes(r)
	eq := testutil.Equipment(t, f.g, "SN-1", f.codes.EquipmentAvailable)
	a, err := f.store.Create(t.Context(), f.input(eq.ID))
	require.NoError(t, err)

	// chunked-запрос без тела: ContentLength неизвестен
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/close", a.ID), strings.NewReader(""))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	closed := testutil.Reload[models.Assignment](t, f.g, a.ID)
	assert.False(t, closed.Active())

	code, env := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/close", a.ID), "{")
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_body", env.Error.Code)
}
