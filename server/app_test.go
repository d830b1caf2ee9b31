package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inventario/config"
	"inventario/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Address: "127.0.0.1", HTTPPort: "0"},
		Logging: config.LoggingConfig{Level: "error"},
		Auth: config.AuthConfig{
			Enabled:       true,
			JWTSecret:     "test-secret",
			TokenTTL:      time.Hour,
			AdminUser:     "admin",
			AdminPassword: "s3cret",
		},
	}
}

func call(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestAppEndToEnd(t *testing.T) {
	var a App
	a.UseDB(testutil.OpenDB(t))
	require.NoError(t, a.Initialize(testConfig()))
	h := a.Router

	rec, _ := call(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = call(t, h, http.MethodGet, "/api/v1/equipos", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = call(t, h, http.MethodPost, "/api/v1/auth/login", "", `{"username":"admin","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := call(t, h, http.MethodPost, "/api/v1/auth/login", "", `{"username":"admin","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := body["data"].(map[string]any)["token"].(string)

	rec, body = call(t, h, http.MethodPost, "/api/v1/equipos", token, `{"serial":"pc-001","name":"recepcion","kind":"cpu"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	eqID := body["data"].(map[string]any)["id"].(float64)

	rec, body = call(t, h, http.MethodGet, "/api/v1/statuses?scope=asignacion", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var activeID float64
	for _, s := range body["data"].([]any) {
		m := s.(map[string]any)
		if m["name"] == "Activa" {
			activeID = m["id"].(float64)
		}
	}
	require.NotZero(t, activeID)

	rec, _ = call(t, h, http.MethodPost, "/api/v1/ipam/ranges", token, `{"cidr":"10.1.0.0/29"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body = call(t, h, http.MethodGet, "/api/v1/assignments/candidates", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	ips := body["data"].(map[string]any)["ip_addresses"].([]any)
	require.Len(t, ips, 5)
	first := ips[0].(map[string]any)
	assert.Equal(t, "10.1.0.2", first["address"])

	// сотрудник заводится напрямую: справочники вне API
	emp := testutil.Employee(t, a.db, "ANA")
	create := fmt.Sprintf(`{"equipment_id":%d,"employee_id":%d,"ip_id":%d,"status_id":%d,"start_time":"2024-01-10"}`,
		int(eqID), emp.ID, int(first["id"].(float64)), int(activeID))
	rec, _ = call(t, h, http.MethodPost, "/api/v1/assignments", token, create)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body = call(t, h, http.MethodGet, fmt.Sprintf("/api/v1/equipos/%d/history", int(eqID)), token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, body = call(t, h, http.MethodPost, "/api/v1/mantenimientos", token, fmt.Sprintf(`{"equipment_id":%d,"description":"x"}`, int(eqID)))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "equipment_already_assigned", body["error"].(map[string]any)["code"])
}

func TestRunRequiresInitialize(t *testing.T) {
	var a App
	assert.ErrorIs(t, a.Run(), ErrNotInitialized)
}
