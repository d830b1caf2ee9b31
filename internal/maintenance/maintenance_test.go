package maintenance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inventario/internal/apperr"
	"inventario/internal/models"
	"inventario/internal/registry"
	"inventario/internal/testutil"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCloseMovesEquipmentThroughRepair(t *testing.T) {
	g := testutil.OpenDB(t)
	codes := testutil.Codes(t, g)
	ctx := context.Background()
	store := NewStore(g, registry.New(g), nil)
	eq := testutil.Equipment(t, g, "SN-1", codes.EquipmentAvailable)

	m, err := store.Open(ctx, OpenInput{EquipmentID: eq.ID, Description: "  no enciende "})
	require.NoError(t, err)
	assert.Equal(t, "no enciende", m.Description)
	assert.Equal(t, codes.MaintenanceOpen, m.StatusID)
	assert.Equal(t, codes.EquipmentInRepair, testutil.Reload[models.Equipment](t, g, eq.ID).StatusID)

	_, err = store.Open(ctx, OpenInput{EquipmentID: eq.ID, Description: "otra vez"})
	assert.True(t, apperr.HasCode(err, apperr.KindConflict, "equipment_unavailable"), "got %v", err)

	closed, err := store.Close(ctx, m.ID, CloseInput{Resolution: "fuente cambiada"})
	require.NoError(t, err)
	require.NotNil(t, closed.EndTime)
	assert.Equal(t, codes.MaintenanceClosed, closed.StatusID)
	assert.Equal(t, "fuente cambiada", closed.Resolution)
	assert.Equal(t, codes.EquipmentAvailable, testutil.Reload[models.Equipment](t, g, eq.ID).StatusID)

	_, err = store.Close(ctx, m.ID, CloseInput{})
	assert.True(t, apperr.HasCode(err, apperr.KindConflict, "maintenance_closed"))

	// после закрытия можно открыть новую заявку
	_, err = store.Open(ctx, OpenInput{EquipmentID: eq.ID, Description: "revision"})
	require.NoError(t, err)

	hist, err := registry.New(g).History(ctx, registry.KindEquipment, eq.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 3)
}

func TestOpenRejectsAssignedEquipment(t *testing.T) {
	g := testutil.OpenDB(t)
	codes := testutil.Codes(t, g)
	store := NewStore(g, registry.New(g), nil)
	eq := testutil.Equipment(t, g, "SN-1", codes.EquipmentAssigned)
	emp := testutil.Employee(t, g, "ANA")
	require.NoError(t, g.Create(&models.Assignment{EquipmentID: eq.ID, EmployeeID: &emp.ID, StatusID: codes.AssignmentActive, StartTime: time.Now()}).Error)

	_, err := store.Open(context.Background(), OpenInput{EquipmentID: eq.ID, Description: "x"})
	assert.True(t, apperr.HasCode(err, apperr.KindConflict, "equipment_already_assigned"), "got %v", err)
	assert.Equal(t, codes.EquipmentAssigned, testutil.Reload[models.Equipment](t, g, eq.ID).StatusID)
}

func TestOpenValidation(t *testing.T) {
	g := testutil.OpenDB(t)
	store := NewStore(g, registry.New(g), nil)
	ctx := context.Background()

	_, err := store.Open(ctx, OpenInput{Description: "x"})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "missing_required_field", e.Code)
	assert.Equal(t, "equipment_id", e.Field)

	_, err = store.Open(ctx, OpenInput{EquipmentID: 1, Description: "   "})
	e, _ = apperr.As(err)
	assert.Equal(t, "description", e.Field)

	_, err = store.Open(ctx, OpenInput{EquipmentID: 404, Description: "x"})
	assert.True(t, apperr.HasCode(err, apperr.KindValidation, "invalid_reference"))
}

func TestCloseTimeRange(t *testing.T) {
	g := testutil.OpenDB(t)
	codes := testutil.Codes(t, g)
	store := NewStore(g, registry.New(g), nil)
	ctx := context.Background()
	eq := testutil.Equipment(t, g, "SN-1", codes.EquipmentAvailable)
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	m, err := store.Open(ctx, OpenInput{EquipmentID: eq.ID, Description: "x", StartTime: start})
	require.NoError(t, err)

	before := start.Add(-time.Hour)
	_, err = store.Close(ctx, m.ID, CloseInput{EndTime: &before})
	assert.True(t, apperr.HasCode(err, apperr.KindValidation, "invalid_time_range"))
	assert.Equal(t, codes.EquipmentInRepair, testutil.Reload[models.Equipment](t, g, eq.ID).StatusID)

	store.now = func() time.Time { return start.Add(48 * time.Hour) }
	closed, err := store.Close(ctx, m.ID, CloseInput{})
	require.NoError(t, err)
	assert.True(t, closed.EndTime.Equal(start.Add(48*time.Hour)))
}

func TestHTTPRoutes(t *testing.T) {
	g := testutil.OpenDB(t)
	codes := testutil.Codes(t, g)
	r := mux.NewRouter()
	NewHTTP(NewStore(g, registry.New(g), nil)).RegisterRoutes(r)
	eq := testutil.Equipment(t, g, "SN-1", codes.EquipmentAvailable)

	rec := httptest.NewRecorder()
	body := fmt.Sprintf(`{"equipment_id":%d,"description":"pantalla rota","start_time":"2024-05-01"}`, eq.ID)
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/mantenimientos", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mantenimientos?open=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/mantenimientos/1/close", strings.NewReader(`{"resolution":"ok"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mantenimientos/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
