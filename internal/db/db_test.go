package db

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"inventario/internal/models"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "x", PoolOptions{})
	assert.Error(t, err)
}

func TestMigrateSeedsCatalogIdempotently(t *testing.T) {
	g, err := Open("sqlite", filepath.Join(t.TempDir(), "inv.db"), PoolOptions{})
	require.NoError(t, err)

	require.NoError(t, Migrate(g))
	require.NoError(t, Migrate(g))

	var n int64
	require.NoError(t, g.Model(&models.Status{}).Count(&n).Error)
	assert.Equal(t, int64(len(catalogSeed)), n)

	var st models.Status
	require.NoError(t, g.Where("name = ? AND scope = ?", models.StatusClosed, models.ScopeAssignment).First(&st).Error)
	assert.NotZero(t, st.ID)
}

func TestActiveGuardRejectsSecondActiveRow(t *testing.T) {
	g, err := Open("sqlite", filepath.Join(t.TempDir(), "inv.db"), PoolOptions{})
	require.NoError(t, err)
	require.NoError(t, Migrate(g))

	eq := uint(7)
	first := models.Assignment{EquipmentID: 7, StatusID: 1, ActiveEquipmentID: &eq}
	require.NoError(t, g.Create(&first).Error)

	second := models.Assignment{EquipmentID: 7, StatusID: 1, ActiveEquipmentID: &eq}
	err = g.Create(&second).Error
	require.Error(t, err)
	assert.True(t, IsDuplicate(err))
	assert.True(t, DuplicateOn(err, "active_equipment"))
	assert.False(t, DuplicateOn(err, "active_ip"))

	// закрытые строки guard не занимают
	closed := models.Assignment{EquipmentID: 7, StatusID: 2}
	assert.NoError(t, g.Create(&closed).Error)
}

func TestIsDuplicateAcrossDrivers(t *testing.T) {
	assert.True(t, IsDuplicate(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7' for key 'assignments.uq_assignments_active_equipment'"})))
	assert.False(t, IsDuplicate(&mysql.MySQLError{Number: 1452}))
	assert.True(t, IsDuplicate(&pgconn.PgError{Code: "23505", ConstraintName: "uq_assignments_active_ip"}))
	assert.True(t, DuplicateOn(&pgconn.PgError{Code: "23505", ConstraintName: "uq_assignments_active_ip"}, "active_ip"))
	assert.True(t, IsDuplicate(&pq.Error{Code: "23505"}))
	assert.False(t, IsDuplicate(errors.New("connection refused")))
	assert.False(t, IsDuplicate(nil))
}
