// Package testutil поднимает временную sqlite-базу со схемой и фикстурами для тестов пакетов.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"inventario/internal/catalog"
	"inventario/internal/db"
	"inventario/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	g, err := db.Open("sqlite", filepath.Join(t.TempDir(), "inventario.db"), db.PoolOptions{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(g))
	t.Cleanup(func() {
		if sqlDB, err := g.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return g
}

func Codes(t testing.TB, g *gorm.DB) catalog.Codes {
	t.Helper()
	c, err := catalog.Resolve(context.Background(), g)
	require.NoError(t, err)
	return c
}

func Equipment(t testing.TB, g *gorm.DB, serial string, statusID uint) models.Equipment {
	t.Helper()
	e := models.Equipment{Serial: serial, Name: "EQ " + serial, Kind: "CPU", StatusID: statusID}
	require.NoError(t, g.Create(&e).Error)
	return e
}

func IP(t testing.TB, g *gorm.DB, addr string, statusID uint) models.IPAddress {
	t.Helper()
	ip := models.IPAddress{Address: addr, StatusID: statusID}
	require.NoError(t, g.Create(&ip).Error)
	return ip
}

func Employee(t testing.TB, g *gorm.DB, name string) models.Employee {
	t.Helper()
	e := models.Employee{Name: name}
	require.NoError(t, g.Create(&e).Error)
	return e
}

func Branch(t testing.TB, g *gorm.DB, name string) models.Branch {
	t.Helper()
	b := models.Branch{Name: name}
	require.NoError(t, g.Create(&b).Error)
	return b
}

func Area(t testing.TB, g *gorm.DB, name string) models.Area {
	t.Helper()
	a := models.Area{Name: name}
	require.NoError(t, g.Create(&a).Error)
	return a
}

// Reload перечитывает строку по первичному ключу.
func Reload[T any](t testing.TB, g *gorm.DB, id uint) T {
	t.Helper()
	var v T
	require.NoError(t, g.First(&v, id).Error)
	return v
}
