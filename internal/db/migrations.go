// internal/db/migrations.go
package db

import (
	"fmt"

	"inventario/internal/models"

	"gorm.io/gorm"
)

// Migrate создаёт/обновляет схему и заполняет каталог статусов.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := db.AutoMigrate(
		&models.Status{},
		&models.Branch{},
		&models.Area{},
		&models.Employee{},
		&models.Equipment{},
		&models.IPAddress{},
		&models.Assignment{},
		&models.Maintenance{},
		&models.ResourceStatusHistory{},
		&models.User{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := MigrateActiveAssignmentIndexes(db); err != nil {
		return fmt.Errorf("active assignment indexes: %w", err)
	}
	return SeedStatuses(db)
}

// MigrateActiveAssignmentIndexes дублирует guard-колонки частичными индексами там,
// где диалект их поддерживает. На MySQL уникальности guard-колонок достаточно.
func MigrateActiveAssignmentIndexes(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case "postgres":
		if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_assignments_active_equipment_open ON "assignments" ("equipment_id") WHERE "end_time" IS NULL`).Error; err != nil {
			return err
		}
		return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_assignments_active_ip_open ON "assignments" ("ip_id") WHERE "end_time" IS NULL AND "ip_id" IS NOT NULL`).Error
	default:
		return nil
	}
}

type seedStatus struct{ name, scope string }

var catalogSeed = []seedStatus{
	{models.StatusAvailable, models.ScopeEquipment},
	{models.StatusAssigned, models.ScopeEquipment},
	{models.StatusInRepair, models.ScopeEquipment},
	{models.StatusAvailable, models.ScopeIP},
	{models.StatusAssigned, models.ScopeIP},
	{models.StatusActive, models.ScopeAssignment},
	{models.StatusClosed, models.ScopeAssignment},
	{models.StatusMaintOpen, models.ScopeMaintenance},
	{models.StatusMaintClosed, models.ScopeMaintenance},
}

// SeedStatuses идемпотентно добавляет статусы, на которые опирается логика.
func SeedStatuses(db *gorm.DB) error {
	for _, s := range catalogSeed {
		st := models.Status{Name: s.name, Scope: s.scope}
		if err := db.Where(&models.Status{Name: s.name, Scope: s.scope}).FirstOrCreate(&st).Error; err != nil {
			return fmt.Errorf("seed status %s/%s: %w", s.scope, s.name, err)
		}
	}
	return nil
}
