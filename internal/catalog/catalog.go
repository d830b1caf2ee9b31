package catalog

import (
	"context"
	"fmt"

	"inventario/internal/apperr"
	"inventario/internal/models"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// ListStatuses: каталог статусов; scope == "" возвращает все.
func (r *Repo) ListStatuses(ctx context.Context, scope string) ([]models.Status, error) {
	var out []models.Status
	q := r.db.WithContext(ctx).Order("scope, id")
	if scope != "" {
		q = q.Where("scope = ?", scope)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Infra(err)
	}
	return out, nil
}

// Codes: идентификаторы статусов, на которых держится жизненный цикл.
// Разрешаются из каталога на каждую операцию, а не кешируются глобально.
type Codes struct {
	EquipmentAvailable uint `json:"equipment_available"`
	EquipmentAssigned  uint `json:"equipment_assigned"`
	EquipmentInRepair  uint `json:"equipment_in_repair"`
	IPAvailable        uint `json:"ip_available"`
	IPAssigned         uint `json:"ip_assigned"`
	AssignmentActive   uint `json:"assignment_active"`
	AssignmentClosed   uint `json:"assignment_closed"`
	MaintenanceOpen    uint `json:"maintenance_open"`
	MaintenanceClosed  uint `json:"maintenance_closed"`

	assignment map[uint]struct{}
}

// IsAssignmentStatus: статус из области "asignacion".
func (c Codes) IsAssignmentStatus(id uint) bool {
	_, ok := c.assignment[id]
	return ok
}

// Resolve читает каталог через db (можно передать открытую транзакцию).
func Resolve(ctx context.Context, db *gorm.DB) (Codes, error) {
	var all []models.Status
	if err := db.WithContext(ctx).Find(&all).Error; err != nil {
		return Codes{}, apperr.Infra(err)
	}
	idx := make(map[string]uint, len(all))
	c := Codes{assignment: map[uint]struct{}{}}
	for _, s := range all {
		idx[s.Scope+"/"+s.Name] = s.ID
		if s.Scope == models.ScopeAssignment {
			c.assignment[s.ID] = struct{}{}
		}
	}
	want := []struct {
		dst         *uint
		scope, name string
	}{
		{&c.EquipmentAvailable, models.ScopeEquipment, models.StatusAvailable},
		{&c.EquipmentAssigned, models.ScopeEquipment, models.StatusAssigned},
		{&c.EquipmentInRepair, models.ScopeEquipment, models.StatusInRepair},
		{&c.IPAvailable, models.ScopeIP, models.StatusAvailable},
		{&c.IPAssigned, models.ScopeIP, models.StatusAssigned},
		{&c.AssignmentActive, models.ScopeAssignment, models.StatusActive},
		{&c.AssignmentClosed, models.ScopeAssignment, models.StatusClosed},
		{&c.MaintenanceOpen, models.ScopeMaintenance, models.StatusMaintOpen},
		{&c.MaintenanceClosed, models.ScopeMaintenance, models.StatusMaintClosed},
	}
	for _, w := range want {
		id, ok := idx[w.scope+"/"+w.name]
		if !ok {
			return Codes{}, apperr.Infra(fmt.Errorf("status catalog incomplete: %s/%s missing", w.scope, w.name))
		}
		*w.dst = id
	}
	return c, nil
}

// Codes: статусы жизненного цикла для формы (например, status_id по умолчанию).
func (r *Repo) Codes(ctx context.Context) (Codes, error) { return Resolve(ctx, r.db) }
