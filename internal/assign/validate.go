package assign

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"inventario/internal/apperr"
	"inventario/internal/catalog"
	"inventario/internal/models"
	"inventario/internal/registry"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// required: обязательные поля записи, в порядке проверки.
type required struct {
	EquipmentID *uint      `json:"equipment_id" validate:"required"`
	StartTime   *time.Time `json:"start_time" validate:"required"`
	StatusID    *uint      `json:"status_id" validate:"required"`
}

func requiredOf(a *models.Assignment) required {
	var r required
	if a.EquipmentID != 0 {
		r.EquipmentID = &a.EquipmentID
	}
	if !a.StartTime.IsZero() {
		r.StartTime = &a.StartTime
	}
	if a.StatusID != 0 {
		r.StatusID = &a.StatusID
	}
	return r
}

// checkShape: шаги 1-3 (обязательные поля, цель привязки, self-reference).
func checkShape(a *models.Assignment) error {
	if err := validate.Struct(requiredOf(a)); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return apperr.Validation("missing_required_field", ve[0].Field())
		}
		return apperr.Infra(err)
	}
	if a.Active() && a.EmployeeID == nil && a.BranchID == nil && a.AreaID == nil {
		return apperr.Validation("assignment_needs_target", "employee_id")
	}
	if a.ParentEquipmentID != nil && *a.ParentEquipmentID == a.EquipmentID {
		return apperr.Validation("self_reference", "parent_equipment_id")
	}
	return nil
}

// held: заблокированные в транзакции ресурсы записи.
type held struct {
	equipment registry.Resource
	ip        *registry.Resource
}

// checkReferences: шаг 4. Оборудование и IP читаются с блокировкой строки.
// При обновлении блокируются и освобождаемые ресурсы prev; порядок: оборудование,
// затем IP, внутри вида по возрастанию id.
func (s *Store) checkReferences(ctx context.Context, tx *gorm.DB, a *models.Assignment, prev *models.Assignment, codes catalog.Codes) (held, error) {
	var h held
	var prevEquipment uint
	if prev != nil {
		prevEquipment = prev.EquipmentID
	}
	for _, id := range lockOrder(a.EquipmentID, prevEquipment) {
		r, err := s.res.LockResource(ctx, tx, registry.KindEquipment, id)
		if err != nil {
			if id == a.EquipmentID {
				return h, asReference(err, "equipment_id", id)
			}
			return h, err
		}
		if id == a.EquipmentID {
			h.equipment = r
		}
	}

	if a.ParentEquipmentID != nil {
		if _, err := s.res.GetResource(ctx, tx, registry.KindEquipment, *a.ParentEquipmentID); err != nil {
			return h, asReference(err, "parent_equipment_id", *a.ParentEquipmentID)
		}
	}

	refs := []struct {
		field string
		model any
		id    *uint
	}{
		{"employee_id", &models.Employee{}, a.EmployeeID},
		{"branch_id", &models.Branch{}, a.BranchID},
		{"area_id", &models.Area{}, a.AreaID},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		ok, err := s.res.Exists(ctx, tx, ref.model, *ref.id)
		if err != nil {
			return h, err
		}
		if !ok {
			return h, apperr.InvalidReference(ref.field, *ref.id)
		}
	}

	var nextIP, prevIP uint
	if a.IPID != nil {
		nextIP = *a.IPID
	}
	if prev != nil && prev.IPID != nil {
		prevIP = *prev.IPID
	}
	for _, id := range lockOrder(nextIP, prevIP) {
		r, err := s.res.LockResource(ctx, tx, registry.KindIP, id)
		if err != nil {
			if id == nextIP {
				return h, asReference(err, "ip_id", id)
			}
			return h, err
		}
		if id == nextIP {
			h.ip = &r
		}
	}

	if !codes.IsAssignmentStatus(a.StatusID) {
		return h, apperr.InvalidReference("status_id", a.StatusID)
	}
	return h, nil
}

// checkConflicts: шаги 5-6 для активной записи. prev: прежнее состояние (nil при создании);
// сама запись исключается из поиска, уже удерживаемые ею ресурсы не обязаны быть в "Disponible".
func (s *Store) checkConflicts(ctx context.Context, tx *gorm.DB, a *models.Assignment, h held, prev *models.Assignment, codes catalog.Codes) error {
	if !a.Active() {
		return nil
	}
	q := tx.WithContext(ctx).Model(&models.Assignment{}).Where("end_time IS NULL")
	if prev != nil {
		q = q.Where("id <> ?", prev.ID)
	}

	if a.IPID != nil {
		var n int64
		if err := q.Session(&gorm.Session{}).Where("ip_id = ?", *a.IPID).Count(&n).Error; err != nil {
			return apperr.Infra(err)
		}
		if n > 0 {
			return apperr.Conflict("ip_already_assigned", "ip_id", *a.IPID)
		}
		heldBefore := prev != nil && prev.Active() && prev.IPID != nil && *prev.IPID == *a.IPID
		if !heldBefore && h.ip.StatusID != codes.IPAvailable {
			return apperr.Conflict("ip_unavailable", "ip_id", *a.IPID)
		}
	}

	var n int64
	if err := q.Session(&gorm.Session{}).Where("equipment_id = ?", a.EquipmentID).Count(&n).Error; err != nil {
		return apperr.Infra(err)
	}
	if n > 0 {
		return apperr.Conflict("equipment_already_assigned", "equipment_id", a.EquipmentID)
	}
	heldBefore := prev != nil && prev.Active() && prev.EquipmentID == a.EquipmentID
	if !heldBefore && h.equipment.StatusID != codes.EquipmentAvailable {
		return apperr.Conflict("equipment_unavailable", "equipment_id", a.EquipmentID)
	}
	return nil
}

// lockOrder: ненулевые id без повторов по возрастанию.
func lockOrder(a, b uint) []uint {
	switch {
	case a == 0 && b == 0:
		return nil
	case a == 0 || a == b:
		return []uint{b}
	case b == 0:
		return []uint{a}
	case a < b:
		return []uint{a, b}
	default:
		return []uint{b, a}
	}
}

func asReference(err error, field string, id uint) error {
	if apperr.IsKind(err, apperr.KindNotFound) {
		return apperr.InvalidReference(field, id)
	}
	return err
}
