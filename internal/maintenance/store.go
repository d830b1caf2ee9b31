// Package maintenance ведёт заявки на обслуживание оборудования. Оборудование на
// обслуживании переводится в "En mantenimiento" и не может быть привязано.
package maintenance

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"inventario/internal/apperr"
	"inventario/internal/catalog"
	idb "inventario/internal/db"
	"inventario/internal/logs"
	"inventario/internal/models"
	"inventario/internal/registry"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Resources interface {
	LockResource(ctx context.Context, tx *gorm.DB, kind registry.Kind, id uint) (registry.Resource, error)
	SetResourceStatus(ctx context.Context, tx *gorm.DB, kind registry.Kind, id, statusID uint, reason string, meta map[string]any) error
}

type Publisher interface {
	Publish(topic string, data any)
}

const (
	EventOpened = "maintenance.opened"
	EventClosed = "maintenance.closed"
)

type Store struct {
	db  *gorm.DB
	res Resources
	pub Publisher
	now func() time.Time
}

func NewStore(db *gorm.DB, res Resources, pub Publisher) *Store {
	return &Store{db: db, res: res, pub: pub, now: time.Now}
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}()

type OpenInput struct {
	EquipmentID uint      `json:"equipment_id" validate:"required"`
	Description string    `json:"description" validate:"required,max=2000"`
	Technician  string    `json:"technician" validate:"max=200"`
	StartTime   time.Time `json:"start_time"`
}

type CloseInput struct {
	Resolution string     `json:"resolution"`
	EndTime    *time.Time `json:"end_time"`
}

// Open заводит заявку: оборудование должно быть "Disponible" и без активной привязки.
func (s *Store) Open(ctx context.Context, in OpenInput) (*models.Maintenance, error) {
	in.Description = strings.TrimSpace(in.Description)
	in.Technician = strings.TrimSpace(in.Technician)
	if err := validate.Struct(in); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			code := "missing_required_field"
			if ve[0].Tag() != "required" {
				code = "invalid_format"
			}
			return nil, apperr.Validation(code, ve[0].Field())
		}
		return nil, apperr.Infra(err)
	}
	if in.StartTime.IsZero() {
		in.StartTime = s.now()
	}

	var m *models.Maintenance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		codes, err := catalog.Resolve(ctx, tx)
		if err != nil {
			return err
		}
		eq, err := s.res.LockResource(ctx, tx, registry.KindEquipment, in.EquipmentID)
		if apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.InvalidReference("equipment_id", in.EquipmentID)
		}
		if err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&models.Assignment{}).
			Where("equipment_id = ? AND end_time IS NULL", in.EquipmentID).
			Count(&active).Error; err != nil {
			return apperr.Infra(err)
		}
		if active > 0 {
			return apperr.Conflict("equipment_already_assigned", "equipment_id", in.EquipmentID)
		}
		if eq.StatusID != codes.EquipmentAvailable {
			return apperr.Conflict("equipment_unavailable", "equipment_id", in.EquipmentID)
		}

		guard := in.EquipmentID
		m = &models.Maintenance{
			EquipmentID:       in.EquipmentID,
			StatusID:          codes.MaintenanceOpen,
			Description:       in.Description,
			Technician:        in.Technician,
			StartTime:         in.StartTime,
			ActiveEquipmentID: &guard,
		}
		if err := tx.Create(m).Error; err != nil {
			if idb.DuplicateOn(err, "active_equipment") {
				return apperr.Conflict("equipment_unavailable", "equipment_id", in.EquipmentID)
			}
			return apperr.Infra(err)
		}
		return s.res.SetResourceStatus(ctx, tx, registry.KindEquipment, in.EquipmentID, codes.EquipmentInRepair,
			EventOpened, map[string]any{"maintenance_id": m.ID})
	})
	if err != nil {
		return nil, apperr.Infra(err)
	}

	logs.Logger.WithFields(logrus.Fields{"maintenance_id": m.ID, "equipment_id": m.EquipmentID}).Info("maintenance opened")
	s.publish(EventOpened, m)
	return m, nil
}

// Close завершает заявку и возвращает оборудование в "Disponible".
func (s *Store) Close(ctx context.Context, id uint, in CloseInput) (*models.Maintenance, error) {
	var m models.Maintenance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		codes, err := catalog.Resolve(ctx, tx)
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("maintenance", id)
			}
			return apperr.Infra(err)
		}
		if m.EndTime != nil || m.StatusID == codes.MaintenanceClosed {
			return apperr.Conflict("maintenance_closed", "id", id)
		}

		end := s.now()
		if in.EndTime != nil {
			end = *in.EndTime
		} else if end.Before(m.StartTime) {
			end = m.StartTime
		}
		if end.Before(m.StartTime) {
			return apperr.Validation("invalid_time_range", "end_time")
		}

		m.EndTime = &end
		m.StatusID = codes.MaintenanceClosed
		m.ActiveEquipmentID = nil
		if r := strings.TrimSpace(in.Resolution); r != "" {
			m.Resolution = r
		}
		if err := tx.Save(&m).Error; err != nil {
			return apperr.Infra(err)
		}
		return s.res.SetResourceStatus(ctx, tx, registry.KindEquipment, m.EquipmentID, codes.EquipmentAvailable,
			EventClosed, map[string]any{"maintenance_id": m.ID})
	})
	if err != nil {
		return nil, apperr.Infra(err)
	}

	logs.Logger.WithFields(logrus.Fields{"maintenance_id": m.ID, "equipment_id": m.EquipmentID}).Info("maintenance closed")
	s.publish(EventClosed, &m)
	return &m, nil
}

func (s *Store) Get(ctx context.Context, id uint) (*models.Maintenance, error) {
	var m models.Maintenance
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("maintenance", id)
		}
		return nil, apperr.Infra(err)
	}
	return &m, nil
}

type Filter struct {
	EquipmentID uint
	Open        *bool
}

// List: новые заявки сверху.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Maintenance, error) {
	q := s.db.WithContext(ctx).Order("start_time DESC, id DESC")
	if f.EquipmentID != 0 {
		q = q.Where("equipment_id = ?", f.EquipmentID)
	}
	if f.Open != nil {
		if *f.Open {
			q = q.Where("end_time IS NULL")
		} else {
			q = q.Where("end_time IS NOT NULL")
		}
	}
	var out []models.Maintenance
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Infra(err)
	}
	return out, nil
}

func (s *Store) publish(topic string, m *models.Maintenance) {
	if s.pub != nil {
		s.pub.Publish(topic, m)
	}
}
