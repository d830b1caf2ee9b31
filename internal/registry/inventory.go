package registry

import (
	"context"
	"errors"

	"inventario/internal/apperr"
	"inventario/internal/catalog"
	idb "inventario/internal/db"
	"inventario/internal/fields"
	"inventario/internal/models"

	"gorm.io/gorm"
)

// ── Equipment ───────────────────────────────────────────────

type EquipmentInput struct {
	Serial   string `json:"serial"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Brand    string `json:"brand"`
	Model    string `json:"model"`
	Hostname string `json:"hostname"`
	MAC      string `json:"mac"`
}

// CreateEquipment регистрирует оборудование в статусе "Disponible".
func (r *Registry) CreateEquipment(ctx context.Context, in EquipmentInput) (*models.Equipment, error) {
	norm, field, err := fields.Normalize(map[string]string{
		"serial": in.Serial, "name": in.Name, "kind": in.Kind, "brand": in.Brand,
		"model": in.Model, "hostname": in.Hostname, "mac": in.MAC,
	}, "serial", "name", "kind", "brand", "model", "hostname", "mac")
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Code: "invalid_format", Field: field, Err: err}
	}
	codes, err := catalog.Resolve(ctx, r.db)
	if err != nil {
		return nil, err
	}
	e := &models.Equipment{
		Serial:   norm["serial"],
		Name:     norm["name"],
		Kind:     norm["kind"],
		Brand:    norm["brand"],
		Model:    norm["model"],
		Hostname: norm["hostname"],
		MAC:      norm["mac"],
		StatusID: codes.EquipmentAvailable,
	}
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		if idb.IsDuplicate(err) {
			return nil, apperr.Conflict("duplicate", "serial", 0)
		}
		return nil, apperr.Infra(err)
	}
	return e, nil
}

func (r *Registry) GetEquipment(ctx context.Context, id uint) (*models.Equipment, error) {
	var e models.Equipment
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("equipment", id)
		}
		return nil, apperr.Infra(err)
	}
	return &e, nil
}

func (r *Registry) ListEquipment(ctx context.Context, f Filter) ([]models.Equipment, error) {
	var out []models.Equipment
	q := r.db.WithContext(ctx).Order("serial, id")
	if f.StatusID != 0 {
		q = q.Where("status_id = ?", f.StatusID)
	}
	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Infra(err)
	}
	return out, nil
}

// ── IP addresses ────────────────────────────────────────────

func (r *Registry) CreateIP(ctx context.Context, address, note string) (*models.IPAddress, error) {
	addr, err := fields.NormIPv4(address)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Code: "invalid_format", Field: "address", Err: err}
	}
	codes, err := catalog.Resolve(ctx, r.db)
	if err != nil {
		return nil, err
	}
	n, _ := fields.ValidateOne("note", note)
	ip := &models.IPAddress{Address: addr, Note: n, StatusID: codes.IPAvailable}
	if err := r.db.WithContext(ctx).Create(ip).Error; err != nil {
		if idb.IsDuplicate(err) {
			return nil, apperr.Conflict("duplicate", "address", 0)
		}
		return nil, apperr.Infra(err)
	}
	return ip, nil
}

func (r *Registry) GetIP(ctx context.Context, id uint) (*models.IPAddress, error) {
	var ip models.IPAddress
	if err := r.db.WithContext(ctx).First(&ip, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("ip", id)
		}
		return nil, apperr.Infra(err)
	}
	return &ip, nil
}

// ListIPs: порядок в БД строковый; числовую сортировку делает вызывающий.
func (r *Registry) ListIPs(ctx context.Context, f Filter) ([]models.IPAddress, error) {
	var out []models.IPAddress
	q := r.db.WithContext(ctx).Order("id")
	if f.StatusID != 0 {
		q = q.Where("status_id = ?", f.StatusID)
	}
	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Infra(err)
	}
	return out, nil
}

// ── Directory (read-only lookups) ───────────────────────────

func (r *Registry) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var out []models.Employee
	if err := r.db.WithContext(ctx).Order("name, id").Find(&out).Error; err != nil {
		return nil, apperr.Infra(err)
	}
	return out, nil
}

func (r *Registry) ListBranches(ctx context.Context) ([]models.Branch, error) {
	var out []models.Branch
	if err := r.db.WithContext(ctx).Order("name, id").Find(&out).Error; err != nil {
		return nil, apperr.Infra(err)
	}
	return out, nil
}

func (r *Registry) ListAreas(ctx context.Context) ([]models.Area, error) {
	var out []models.Area
	if err := r.db.WithContext(ctx).Order("name, id").Find(&out).Error; err != nil {
		return nil, apperr.Infra(err)
	}
	return out, nil
}

// Exists проверяет наличие строки model с данным id (через tx, если передан).
func (r *Registry) Exists(ctx context.Context, tx *gorm.DB, model any, id uint) (bool, error) {
	var n int64
	if err := r.conn(ctx, tx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, apperr.Infra(err)
	}
	return n > 0, nil
}
