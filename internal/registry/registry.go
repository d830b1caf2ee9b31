package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"inventario/internal/apperr"
	"inventario/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Kind string

const (
	KindEquipment Kind = "equipment"
	KindIP        Kind = "ip"
)

// Resource: общий вид оборудования и IP для логики статусов.
type Resource struct {
	Kind     Kind   `json:"kind"`
	ID       uint   `json:"id"`
	Label    string `json:"label"` // serial или адрес
	StatusID uint   `json:"status_id"`
}

type Filter struct {
	StatusID uint
	IDs      []uint
}

// Registry владеет оборудованием и IP-адресами и их полем status_id.
// Методы с параметром tx работают внутри транзакции вызывающего; tx == nil: без неё.
type Registry struct{ db *gorm.DB }

func New(db *gorm.DB) *Registry { return &Registry{db: db} }

func (r *Registry) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx)
}

func (r *Registry) GetResource(ctx context.Context, tx *gorm.DB, kind Kind, id uint) (Resource, error) {
	return r.fetch(r.conn(ctx, tx), kind, id)
}

// LockResource читает строку с SELECT ... FOR UPDATE; вызывать только внутри транзакции.
func (r *Registry) LockResource(ctx context.Context, tx *gorm.DB, kind Kind, id uint) (Resource, error) {
	return r.fetch(r.conn(ctx, tx).Clauses(clause.Locking{Strength: "UPDATE"}), kind, id)
}

func (r *Registry) fetch(q *gorm.DB, kind Kind, id uint) (Resource, error) {
	var err error
	var res Resource
	switch kind {
	case KindEquipment:
		var e models.Equipment
		err = q.First(&e, id).Error
		res = equipmentResource(e)
	case KindIP:
		var ip models.IPAddress
		err = q.First(&ip, id).Error
		res = ipResource(ip)
	default:
		return Resource{}, fmt.Errorf("unknown resource kind %q", kind)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Resource{}, apperr.NotFound(string(kind), id)
	}
	if err != nil {
		return Resource{}, apperr.Infra(err)
	}
	return res, nil
}

func (r *Registry) ListResources(ctx context.Context, kind Kind, f Filter) ([]Resource, error) {
	switch kind {
	case KindEquipment:
		list, err := r.ListEquipment(ctx, f)
		if err != nil {
			return nil, err
		}
		out := make([]Resource, 0, len(list))
		for _, e := range list {
			out = append(out, equipmentResource(e))
		}
		return out, nil
	case KindIP:
		list, err := r.ListIPs(ctx, f)
		if err != nil {
			return nil, err
		}
		out := make([]Resource, 0, len(list))
		for _, ip := range list {
			out = append(out, ipResource(ip))
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown resource kind %q", kind)
}

// SetResourceStatus меняет status_id и пишет строку истории в той же транзакции.
func (r *Registry) SetResourceStatus(ctx context.Context, tx *gorm.DB, kind Kind, id, statusID uint, reason string, meta map[string]any) error {
	q := r.conn(ctx, tx)
	cur, err := r.fetch(q, kind, id)
	if err != nil {
		return err
	}
	if cur.StatusID == statusID {
		return nil
	}

	var model any
	switch kind {
	case KindEquipment:
		model = &models.Equipment{}
	case KindIP:
		model = &models.IPAddress{}
	}
	if err := q.Model(model).Where("id = ?", id).Update("status_id", statusID).Error; err != nil {
		return apperr.Infra(err)
	}

	h := models.ResourceStatusHistory{
		ResourceKind: string(kind),
		ResourceID:   id,
		FromStatusID: cur.StatusID,
		ToStatusID:   statusID,
		Reason:       reason,
	}
	if len(meta) > 0 {
		b, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		h.Meta = datatypes.JSON(b)
	}
	if err := q.Create(&h).Error; err != nil {
		return apperr.Infra(err)
	}
	return nil
}

// History: журнал смен статуса ресурса, новые сверху.
func (r *Registry) History(ctx context.Context, kind Kind, id uint) ([]models.ResourceStatusHistory, error) {
	var out []models.ResourceStatusHistory
	err := r.db.WithContext(ctx).
		Where("resource_kind = ? AND resource_id = ?", string(kind), id).
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Infra(err)
	}
	return out, nil
}

func equipmentResource(e models.Equipment) Resource {
	return Resource{Kind: KindEquipment, ID: e.ID, Label: e.Serial, StatusID: e.StatusID}
}

func ipResource(ip models.IPAddress) Resource {
	return Resource{Kind: KindIP, ID: ip.ID, Label: ip.Address, StatusID: ip.StatusID}
}
