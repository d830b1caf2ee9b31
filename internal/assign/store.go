// Package assign: жизненный цикл привязок оборудования (создание, редактирование,
// закрытие и подбор кандидатов для формы).
//
// Все проверки, запись привязки и смена статусов оборудования/IP выполняются в одной
// транзакции; при любой ошибке состояние хранилища не меняется.
package assign

import (
	"context"
	"errors"
	"time"

	"inventario/internal/apperr"
	"inventario/internal/catalog"
	idb "inventario/internal/db"
	"inventario/internal/logs"
	"inventario/internal/models"
	"inventario/internal/registry"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Resources: часть реестра, нужная жизненному циклу. Все методы принимают
// транзакцию вызывающего.
type Resources interface {
	GetResource(ctx context.Context, tx *gorm.DB, kind registry.Kind, id uint) (registry.Resource, error)
	LockResource(ctx context.Context, tx *gorm.DB, kind registry.Kind, id uint) (registry.Resource, error)
	SetResourceStatus(ctx context.Context, tx *gorm.DB, kind registry.Kind, id, statusID uint, reason string, meta map[string]any) error
	Exists(ctx context.Context, tx *gorm.DB, model any, id uint) (bool, error)
}

// Publisher получает события после коммита.
type Publisher interface {
	Publish(topic string, data any)
}

const (
	EventCreated = "assignment.created"
	EventUpdated = "assignment.updated"
	EventClosed  = "assignment.closed"
)

type Store struct {
	db  *gorm.DB
	res Resources
	pub Publisher
	now func() time.Time
}

type Option func(*Store)

func WithPublisher(p Publisher) Option { return func(s *Store) { s.pub = p } }

// WithClock подменяет источник текущего времени (для закрытия без end_time).
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func NewStore(db *gorm.DB, res Resources, opts ...Option) *Store {
	s := &Store{db: db, res: res, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

type CreateInput struct {
	EquipmentID       uint
	StartTime         time.Time
	StatusID          uint
	EmployeeID        *uint
	BranchID          *uint
	AreaID            *uint
	ParentEquipmentID *uint
	IPID              *uint
	Comment           *string
}

// Patch: частичное обновление; отсутствующие поля не меняются, null очищает поле.
type Patch struct {
	EquipmentID       Optional[uint]
	StartTime         Optional[time.Time]
	EndTime           Optional[time.Time]
	StatusID          Optional[uint]
	EmployeeID        Optional[uint]
	BranchID          Optional[uint]
	AreaID            Optional[uint]
	ParentEquipmentID Optional[uint]
	IPID              Optional[uint]
	Comment           Optional[string]
}

func (p Patch) applyTo(a *models.Assignment) {
	p.EquipmentID.apply(&a.EquipmentID)
	p.StartTime.apply(&a.StartTime)
	p.EndTime.applyPtr(&a.EndTime)
	p.StatusID.apply(&a.StatusID)
	p.EmployeeID.applyPtr(&a.EmployeeID)
	p.BranchID.applyPtr(&a.BranchID)
	p.AreaID.applyPtr(&a.AreaID)
	p.ParentEquipmentID.applyPtr(&a.ParentEquipmentID)
	p.IPID.applyPtr(&a.IPID)
	p.Comment.applyPtr(&a.Comment)
}

// Create проверяет и сохраняет новую активную привязку, переводя оборудование
// и IP в "Asignado".
func (s *Store) Create(ctx context.Context, in CreateInput) (*models.Assignment, error) {
	a := &models.Assignment{
		EquipmentID:       in.EquipmentID,
		StartTime:         in.StartTime,
		StatusID:          in.StatusID,
		EmployeeID:        in.EmployeeID,
		BranchID:          in.BranchID,
		AreaID:            in.AreaID,
		ParentEquipmentID: in.ParentEquipmentID,
		IPID:              in.IPID,
		Comment:           in.Comment,
	}
	if err := checkShape(a); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		codes, err := catalog.Resolve(ctx, tx)
		if err != nil {
			return err
		}
		h, err := s.checkReferences(ctx, tx, a, nil, codes)
		if err != nil {
			return err
		}
		if a.StatusID != codes.AssignmentActive {
			return apperr.Validation("invalid_status", "status_id")
		}
		if err := s.checkConflicts(ctx, tx, a, h, nil, codes); err != nil {
			return err
		}

		guard(a)
		if err := tx.Create(a).Error; err != nil {
			return mapWriteErr(err, a)
		}
		meta := map[string]any{"assignment_id": a.ID}
		if err := s.res.SetResourceStatus(ctx, tx, registry.KindEquipment, a.EquipmentID, codes.EquipmentAssigned, EventCreated, meta); err != nil {
			return err
		}
		if a.IPID != nil {
			if err := s.res.SetResourceStatus(ctx, tx, registry.KindIP, *a.IPID, codes.IPAssigned, EventCreated, meta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logFailure("create", 0, err)
		return nil, apperr.Infra(err)
	}

	fields := logrus.Fields{
		"assignment_id": a.ID,
		"equipment_id":  a.EquipmentID,
	}
	if a.IPID != nil {
		fields["ip_id"] = *a.IPID
	}
	logs.Logger.WithFields(fields).Info("assignment created")
	s.publish(EventCreated, a)
	return a, nil
}

// Update применяет patch к активной привязке. Закрытие (статус "Finalizada")
// освобождает оборудование и IP; смена оборудования или IP у активной записи
// освобождает прежний ресурс и резервирует новый.
func (s *Store) Update(ctx context.Context, id uint, p Patch) (*models.Assignment, error) {
	var (
		merged  models.Assignment
		closing bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		codes, err := catalog.Resolve(ctx, tx)
		if err != nil {
			return err
		}

		var cur models.Assignment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cur, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("assignment", id)
			}
			return apperr.Infra(err)
		}
		if cur.StatusID == codes.AssignmentClosed || !cur.Active() {
			return apperr.Conflict("assignment_closed", "id", id)
		}

		merged = cur
		p.applyTo(&merged)

		closing = merged.StatusID == codes.AssignmentClosed
		if closing {
			if err := keepsResources(&cur, &merged); err != nil {
				return err
			}
		}
		if !closing && merged.EndTime != nil {
			return apperr.Validation("end_time_requires_close", "end_time")
		}
		if closing && merged.EndTime == nil {
			end := s.now()
			if end.Before(merged.StartTime) {
				end = merged.StartTime
			}
			merged.EndTime = &end
		}
		if merged.EndTime != nil && merged.StartTime.After(*merged.EndTime) {
			return apperr.Validation("invalid_time_range", "end_time")
		}

		if err := checkShape(&merged); err != nil {
			return err
		}
		h, err := s.checkReferences(ctx, tx, &merged, &cur, codes)
		if err != nil {
			return err
		}
		if err := s.checkConflicts(ctx, tx, &merged, h, &cur, codes); err != nil {
			return err
		}

		guard(&merged)
		if err := tx.Save(&merged).Error; err != nil {
			return mapWriteErr(err, &merged)
		}
		return s.propagate(ctx, tx, &cur, &merged, codes)
	})
	if err != nil {
		s.logFailure("update", id, err)
		return nil, apperr.Infra(err)
	}

	event := EventUpdated
	if closing {
		event = EventClosed
	}
	logs.Logger.WithFields(logrus.Fields{
		"assignment_id": merged.ID,
		"event":         event,
	}).Info("assignment updated")
	s.publish(event, &merged)
	return &merged, nil
}

// Close: сокращение для Update со статусом "Finalizada".
func (s *Store) Close(ctx context.Context, id uint, end *time.Time, comment *string) (*models.Assignment, error) {
	codes, err := catalog.Resolve(ctx, s.db)
	if err != nil {
		return nil, err
	}
	p := Patch{StatusID: Some(codes.AssignmentClosed)}
	if end != nil {
		p.EndTime = Some(*end)
	}
	if comment != nil {
		p.Comment = Some(*comment)
	}
	return s.Update(ctx, id, p)
}

// propagate приводит статусы ресурсов в соответствие с новой записью.
func (s *Store) propagate(ctx context.Context, tx *gorm.DB, cur, next *models.Assignment, codes catalog.Codes) error {
	meta := map[string]any{"assignment_id": cur.ID}
	reason := EventUpdated
	if !next.Active() {
		reason = EventClosed
	}
	set := func(kind registry.Kind, id, status uint) error {
		return s.res.SetResourceStatus(ctx, tx, kind, id, status, reason, meta)
	}

	if !next.Active() {
		if err := set(registry.KindEquipment, cur.EquipmentID, codes.EquipmentAvailable); err != nil {
			return err
		}
		if cur.IPID != nil {
			return set(registry.KindIP, *cur.IPID, codes.IPAvailable)
		}
		return nil
	}

	if next.EquipmentID != cur.EquipmentID {
		if err := set(registry.KindEquipment, cur.EquipmentID, codes.EquipmentAvailable); err != nil {
			return err
		}
		if err := set(registry.KindEquipment, next.EquipmentID, codes.EquipmentAssigned); err != nil {
			return err
		}
	}
	if !sameID(cur.IPID, next.IPID) {
		if cur.IPID != nil {
			if err := set(registry.KindIP, *cur.IPID, codes.IPAvailable); err != nil {
				return err
			}
		}
		if next.IPID != nil {
			if err := set(registry.KindIP, *next.IPID, codes.IPAssigned); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id uint) (*models.Assignment, error) {
	var a models.Assignment
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("assignment", id)
		}
		return nil, apperr.Infra(err)
	}
	return &a, nil
}

type Filter struct {
	EquipmentID uint
	IPID        uint
	EmployeeID  uint
	BranchID    uint
	AreaID      uint
	StatusID    uint
	Active      *bool
	Order       string // "id" (по умолчанию), "start_time", "-start_time"
	Limit       int
	Offset      int
}

var listOrders = map[string]string{
	"":            "id",
	"id":          "id",
	"start_time":  "start_time, id",
	"-start_time": "start_time DESC, id DESC",
}

func (s *Store) List(ctx context.Context, f Filter) ([]models.Assignment, error) {
	order, ok := listOrders[f.Order]
	if !ok {
		return nil, apperr.Validation("invalid_format", "order")
	}
	q := s.db.WithContext(ctx).Order(order)
	for col, v := range map[string]uint{
		"equipment_id": f.EquipmentID,
		"ip_id":        f.IPID,
		"employee_id":  f.EmployeeID,
		"branch_id":    f.BranchID,
		"area_id":      f.AreaID,
		"status_id":    f.StatusID,
	} {
		if v != 0 {
			q = q.Where(col+" = ?", v)
		}
	}
	if f.Active != nil {
		if *f.Active {
			q = q.Where("end_time IS NULL")
		} else {
			q = q.Where("end_time IS NOT NULL")
		}
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var out []models.Assignment
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Infra(err)
	}
	return out, nil
}

// keepsResources: закрывающий patch не меняет оборудование, IP и родителя записи.
func keepsResources(cur, next *models.Assignment) error {
	switch {
	case next.EquipmentID != cur.EquipmentID:
		return apperr.Validation("immutable_on_close", "equipment_id")
	case !sameID(cur.IPID, next.IPID):
		return apperr.Validation("immutable_on_close", "ip_id")
	case !sameID(cur.ParentEquipmentID, next.ParentEquipmentID):
		return apperr.Validation("immutable_on_close", "parent_equipment_id")
	}
	return nil
}

// guard выставляет охранные колонки уникальности по активности записи.
func guard(a *models.Assignment) {
	if !a.Active() {
		a.ActiveEquipmentID, a.ActiveIPID = nil, nil
		return
	}
	eq := a.EquipmentID
	a.ActiveEquipmentID = &eq
	a.ActiveIPID = nil
	if a.IPID != nil {
		ip := *a.IPID
		a.ActiveIPID = &ip
	}
}

// mapWriteErr: гонка, проигранная на уникальном индексе, равна конфликту шагов 5–6.
func mapWriteErr(err error, a *models.Assignment) error {
	switch {
	case idb.DuplicateOn(err, "active_ip") && a.IPID != nil:
		return apperr.Conflict("ip_already_assigned", "ip_id", *a.IPID)
	case idb.DuplicateOn(err, "active_equipment"):
		return apperr.Conflict("equipment_already_assigned", "equipment_id", a.EquipmentID)
	}
	return apperr.Infra(err)
}

func (s *Store) publish(topic string, a *models.Assignment) {
	if s.pub != nil {
		s.pub.Publish(topic, a)
	}
}

func (s *Store) logFailure(op string, id uint, err error) {
	entry := logs.Logger.WithFields(logrus.Fields{"op": op, "assignment_id": id})
	if apperr.IsKind(err, apperr.KindInfrastructure) || !isTyped(err) {
		entry.WithError(err).Error("assignment operation failed")
		return
	}
	entry.WithError(err).Debug("assignment rejected")
}

func isTyped(err error) bool {
	_, ok := apperr.As(err)
	return ok
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
