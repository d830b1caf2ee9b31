package assign

import (
	"context"

	"inventario/internal/apperr"
	"inventario/internal/catalog"
	"inventario/internal/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// LoadSnapshot читает оборудование, IP и активные привязки параллельно.
// Снимок не кешируется: каждый запрос формы получает свежий.
func LoadSnapshot(ctx context.Context, db *gorm.DB) (Snapshot, error) {
	var s Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return db.WithContext(gctx).Order("serial, id").Find(&s.Equipment).Error
	})
	g.Go(func() error {
		return db.WithContext(gctx).Order("id").Find(&s.IPAddresses).Error
	})
	g.Go(func() error {
		return db.WithContext(gctx).Where("end_time IS NULL").Order("id").Find(&s.Assignments).Error
	})
	g.Go(func() (err error) {
		s.Codes, err = catalog.Resolve(gctx, db)
		return err
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, apperr.Infra(err)
	}
	if s.Equipment == nil {
		s.Equipment = []models.Equipment{}
	}
	if s.IPAddresses == nil {
		s.IPAddresses = []models.IPAddress{}
	}
	return s, nil
}

// Candidates: ответ для формы привязки.
type Candidates struct {
	Equipment       []models.Equipment `json:"equipment"`
	ParentEquipment []models.Equipment `json:"parent_equipment"`
	IPAddresses     []models.IPAddress `json:"ip_addresses"`
}

func (s *Store) Candidates(ctx context.Context, c Context) (*Candidates, error) {
	snap, err := LoadSnapshot(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return &Candidates{
		Equipment:       EligibleEquipment(snap, c),
		ParentEquipment: EligibleParentEquipment(snap, c),
		IPAddresses:     EligibleIPAddresses(snap, c),
	}, nil
}
