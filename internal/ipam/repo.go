package ipam

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"inventario/internal/apperr"
	"inventario/internal/catalog"
	"inventario/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	minImportPrefix = 16 // больше 65k адресов за раз не заводим
	maxImportPrefix = 30
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

type RangeResult struct {
	Prefix  string `json:"prefix"`
	Netmask string `json:"netmask"`
	Gateway string `json:"gateway"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
}

// ImportRange регистрирует все хостовые адреса IPv4-префикса в статусе "Disponible".
// Резервируются .0 (сеть), .1 (шлюз) и broadcast; уже существующие адреса пропускаются.
func (r *Repo) ImportRange(ctx context.Context, cidr, note string) (*RangeResult, error) {
	ip, nw, err := net.ParseCIDR(strings.TrimSpace(cidr))
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Code: "invalid_format", Field: "cidr", Err: err}
	}
	if ip.To4() == nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Code: "invalid_format", Field: "cidr", Err: errors.New("ipv6 not supported")}
	}
	ones, bits := nw.Mask.Size()
	if bits != 32 || ones < minImportPrefix || ones > maxImportPrefix {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Code: "invalid_format", Field: "cidr",
			Err: fmt.Errorf("prefix length must be /%d../%d", minImportPrefix, maxImportPrefix)}
	}

	codes, err := catalog.Resolve(ctx, r.db)
	if err != nil {
		return nil, err
	}

	netU := ip4ToUint(nw.IP.To4())
	first := netU + 2                       // .1: gateway
	last := netU + (1 << uint(32-ones)) - 2 // без broadcast

	rows := make([]models.IPAddress, 0, last-first+1)
	for u := first; u <= last; u++ {
		rows = append(rows, models.IPAddress{Address: uintToIP4(u).String(), StatusID: codes.IPAvailable, Note: note})
	}

	res := &RangeResult{
		Prefix:  nw.String(),
		Netmask: net.IP(nw.Mask).String(),
		Gateway: firstUsableIPv4(nw),
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var before int64
		if err := tx.Model(&models.IPAddress{}).Count(&before).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, 500).Error; err != nil {
			return err
		}
		var after int64
		if err := tx.Model(&models.IPAddress{}).Count(&after).Error; err != nil {
			return err
		}
		res.Created = int(after - before)
		return nil
	})
	if err != nil {
		return nil, apperr.Infra(err)
	}
	res.Skipped = len(rows) - res.Created
	return res, nil
}
