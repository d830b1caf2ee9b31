package assign

import (
	"sort"

	"inventario/internal/catalog"
	"inventario/internal/ipam"
	"inventario/internal/models"
)

// Snapshot: согласованный срез данных, по которому считаются кандидаты формы.
// Assignments должен содержать как минимум все активные привязки.
type Snapshot struct {
	Equipment   []models.Equipment
	IPAddresses []models.IPAddress
	Assignments []models.Assignment
	Codes       catalog.Codes
}

// Context: режим формы. Current == nil означает создание новой привязки.
type Context struct {
	Current             *models.Assignment
	SelectedEquipmentID uint
}

// EligibleEquipment: оборудование в "Disponible" плюс текущее оборудование
// редактируемой привязки; по серийному номеру.
func EligibleEquipment(s Snapshot, c Context) []models.Equipment {
	var keep uint
	if c.Current != nil {
		keep = c.Current.EquipmentID
	}
	seen := make(map[uint]struct{}, len(s.Equipment))
	out := make([]models.Equipment, 0, len(s.Equipment))
	for _, e := range s.Equipment {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		if e.StatusID == s.Codes.EquipmentAvailable || (keep != 0 && e.ID == keep) {
			seen[e.ID] = struct{}{}
			out = append(out, e)
		}
	}
	sortBySerial(out)
	return out
}

// EligibleParentEquipment: всё оборудование, кроме выбранного. Без выбора
// (создание, оборудование ещё не указано) фильтр не применяется.
func EligibleParentEquipment(s Snapshot, c Context) []models.Equipment {
	selected := c.SelectedEquipmentID
	if selected == 0 && c.Current != nil {
		selected = c.Current.EquipmentID
	}
	seen := make(map[uint]struct{}, len(s.Equipment))
	out := make([]models.Equipment, 0, len(s.Equipment))
	for _, e := range s.Equipment {
		if _, dup := seen[e.ID]; dup || (selected != 0 && e.ID == selected) {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	sortBySerial(out)
	return out
}

// EligibleIPAddresses: IP в "Disponible" без чужой активной привязки плюс IP
// редактируемой записи; в числовом порядке октетов.
func EligibleIPAddresses(s Snapshot, c Context) []models.IPAddress {
	var (
		selfID uint
		keep   uint
	)
	if c.Current != nil {
		selfID = c.Current.ID
		if c.Current.IPID != nil {
			keep = *c.Current.IPID
		}
	}
	taken := make(map[uint]struct{})
	for _, a := range s.Assignments {
		if a.Active() && a.IPID != nil && a.ID != selfID {
			taken[*a.IPID] = struct{}{}
		}
	}

	seen := make(map[uint]struct{}, len(s.IPAddresses))
	out := make([]models.IPAddress, 0, len(s.IPAddresses))
	for _, ip := range s.IPAddresses {
		if _, dup := seen[ip.ID]; dup {
			continue
		}
		_, busy := taken[ip.ID]
		if (ip.StatusID == s.Codes.IPAvailable && !busy) || (keep != 0 && ip.ID == keep) {
			seen[ip.ID] = struct{}{}
			out = append(out, ip)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := ipam.CompareIPv4(out[i].Address, out[j].Address); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortBySerial(list []models.Equipment) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Serial != list[j].Serial {
			return list[i].Serial < list[j].Serial
		}
		return list[i].ID < list[j].ID
	})
}
