package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Области действия статусов каталога.
const (
	ScopeEquipment   = "equipo"
	ScopeIP          = "ip"
	ScopeAssignment  = "asignacion"
	ScopeMaintenance = "mantenimiento"
)

// Имена статусов, на которые опирается бизнес-логика.
const (
	StatusAvailable   = "Disponible"
	StatusAssigned    = "Asignado"
	StatusInRepair    = "En mantenimiento"
	StatusActive      = "Activa"
	StatusClosed      = "Finalizada"
	StatusMaintOpen   = "Abierto"
	StatusMaintClosed = "Cerrado"
)

type Status struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"type:varchar(64);uniqueIndex:ux_status_name_scope,priority:1" json:"name"`
	Scope string `gorm:"type:varchar(32);uniqueIndex:ux_status_name_scope,priority:2" json:"scope"`
}

func (Status) TableName() string { return "status" }

// ResourceStatusHistory: журнал смен статуса оборудования и IP.
type ResourceStatusHistory struct {
	gorm.Model
	ResourceKind string         `gorm:"type:varchar(16);index:idx_rsh_resource,priority:1" json:"resource_kind"`
	ResourceID   uint           `gorm:"index:idx_rsh_resource,priority:2" json:"resource_id"`
	FromStatusID uint           `json:"from_status_id"`
	ToStatusID   uint           `json:"to_status_id"`
	Reason       string         `gorm:"type:varchar(64)" json:"reason"`
	Meta         datatypes.JSON `json:"meta,omitempty"`
}

func (ResourceStatusHistory) TableName() string { return "resource_status_history" }
