package models

import "time"

// Base: gorm.Model без soft-delete и с json-тегами.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Equipment: единица оборудования (ПК, монитор, принтер, комплектующее).
type Equipment struct {
	Base
	Serial   string `gorm:"type:varchar(120);uniqueIndex" json:"serial"`
	Name     string `gorm:"type:varchar(200)" json:"name"`
	Kind     string `gorm:"type:varchar(64)" json:"kind"`
	Brand    string `gorm:"type:varchar(120)" json:"brand"`
	Model    string `gorm:"type:varchar(120)" json:"model"`
	Hostname string `gorm:"type:varchar(253)" json:"hostname,omitempty"`
	MAC      string `gorm:"column:mac;type:varchar(17)" json:"mac,omitempty"`
	StatusID uint   `gorm:"index;not null" json:"status_id"`
}

func (Equipment) TableName() string { return "equipos" }

type IPAddress struct {
	Base
	Address  string `gorm:"type:varchar(45);uniqueIndex" json:"address"` // IPv4
	StatusID uint   `gorm:"index;not null" json:"status_id"`
	Note     string `gorm:"type:varchar(255)" json:"note,omitempty"`
}

func (IPAddress) TableName() string { return "direcciones_ip" }

type Employee struct {
	Base
	Name     string `gorm:"type:varchar(200)" json:"name"`
	Email    string `gorm:"type:varchar(200)" json:"email,omitempty"`
	BranchID *uint  `gorm:"index" json:"branch_id,omitempty"`
	AreaID   *uint  `gorm:"index" json:"area_id,omitempty"`
}

func (Employee) TableName() string { return "empleados" }

type Branch struct {
	Base
	Name string `gorm:"type:varchar(200);uniqueIndex" json:"name"`
}

func (Branch) TableName() string { return "sucursales" }

type Area struct {
	Base
	Name string `gorm:"type:varchar(200);uniqueIndex" json:"name"`
}

func (Area) TableName() string { return "areas" }
