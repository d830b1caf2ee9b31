package models

import "time"

type Maintenance struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	EquipmentID uint       `gorm:"index;not null" json:"equipment_id"`
	StatusID    uint       `gorm:"index;not null" json:"status_id"`
	Description string     `gorm:"type:text" json:"description"`
	Technician  string     `gorm:"type:varchar(200)" json:"technician,omitempty"`
	Resolution  string     `gorm:"type:text" json:"resolution,omitempty"`
	StartTime   time.Time  `gorm:"not null" json:"start_time"`
	EndTime     *time.Time `json:"end_time"`

	ActiveEquipmentID *uint `gorm:"uniqueIndex:uq_mantenimientos_active_equipment" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Maintenance) TableName() string { return "mantenimientos" }
