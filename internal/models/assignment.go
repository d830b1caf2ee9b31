package models

import "time"

// Assignment: привязка оборудования (и, опционально, IP) к сотруднику,
// филиалу или подразделению. EndTime == nil означает активную привязку.
type Assignment struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	EquipmentID       uint       `gorm:"index;not null" json:"equipment_id"`
	EmployeeID        *uint      `gorm:"index" json:"employee_id"`
	BranchID          *uint      `gorm:"index" json:"branch_id"`
	AreaID            *uint      `gorm:"index" json:"area_id"`
	ParentEquipmentID *uint      `gorm:"index" json:"parent_equipment_id"`
	IPID              *uint      `gorm:"column:ip_id;index" json:"ip_id"`
	StatusID          uint       `gorm:"index;not null" json:"status_id"`
	StartTime         time.Time  `gorm:"not null" json:"start_time"`
	EndTime           *time.Time `gorm:"index" json:"end_time"`
	Comment           *string    `gorm:"type:text" json:"comment"`

	// Заполнены только у активной записи; уникальный индекс не даёт
	// двум активным привязкам делить оборудование или IP.
	ActiveEquipmentID *uint `gorm:"uniqueIndex:uq_assignments_active_equipment" json:"-"`
	ActiveIPID        *uint `gorm:"column:active_ip_id;uniqueIndex:uq_assignments_active_ip" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Assignment) TableName() string { return "assignments" }

func (a *Assignment) Active() bool { return a.EndTime == nil }
