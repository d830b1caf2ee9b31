package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Username     string `gorm:"type:varchar(120);uniqueIndex" json:"username"`
	PasswordHash string `gorm:"type:varchar(100)" json:"-"`
	Role         string `gorm:"type:varchar(32);default:'soporte'" json:"role"`
}

func (User) TableName() string { return "usuarios" }
