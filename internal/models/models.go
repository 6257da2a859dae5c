package models

import "time"

// Base — общие колонки любой управляемой записи.
// Временные метки выставляет repo.Store (create — обе, update — updated_at).
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Имена ролей, на которых держится авторизация.
const (
	RoleEndUser    = "endUser"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superAdmin"
)

type Role struct {
	Base
	Name        string  `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Description *string `json:"description"`
}

func (Role) TableName() string { return "roles" }

type User struct {
	Base
	Email            string  `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password         string  `gorm:"not null" json:"-"`
	VerificationCode *string `json:"-"`
	Confirmed        bool    `gorm:"not null;default:false" json:"confirmed"`
	RoleID           uint    `gorm:"not null;index" json:"role_id"`
	Role             *Role   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (User) TableName() string { return "users" }
