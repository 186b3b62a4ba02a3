package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserRole string

const (
	RoleTeacher UserRole = "teacher" // Учитель (доступ к панели класса)
	RoleStudent UserRole = "student" // Ученик
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName string    `gorm:"size:150;not null" json:"full_name"`
	Email    string    `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password string    `gorm:"type:text" json:"-"` // пустой для входа через Google
	// Метаданные аккаунта, задаются при регистрации (могут содержать "role")
	Metadata       datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
	EmailConfirmed bool           `gorm:"default:false" json:"email_confirmed"`
	ConfirmToken   string         `gorm:"size:100;index" json:"-"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	CheckIns []CheckIn `json:"checkins,omitempty"`
}
