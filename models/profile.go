package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile хранит серверную копию роли. Поднимается до teacher
// только через проверку кода доступа (см. services.VerifyTeacherCode).
type Profile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role      UserRole  `gorm:"type:varchar(20)" json:"role"` // пустая строка = роль не задана
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
