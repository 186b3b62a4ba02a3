package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CheckIn — одна запись самочувствия. Создаётся ровно один раз
// при завершении мастера и больше не изменяется.
type CheckIn struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ClassID uuid.UUID `gorm:"type:uuid;not null;index" json:"class_id"`

	Mood       int            `gorm:"not null" json:"mood"`                 // 1..5
	Emotions   datatypes.JSON `gorm:"type:jsonb" json:"emotions"`           // множество меток из словаря
	Factors    datatypes.JSON `gorm:"type:jsonb" json:"factors"`            // множество меток из словаря
	Comment    string         `gorm:"type:text" json:"comment"`             // необязательный
	SleepHours float64        `gorm:"type:numeric(4,1)" json:"sleep_hours"` // 0..12, шаг 0.5
	Energy     int            `gorm:"not null" json:"energy"`               // 1..10

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
