package services

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/annberg/school-pulse-backend/models"
)

// ResolveRole определяет роль аккаунта: сначала профиль, затем метаданные,
// иначе student. Ошибка запроса приравнивается к отсутствию роли —
// резолвер никогда не возвращает ошибку. Результат не кешируется:
// вызывается заново при каждом входе и смене состояния сессии.
func ResolveRole(db *gorm.DB, userID uuid.UUID, metadata datatypes.JSON) models.UserRole {
	var profile models.Profile
	if err := db.First(&profile, "user_id = ?", userID).Error; err == nil {
		switch profile.Role {
		case models.RoleTeacher, models.RoleStudent:
			return profile.Role
		}
	}

	if len(metadata) > 0 {
		var meta map[string]interface{}
		if err := json.Unmarshal(metadata, &meta); err == nil {
			if r, ok := meta["role"].(string); ok {
				switch models.UserRole(r) {
				case models.RoleTeacher, models.RoleStudent:
					return models.UserRole(r)
				}
			}
		}
	}

	return models.RoleStudent
}
