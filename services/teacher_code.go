package services

import (
	"crypto/subtle"
	"errors"
	"os"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/annberg/school-pulse-backend/models"
)

var ErrWrongTeacherCode = errors.New("неверный код доступа учителя")

// CheckTeacherCode сверяет код с TEACHER_ACCESS_CODE без записи в БД.
// Используется на регистрации, когда аккаунта ещё нет.
func CheckTeacherCode(code string) error {
	expected := os.Getenv("TEACHER_ACCESS_CODE")
	if expected == "" {
		// без настроенного кода повышение роли невозможно
		return ErrWrongTeacherCode
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(expected)) != 1 {
		return ErrWrongTeacherCode
	}
	return nil
}

// VerifyTeacherCode проверяет код и поднимает профиль пользователя до teacher.
// Повышение роли происходит только здесь, на сервере.
func VerifyTeacherCode(db *gorm.DB, userID uuid.UUID, code string) error {
	if err := CheckTeacherCode(code); err != nil {
		return err
	}

	var profile models.Profile
	if err := db.First(&profile, "user_id = ?", userID).Error; err != nil {
		profile = models.Profile{UserID: userID, Role: models.RoleTeacher}
		return db.Create(&profile).Error
	}

	profile.Role = models.RoleTeacher
	return db.Save(&profile).Error
}
