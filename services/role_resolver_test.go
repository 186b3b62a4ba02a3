package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/annberg/school-pulse-backend/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("открытие sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Profile{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestResolveRoleProfileWins(t *testing.T) {
	db := newTestDB(t)
	userID := uuid.New()

	if err := db.Create(&models.Profile{UserID: userID, Role: models.RoleTeacher}).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}

	// Метаданные говорят student — профиль важнее
	metadata := datatypes.JSON([]byte(`{"role":"student"}`))
	if role := ResolveRole(db, userID, metadata); role != models.RoleTeacher {
		t.Fatalf("ожидали teacher, получили %s", role)
	}
}

func TestResolveRoleMetadataFallback(t *testing.T) {
	db := newTestDB(t)
	userID := uuid.New()

	// Профиль есть, но роль не задана
	if err := db.Create(&models.Profile{UserID: userID}).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}

	metadata := datatypes.JSON([]byte(`{"role":"teacher"}`))
	if role := ResolveRole(db, userID, metadata); role != models.RoleTeacher {
		t.Fatalf("ожидали teacher из метаданных, получили %s", role)
	}
}

func TestResolveRoleDefaultsToStudent(t *testing.T) {
	db := newTestDB(t)
	userID := uuid.New()

	// Ни профиля, ни метаданных
	if role := ResolveRole(db, userID, nil); role != models.RoleStudent {
		t.Fatalf("ожидали student по умолчанию, получили %s", role)
	}

	// Мусор в метаданных тоже не повышает роль
	metadata := datatypes.JSON([]byte(`{"role":42}`))
	if role := ResolveRole(db, userID, metadata); role != models.RoleStudent {
		t.Fatalf("ожидали student, получили %s", role)
	}

	metadata = datatypes.JSON([]byte(`не json`))
	if role := ResolveRole(db, userID, metadata); role != models.RoleStudent {
		t.Fatalf("ожидали student при битых метаданных, получили %s", role)
	}
}

func TestVerifyTeacherCodeUpgradesProfile(t *testing.T) {
	db := newTestDB(t)
	userID := uuid.New()
	t.Setenv("TEACHER_ACCESS_CODE", "SECRET-2024")

	if err := db.Create(&models.Profile{UserID: userID, Role: models.RoleStudent}).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}

	if err := VerifyTeacherCode(db, userID, "wrong"); err != ErrWrongTeacherCode {
		t.Fatalf("неверный код должен отклоняться, получили %v", err)
	}
	if role := ResolveRole(db, userID, nil); role != models.RoleStudent {
		t.Fatalf("роль изменилась после неверного кода")
	}

	if err := VerifyTeacherCode(db, userID, "SECRET-2024"); err != nil {
		t.Fatalf("верный код: %v", err)
	}
	if role := ResolveRole(db, userID, nil); role != models.RoleTeacher {
		t.Fatalf("профиль должен быть повышен до teacher")
	}
}

func TestVerifyTeacherCodeWithoutConfig(t *testing.T) {
	db := newTestDB(t)
	t.Setenv("TEACHER_ACCESS_CODE", "")

	// Без настроенного кода повышение невозможно даже с пустым вводом
	if err := VerifyTeacherCode(db, uuid.New(), ""); err != ErrWrongTeacherCode {
		t.Fatalf("ожидали ErrWrongTeacherCode, получили %v", err)
	}
}
