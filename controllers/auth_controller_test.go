package controllers

import (
	"net/http"
	"testing"

	"github.com/annberg/school-pulse-backend/models"
)

func TestRegisterAndLoginStudent(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("EMAIL_CONFIRM", "")

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":         "student@school.ru",
		"password":      "secret123",
		"full_name":     "Маша Иванова",
		"intended_role": "student",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: ожидали 201, получили %d (%s)", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["state"] != StateAuthenticated {
		t.Fatalf("ожидали state=%s, получили %v", StateAuthenticated, body["state"])
	}
	if body["token"] == nil {
		t.Fatalf("регистрация без подтверждения почты должна выдавать токен")
	}

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":         "student@school.ru",
		"password":      "secret123",
		"intended_role": "student",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: ожидали 200, получили %d", w.Code)
	}
	body = decodeBody(t, w)
	if body["state"] != StateAuthenticated {
		t.Fatalf("ожидали authenticated, получили %v", body["state"])
	}
	user := body["user"].(map[string]interface{})
	if user["role"] != string(models.RoleStudent) {
		t.Fatalf("ожидали роль student, получили %v", user["role"])
	}
}

func TestRegisterTeacherRequiresCode(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("EMAIL_CONFIRM", "")
	t.Setenv("TEACHER_ACCESS_CODE", "SCHOOL-42")

	// Без кода аккаунт учителя не создаётся
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":         "teacher@school.ru",
		"password":      "secret123",
		"full_name":     "Анна Петровна",
		"intended_role": "teacher",
		"teacher_code":  "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("ожидали 401, получили %d", w.Code)
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Fatalf("аккаунт не должен создаваться при неверном коде")
	}

	// С верным кодом роль teacher пишется и в метаданные, и в профиль
	w = doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":         "teacher@school.ru",
		"password":      "secret123",
		"full_name":     "Анна Петровна",
		"intended_role": "teacher",
		"teacher_code":  "SCHOOL-42",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: ожидали 201, получили %d (%s)", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	user := body["user"].(map[string]interface{})
	if user["role"] != string(models.RoleTeacher) {
		t.Fatalf("ожидали роль teacher, получили %v", user["role"])
	}
}

func TestLoginStudentWithTeacherHintAwaitsCode(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TEACHER_ACCESS_CODE", "SCHOOL-42")

	seedUser(t, db, "student@school.ru", "secret123", models.RoleStudent)

	// Подсказка "учитель" не даёт учительскую навигацию
	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":         "student@school.ru",
		"password":      "secret123",
		"intended_role": "teacher",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: ожидали 200, получили %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["state"] != StateAwaitingTeacherCode {
		t.Fatalf("ожидали awaiting_teacher_code, получили %v", body["state"])
	}
	token := body["token"].(string)

	// Неверный код: состояние не меняется, можно повторить
	w = doJSON(t, r, http.MethodPost, "/api/auth/teacher-code", token, map[string]string{
		"code": "nope",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("неверный код: ожидали 401, получили %d", w.Code)
	}
	if decodeBody(t, w)["state"] != StateAwaitingTeacherCode {
		t.Fatalf("после неверного кода поток должен остаться в awaiting_teacher_code")
	}

	// Верный код: профиль повышен, новый токен уже с ролью teacher
	w = doJSON(t, r, http.MethodPost, "/api/auth/teacher-code", token, map[string]string{
		"code": "SCHOOL-42",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("верный код: ожидали 200, получили %d (%s)", w.Code, w.Body.String())
	}
	body = decodeBody(t, w)
	if body["verified"] != true || body["role"] != string(models.RoleTeacher) {
		t.Fatalf("ожидали verified teacher, получили %v", body)
	}

	// Повторный вход: роль приходит из профиля, код больше не нужен
	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":         "student@school.ru",
		"password":      "secret123",
		"intended_role": "teacher",
	})
	body = decodeBody(t, w)
	if body["state"] != StateAuthenticated {
		t.Fatalf("после повышения ожидали authenticated, получили %v", body["state"])
	}
}

func TestLoginProfileRoleBeatsMetadata(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db)
	t.Setenv("JWT_SECRET", "test-secret")

	// Метаданные: student, профиль: teacher — профиль решает
	user := seedUser(t, db, "mixed@school.ru", "secret123", models.RoleStudent)
	if err := db.Model(&models.Profile{}).Where("user_id = ?", user.ID).
		Update("role", models.RoleTeacher).Error; err != nil {
		t.Fatalf("update profile: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "mixed@school.ru",
		"password": "secret123",
	})
	body := decodeBody(t, w)
	userOut := body["user"].(map[string]interface{})
	if userOut["role"] != string(models.RoleTeacher) {
		t.Fatalf("профиль должен перекрывать метаданные, получили %v", userOut["role"])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db)
	t.Setenv("JWT_SECRET", "test-secret")

	seedUser(t, db, "student@school.ru", "secret123", models.RoleStudent)

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "student@school.ru",
		"password": "badpass",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("ожидали 401, получили %d", w.Code)
	}
}

func TestRegisterWithEmailConfirmation(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("EMAIL_CONFIRM", "true")

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":     "waiting@school.ru",
		"password":  "secret123",
		"full_name": "Петя Сидоров",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: ожидали 201, получили %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["state"] != StateAwaitingEmailVerification {
		t.Fatalf("ожидали awaiting_email_verification, получили %v", body["state"])
	}
	if body["token"] != nil {
		t.Fatalf("до подтверждения почты токен не выдаётся")
	}

	// Вход до подтверждения закрыт
	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "waiting@school.ru",
		"password": "secret123",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("до подтверждения ожидали 403, получили %d", w.Code)
	}

	var user models.User
	if err := db.First(&user, "email = ?", "waiting@school.ru").Error; err != nil {
		t.Fatalf("user: %v", err)
	}

	w = doJSON(t, r, http.MethodGet, "/api/auth/confirm?token="+user.ConfirmToken, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: ожидали 200, получили %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "waiting@school.ru",
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("после подтверждения ожидали 200, получили %d", w.Code)
	}
}
