package controllers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"

	"github.com/annberg/school-pulse-backend/models"
	"github.com/annberg/school-pulse-backend/utils"
)

func TestGateOpensAfterFiveClicks(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db)

	for i := 1; i <= 4; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/blog/gate/click", "", map[string]string{
			"visitor_id": "visitor-a",
		})
		body := decodeBody(t, w)
		if body["open"] != false {
			t.Fatalf("гейт открылся на клике %d", i)
		}
	}

	w := doJSON(t, r, http.MethodPost, "/api/blog/gate/click", "", map[string]string{
		"visitor_id": "visitor-a",
	})
	body := decodeBody(t, w)
	if body["open"] != true {
		t.Fatalf("пятый клик должен открыть модалку: %v", body)
	}
	if body["clicks"].(float64) != 0 {
		t.Fatalf("счётчик должен сброситься: %v", body["clicks"])
	}
}

func TestAdminLoginNotAllowListed(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db)
	t.Setenv("JWT_SECRET", "test-secret")

	// Валидный аккаунт, но не в allow-list
	seedUser(t, db, "user@school.ru", "secret123", models.RoleStudent)

	w := doJSON(t, r, http.MethodPost, "/api/blog/admin/login", "", map[string]string{
		"email":    "user@school.ru",
		"password": "secret123",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("не-админ: ожидали 403, получили %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != "Нет прав администратора" {
		t.Fatalf("неожиданное сообщение: %v", body["error"])
	}
	// Сессия не выдана
	if _, ok := body["token"]; ok {
		t.Fatalf("не-админ не должен получать токен")
	}
}

func TestAdminLoginAllowListed(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db)
	t.Setenv("JWT_SECRET", "test-secret")

	admin := seedUser(t, db, "admin@school.ru", "secret123", models.RoleTeacher)
	if err := db.Create(&models.BlogAdmin{UserID: admin.ID}).Error; err != nil {
		t.Fatalf("allow-list: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/blog/admin/login", "", map[string]string{
		"email":    "admin@school.ru",
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("админ: ожидали 200, получили %d (%s)", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["token"] == nil || body["admin"] != true {
		t.Fatalf("ожидали токен и admin=true: %v", body)
	}
}

func postMultipart(t *testing.T, r http.Handler, path, token string, fields map[string]string, fileName, fileCT string, fileContent []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+fileName+`"`)
		h.Set("Content-Type", fileCT)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(fileContent); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreatePostRequiresAdmin(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db)
	t.Setenv("JWT_SECRET", "test-secret")

	// Учитель, но не в allow-list блога
	teacher := seedUser(t, db, "teacher@school.ru", "secret123", models.RoleTeacher)
	token, _ := utils.GenerateToken(teacher.ID.String(), string(models.RoleTeacher))

	w := postMultipart(t, r, "/api/blog/posts", token, map[string]string{
		"title":   "Заголовок",
		"content": "Текст",
	}, "", "", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("без allow-list ожидали 403, получили %d", w.Code)
	}
}

func TestCreateAndDeletePost(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db)
	t.Setenv("JWT_SECRET", "test-secret")

	admin := seedUser(t, db, "admin@school.ru", "secret123", models.RoleTeacher)
	db.Create(&models.BlogAdmin{UserID: admin.ID})
	token, _ := utils.GenerateToken(admin.ID.String(), string(models.RoleTeacher))

	// Пост без обложки: storage не участвует
	w := postMultipart(t, r, "/api/blog/posts", token, map[string]string{
		"title":   "Как пережить экзамены",
		"content": "Дышите глубже.",
	}, "", "", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: ожидали 201, получили %d (%s)", w.Code, w.Body.String())
	}

	var post models.BlogPost
	if err := db.First(&post).Error; err != nil {
		t.Fatalf("post: %v", err)
	}
	if post.Slug == "" {
		t.Fatalf("slug должен генерироваться из заголовка")
	}

	// Публичный список видит пост
	w = doJSON(t, r, http.MethodGet, "/api/blog/posts", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}

	// Удаление: запись уходит, обложки не трогаем
	w = doJSON(t, r, http.MethodDelete, "/api/blog/posts/"+post.ID.String(), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: ожидали 200, получили %d", w.Code)
	}
	var count int64
	db.Model(&models.BlogPost{}).Count(&count)
	if count != 0 {
		t.Fatalf("пост должен быть удалён")
	}
}

func TestCreatePostValidatesCover(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db)
	t.Setenv("JWT_SECRET", "test-secret")

	admin := seedUser(t, db, "admin@school.ru", "secret123", models.RoleTeacher)
	db.Create(&models.BlogAdmin{UserID: admin.ID})
	token, _ := utils.GenerateToken(admin.ID.String(), string(models.RoleTeacher))

	// Слишком большой файл отклоняется до любых сетевых вызовов
	big := make([]byte, maxCoverSize+1)
	w := postMultipart(t, r, "/api/blog/posts", token, map[string]string{
		"title":   "Пост",
		"content": "Текст",
	}, "big.png", "image/png", big)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("файл >5МБ: ожидали 400, получили %d", w.Code)
	}

	// Не-изображение отклоняется
	w = postMultipart(t, r, "/api/blog/posts", token, map[string]string{
		"title":   "Пост",
		"content": "Текст",
	}, "doc.pdf", "application/pdf", []byte("%PDF"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("не-изображение: ожидали 400, получили %d", w.Code)
	}

	// Ни одна вставка не прошла
	var count int64
	db.Model(&models.BlogPost{}).Count(&count)
	if count != 0 {
		t.Fatalf("невалидная обложка не должна приводить к вставке")
	}
}

func TestGateInertForLoggedInAdmin(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(db)
	t.Setenv("JWT_SECRET", "test-secret")

	admin := seedUser(t, db, "admin@school.ru", "secret123", models.RoleTeacher)
	db.Create(&models.BlogAdmin{UserID: admin.ID})
	token, _ := utils.GenerateToken(admin.ID.String(), string(models.RoleTeacher))

	visitorID := uuid.NewString()
	for i := 0; i < 7; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/blog/gate/click", token, map[string]string{
			"visitor_id": visitorID,
		})
		body := decodeBody(t, w)
		if body["open"] != false {
			t.Fatalf("гейт должен быть неактивен при активной админ-сессии")
		}
	}
}
