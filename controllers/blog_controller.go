package controllers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/annberg/school-pulse-backend/models"
	"github.com/annberg/school-pulse-backend/services"
	"github.com/annberg/school-pulse-backend/utils"
)

const maxCoverSize = 5 * 1024 * 1024 // 5 МБ

func GetPosts(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	var posts []models.BlogPost
	if err := db.Order("created_at DESC").Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось загрузить посты"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func GetPostBySlug(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	var post models.BlogPost
	if err := db.First(&post, "slug = ?", c.Param("slug")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Пост не найден"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

type GateClickInput struct {
	VisitorID string `json:"visitor_id" binding:"required"`
}

// GateClick — скрытый счётчик в подвале блога. Пятый клик открывает
// модалку входа; для активного админа гейт неактивен.
func GateClick(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	var input GateClickInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Маршрут под OptionalAuth: наличие валидного токена админа
	// делает гейт неактивным
	isAdmin := false
	if uidStr := c.GetString("user_id"); uidStr != "" {
		if uid, err := uuid.Parse(uidStr); err == nil {
			var admin models.BlogAdmin
			if err := db.First(&admin, "user_id = ?", uid).Error; err == nil {
				isAdmin = true
			}
		}
	}

	open, clicks := services.BlogGate.Click(input.VisitorID, isAdmin)
	c.JSON(http.StatusOK, gin.H{"open": open, "clicks": clicks})
}

type AdminLoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin: после успешной аутентификации пользователь сверяется с
// allow-list. Не в списке — токен не выдаётся вовсе: аутентифицированная
// сессия без прав админа не остаётся активной.
func AdminLogin(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	var input AdminLoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := db.Where("email = ?", input.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный email или пароль"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный email или пароль"})
		return
	}

	var admin models.BlogAdmin
	if err := db.First(&admin, "user_id = ?", user.ID).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Нет прав администратора"})
		return
	}

	role := services.ResolveRole(db, user.ID, user.Metadata)
	token, err := utils.GenerateToken(user.ID.String(), string(role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать токен"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"admin": true,
		"user": gin.H{
			"id":        user.ID,
			"email":     user.Email,
			"full_name": user.FullName,
		},
	})
}

// CreatePost: обложка (если есть) валидируется до любых сетевых вызовов и
// загружается в storage по случайному пути ДО вставки записи. Если upload
// упал — вставка не выполняется; если упала вставка — объект подчищается.
func CreatePost(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	content := strings.TrimSpace(c.PostForm("content"))
	if title == "" || content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Заголовок и текст обязательны"})
		return
	}

	imageURL := ""
	if file, err := c.FormFile("image"); err == nil {
		if file.Size > maxCoverSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Изображение больше 5 МБ"})
			return
		}
		contentType := file.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Файл должен быть изображением"})
			return
		}

		url, err := utils.UploadImageToSupabase(file, uuid.NewString())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Ошибка загрузки изображения",
				"details": err.Error(),
			})
			return
		}
		imageURL = url
	}

	slugValue := slug.Make(title)
	var count int64
	db.Model(&models.BlogPost{}).Where("slug = ?", slugValue).Count(&count)
	if count > 0 {
		slugValue = fmt.Sprintf("%s-%s", slugValue, uuid.NewString()[:8])
	}

	post := models.BlogPost{
		ID:       uuid.New(),
		Title:    title,
		Slug:     slugValue,
		Content:  content,
		ImageURL: imageURL,
		AuthorID: uid,
	}
	if err := db.Create(&post).Error; err != nil {
		// Откат: не оставляем объект без записи
		if imageURL != "" {
			if delErr := utils.DeleteFileFromSupabase(imageURL); delErr != nil {
				log.Println("Не удалось удалить обложку после отката:", delErr)
			}
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать пост"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Пост опубликован",
		"post":    post,
	})
}

// DeletePost удаляет запись. Обложка в storage не подчищается.
func DeletePost(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный id поста"})
		return
	}

	var post models.BlogPost
	if err := db.First(&post, "id = ?", postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Пост не найден"})
		return
	}

	if err := db.Delete(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить пост"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Пост удалён"})
}
