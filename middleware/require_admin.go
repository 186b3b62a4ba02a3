package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/annberg/school-pulse-backend/models"
)

// RequireRoles пропускает только перечисленные роли. Роль берётся из
// токена, который подписан сервером — клиентские флаги здесь не участвуют.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		AuthMiddleware()(c)

		if c.IsAborted() {
			return
		}

		roleValue, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Не удалось определить роль пользователя"})
			c.Abort()
			return
		}

		role, ok := roleValue.(string)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка обработки роли пользователя"})
			c.Abort()
			return
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error": "У вас нет прав для доступа к этому ресурсу",
		})
		c.Abort()
	}
}

// RequireBlogAdmin сверяет пользователя с allow-list админов блога.
// Проверка выполняется на каждом запросе, результат не кешируется.
func RequireBlogAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		AuthMiddleware()(c)

		if c.IsAborted() {
			return
		}

		db := c.MustGet("db").(*gorm.DB)

		uid, err := uuid.Parse(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Некорректный идентификатор пользователя"})
			c.Abort()
			return
		}

		var admin models.BlogAdmin
		if err := db.First(&admin, "user_id = ?", uid).Error; err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Нет прав администратора"})
			c.Abort()
			return
		}

		c.Set("blog_admin", true)
		c.Next()
	}
}
