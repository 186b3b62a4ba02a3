package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware — глобальная CORS-политика для фронтенда.
// /api/chat исключён: эндпоинт чата сам выставляет свои заголовки
// (Access-Control-Allow-Origin: *) и должен принимать запросы
// с любого Origin.
func CORSMiddleware() gin.HandlerFunc {
	corsHandler := cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	})

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/api/chat" {
			c.Next()
			return
		}
		corsHandler(c)
	}
}
