package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/annberg/school-pulse-backend/config"
	"github.com/annberg/school-pulse-backend/middleware"
	"github.com/annberg/school-pulse-backend/routes"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("Файл .env не найден")
	}

	config.InitDB()

	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	r = routes.SetupRouter(r, config.DB)

	r.GET("/", func(c *gin.Context) {
		c.String(200, "School Pulse server is running")
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Server running at Port:" + port)
	r.Run(":" + port)
}
