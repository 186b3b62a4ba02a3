package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/annberg/school-pulse-backend/controllers"
	"github.com/annberg/school-pulse-backend/middleware"
	"github.com/annberg/school-pulse-backend/models"
	"github.com/annberg/school-pulse-backend/ws"
)

func SetupRouter(r *gin.Engine, db *gorm.DB) *gin.Engine {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", controllers.HealthCheck)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.GET("/confirm", controllers.ConfirmEmail)
		auth.POST("/login", controllers.Login)
		auth.POST("/logingoogle", controllers.GoogleLogin)
		auth.POST("/teacher-code", middleware.AuthMiddleware(), controllers.VerifyTeacherCode)
		auth.POST("/change-password", middleware.AuthMiddleware(), controllers.ChangePassword)
	}

	student := api.Group("/student")
	{
		student.Use(middleware.AuthMiddleware(), middleware.DBMiddleware(db))

		// Мастер чек-ина: строго линейные 4 шага
		student.GET("/checkin/vocab", controllers.GetCheckinVocabulary)
		student.POST("/checkin/draft", controllers.StartDraft)
		student.GET("/checkin/draft", controllers.GetDraft)
		student.PATCH("/checkin/draft", controllers.UpdateDraft)
		student.DELETE("/checkin/draft", controllers.AbandonDraft)
		student.POST("/checkin/draft/emotions/toggle", controllers.ToggleEmotion)
		student.POST("/checkin/draft/factors/toggle", controllers.ToggleFactor)
		student.POST("/checkin/draft/next", controllers.WizardNext)
		student.POST("/checkin/draft/back", controllers.WizardBack)
		student.GET("/checkin/history", controllers.GetMyCheckIns)
	}

	teacher := api.Group("/teacher")
	{
		teacher.Use(middleware.DBMiddleware(db), middleware.RequireRoles(string(models.RoleTeacher)))

		// Панель учителя
		teacher.POST("/classes", controllers.CreateClass)
		teacher.GET("/classes", controllers.GetMyClasses)
		teacher.GET("/classes/:id/checkins", controllers.GetClassCheckins)
		teacher.GET("/classes/:id/summary", controllers.GetClassSummary)
	}

	blog := api.Group("/blog")
	{
		blog.Use(middleware.DBMiddleware(db))

		blog.GET("/posts", controllers.GetPosts)
		blog.GET("/posts/:slug", controllers.GetPostBySlug)
		blog.POST("/gate/click", middleware.OptionalAuthMiddleware(), controllers.GateClick)
		blog.POST("/admin/login", controllers.AdminLogin)

		// Привилегированные действия: allow-list проверяется на каждом запросе
		blog.POST("/posts", middleware.RequireBlogAdmin(), controllers.CreatePost)
		blog.DELETE("/posts/:id", middleware.RequireBlogAdmin(), controllers.DeletePost)
	}

	// Прокси к LLM API, контракт edge-функции
	api.OPTIONS("/chat", controllers.ChatOptions)
	api.POST("/chat", controllers.ChatProxy)

	r.GET("/ws/class/:id", ws.HandleClassWebSocket)
	r.GET("/ws/status", ws.HandleGlobalWebSocket)

	return r
}
