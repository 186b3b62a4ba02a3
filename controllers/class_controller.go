package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/annberg/school-pulse-backend/models"
)

type CreateClassInput struct {
	Name string `json:"name" binding:"required"`
}

func CreateClass(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var input CreateClassInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	class := models.Class{
		ID:        uuid.New(),
		Name:      input.Name,
		TeacherID: uid,
	}
	if err := db.Create(&class).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать класс"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Класс создан",
		"class":   class,
	})
}

func GetMyClasses(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var classes []models.Class
	if err := db.Where("teacher_id = ?", uid).Order("created_at ASC").Find(&classes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось загрузить классы"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

// ownClass проверяет, что класс принадлежит текущему учителю.
func ownClass(c *gin.Context, db *gorm.DB, uid uuid.UUID) (*models.Class, bool) {
	classID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный id класса"})
		return nil, false
	}

	var class models.Class
	if err := db.First(&class, "id = ?", classID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Класс не найден"})
		return nil, false
	}
	if class.TeacherID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "Это не ваш класс"})
		return nil, false
	}
	return &class, true
}

// GetClassCheckins — лента чек-инов класса с фильтром по датам и пагинацией.
func GetClassCheckins(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	class, ok := ownClass(c, db, uid)
	if !ok {
		return
	}

	query := db.Model(&models.CheckIn{}).Where("class_id = ?", class.ID)

	// --- Фильтр по датам ---
	const layout = "2006-01-02"
	if fromDateStr := c.Query("from_date"); fromDateStr != "" {
		if fromDate, err := time.Parse(layout, fromDateStr); err == nil {
			query = query.Where("created_at >= ?", fromDate)
		}
	}
	if toDateStr := c.Query("to_date"); toDateStr != "" {
		if toDate, err := time.Parse(layout, toDateStr); err == nil {
			toDate = toDate.Add(24 * time.Hour)
			query = query.Where("created_at < ?", toDate)
		}
	}

	// --- Пагинация ---
	limit := 20
	page := 1
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}

	var total int64
	query.Count(&total)

	var checkins []models.CheckIn
	if err := query.Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&checkins).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось загрузить чек-ины"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"checkins": checkins,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// GetClassSummary — средние показатели класса для панели учителя.
func GetClassSummary(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	class, ok := ownClass(c, db, uid)
	if !ok {
		return
	}

	var summary struct {
		Count     int64    `json:"count"`
		AvgMood   *float64 `json:"avg_mood"`
		AvgSleep  *float64 `json:"avg_sleep"`
		AvgEnergy *float64 `json:"avg_energy"`
	}

	row := db.Model(&models.CheckIn{}).
		Select("COUNT(*) as count, AVG(mood) as avg_mood, AVG(sleep_hours) as avg_sleep, AVG(energy) as avg_energy").
		Where("class_id = ?", class.ID)

	if err := row.Scan(&summary).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать сводку"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"class":   class,
		"summary": summary,
	})
}
