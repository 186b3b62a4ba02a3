package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/annberg/school-pulse-backend/models"
	"github.com/annberg/school-pulse-backend/services"
	"github.com/annberg/school-pulse-backend/ws"
)

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	uid, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id некорректен"})
		return uuid.Nil, false
	}
	return uid, true
}

// GetCheckinVocabulary — словари для экранов мастера.
func GetCheckinVocabulary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"emotions":          services.EmotionVocabulary,
		"factor_categories": services.FactorCategoryOrder,
		"factors":           services.FactorCategories,
	})
}

type StartDraftInput struct {
	ClassID string `json:"class_id"`
}

// StartDraft открывает мастер. Без класса из контекста навигации мастер
// не стартует: ошибка и возврат на дашборд вместо "осиротевшей" записи.
func StartDraft(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var input StartDraftInput
	_ = c.ShouldBindJSON(&input)

	classID, err := uuid.Parse(input.ClassID)
	if input.ClassID == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "Чек-ин недоступен без класса",
			"redirect": "/dashboard",
		})
		return
	}

	var class models.Class
	if err := db.First(&class, "id = ?", classID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "Класс не найден",
			"redirect": "/dashboard",
		})
		return
	}

	draft := services.NewWizardDraft(uid, classID)
	services.Drafts.Put(draft)

	c.JSON(http.StatusCreated, draft.Snapshot())
}

func GetDraft(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	draft, ok := services.Drafts.Get(uid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Черновик не найден"})
		return
	}
	c.JSON(http.StatusOK, draft.Snapshot())
}

// AbandonDraft уничтожает черновик без сохранения.
func AbandonDraft(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	services.Drafts.Delete(uid)
	c.JSON(http.StatusOK, gin.H{"message": "Черновик удалён"})
}

type UpdateDraftInput struct {
	Mood           *int     `json:"mood"`
	SleepHours     *float64 `json:"sleep_hours"`
	Energy         *int     `json:"energy"`
	Comment        *string  `json:"comment"`
	FactorCategory *string  `json:"factor_category"`
}

func UpdateDraft(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	draft, ok := services.Drafts.Get(uid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Черновик не найден"})
		return
	}

	var input UpdateDraftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Mood != nil {
		if err := draft.SetMood(*input.Mood); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if input.SleepHours != nil {
		if err := draft.SetSleep(*input.SleepHours); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if input.Energy != nil {
		if err := draft.SetEnergy(*input.Energy); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if input.FactorCategory != nil {
		if err := draft.SetFactorCategory(*input.FactorCategory); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if input.Comment != nil {
		draft.SetComment(*input.Comment)
	}

	c.JSON(http.StatusOK, draft.Snapshot())
}

type ToggleInput struct {
	Label string `json:"label" binding:"required"`
}

func ToggleEmotion(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	draft, ok := services.Drafts.Get(uid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Черновик не найден"})
		return
	}

	var input ToggleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := draft.ToggleEmotion(input.Label); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, draft.Snapshot())
}

func ToggleFactor(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	draft, ok := services.Drafts.Get(uid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Черновик не найден"})
		return
	}

	var input ToggleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := draft.ToggleFactor(input.Label); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, draft.Snapshot())
}

// WizardNext — вперёд по шагам; на шаге 4 вместо инкремента происходит
// отправка: ровно одна запись чек-ина и уничтожение черновика.
func WizardNext(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	draft, ok := services.Drafts.Get(uid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Черновик не найден"})
		return
	}

	if submit := draft.Next(); !submit {
		c.JSON(http.StatusOK, draft.Snapshot())
		return
	}

	// Отправка: черновик атомарно изымается из хранилища, поэтому из
	// двух одновременных /next запись создаёт ровно один
	taken, ok := services.Drafts.Take(uid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Черновик не найден"})
		return
	}

	checkin, err := taken.ToCheckIn()
	if err != nil {
		// Черновик без класса не отправляем — назад на дашборд
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    err.Error(),
			"redirect": "/dashboard",
		})
		return
	}

	if err := db.Create(checkin).Error; err != nil {
		// Ошибка показывается как есть, черновик возвращается на шаг 4
		services.Drafts.Put(taken)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ws.BroadcastCheckinCreated(checkin.ClassID.String(), checkin.ID.String(), checkin.Mood)

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Чек-ин сохранён",
		"checkin":  checkin,
		"redirect": "/student/dashboard",
	})
}

func WizardBack(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	draft, ok := services.Drafts.Get(uid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Черновик не найден"})
		return
	}

	draft.Back()
	c.JSON(http.StatusOK, draft.Snapshot())
}

// GetMyCheckIns — история собственных чек-инов, новые сверху.
func GetMyCheckIns(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var checkins []models.CheckIn
	if err := db.Where("user_id = ?", uid).Order("created_at DESC").Find(&checkins).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось загрузить чек-ины"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkins": checkins})
}
