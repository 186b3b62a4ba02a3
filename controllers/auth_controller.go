package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"cloud.google.com/go/auth/credentials/idtoken"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/annberg/school-pulse-backend/config"
	"github.com/annberg/school-pulse-backend/models"
	"github.com/annberg/school-pulse-backend/services"
	"github.com/annberg/school-pulse-backend/utils"
	"github.com/annberg/school-pulse-backend/ws"
)

// Состояния потока входа, возвращаются клиенту в поле state.
const (
	StateAuthenticated             = "authenticated"
	StateAwaitingTeacherCode       = "awaiting_teacher_code"
	StateAwaitingEmailVerification = "awaiting_email_verification"
)

// ====== INPUT STRUCTS ======
type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	// Выбранная на экране роль — подсказка UI, а не грант
	IntendedRole string `json:"intended_role"`
	TeacherCode  string `json:"teacher_code"`
}

type LoginInput struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	IntendedRole string `json:"intended_role"`
}

// ====== HANDLERS ======
func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Проверяем, занят ли email
	var existing models.User
	if err := config.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email уже используется"})
		return
	}

	// Аккаунт всегда создаётся учеником, кроме случая, когда код
	// учителя прошёл проверку до создания аккаунта
	role := models.RoleStudent
	if input.IntendedRole == string(models.RoleTeacher) {
		if err := services.CheckTeacherCode(input.TeacherCode); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный код доступа учителя"})
			return
		}
		role = models.RoleTeacher
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось захешировать пароль"})
		return
	}

	metadata, _ := json.Marshal(map[string]string{"role": string(role)})

	confirmRequired := os.Getenv("EMAIL_CONFIRM") == "true"

	newUser := models.User{
		ID:             uuid.New(),
		FullName:       input.FullName,
		Email:          input.Email,
		Password:       string(hashed),
		Metadata:       metadata,
		EmailConfirmed: !confirmRequired,
	}
	if confirmRequired {
		newUser.ConfirmToken = uuid.NewString()
	}

	if err := config.DB.Create(&newUser).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании пользователя"})
		return
	}

	profile := models.Profile{UserID: newUser.ID, Role: role}
	if err := config.DB.Create(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании профиля"})
		return
	}

	if confirmRequired {
		// Письмо не блокирует ответ
		go func(email, name, token string) {
			subject := "Подтвердите почту в School Pulse"
			body := `
			<h3>Здравствуйте, ` + name + `!</h3>
			<p>Вы зарегистрировались на платформе <b>School Pulse</b>.</p>
			<p>Для подтверждения почты перейдите по ссылке:<br>
			<a href="` + os.Getenv("APP_URL") + `/api/auth/confirm?token=` + token + `">Подтвердить email</a></p>
			<hr>
			<p><i>Это автоматическое письмо, отвечать на него не нужно.</i></p>
			`
			if err := utils.SendEmail(email, subject, body); err != nil {
				log.Println("Ошибка отправки письма:", err)
			}
		}(newUser.Email, newUser.FullName, newUser.ConfirmToken)

		c.JSON(http.StatusCreated, gin.H{
			"message": "Регистрация прошла успешно, подтвердите email",
			"state":   StateAwaitingEmailVerification,
		})
		return
	}

	token, err := utils.GenerateToken(newUser.ID.String(), string(role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать токен"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Регистрация прошла успешно",
		"state":   StateAuthenticated,
		"token":   token,
		"user": gin.H{
			"id":        newUser.ID,
			"email":     newUser.Email,
			"full_name": newUser.FullName,
			"role":      role,
		},
	})
}

// ConfirmEmail завершает состояние awaiting_email_verification.
func ConfirmEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Отсутствует токен подтверждения"})
		return
	}

	var user models.User
	if err := config.DB.Where("confirm_token = ?", token).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Токен подтверждения не найден"})
		return
	}

	user.EmailConfirmed = true
	user.ConfirmToken = ""
	if err := config.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось подтвердить email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email подтверждён, можно войти"})
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный email или пароль"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверный email или пароль"})
		return
	}

	if !user.EmailConfirmed {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Сначала подтвердите email",
			"state": StateAwaitingEmailVerification,
		})
		return
	}

	// Роль заново выводится из БД при каждом входе
	role := services.ResolveRole(config.DB, user.ID, user.Metadata)

	// Ученик с подсказкой "учитель" не получает учительскую навигацию:
	// сначала код доступа
	state := StateAuthenticated
	if role == models.RoleStudent && input.IntendedRole == string(models.RoleTeacher) {
		state = StateAwaitingTeacherCode
	}

	token, err := utils.GenerateToken(user.ID.String(), string(role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать токен"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Вход выполнен",
		"state":   state,
		"token":   token,
		"user": gin.H{
			"id":        user.ID,
			"email":     user.Email,
			"full_name": user.FullName,
			"role":      role,
		},
	})
}

type GoogleLoginInput struct {
	IDToken string `json:"id_token" binding:"required"`
}

func GoogleLogin(c *gin.Context) {
	var input GoogleLoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, err := idtoken.Validate(c, input.IDToken, os.Getenv("GOOGLE_CLIENT_ID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Токен Google недействителен"})
		return
	}

	email, _ := payload.Claims["email"].(string)
	fullName, _ := payload.Claims["name"].(string)

	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err != nil {
		// Первый вход через Google -> создаём аккаунт ученика
		metadata, _ := json.Marshal(map[string]string{"role": string(models.RoleStudent)})
		user = models.User{
			ID:             uuid.New(),
			Email:          email,
			FullName:       fullName,
			Metadata:       metadata,
			EmailConfirmed: true, // почта подтверждена Google
			// Password пустой: вход только через Google
		}
		if err := config.DB.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать пользователя Google"})
			return
		}
		profile := models.Profile{UserID: user.ID, Role: models.RoleStudent}
		if err := config.DB.Create(&profile).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать профиль"})
			return
		}
	}

	// Дальше поток идентичен входу по паролю
	role := services.ResolveRole(config.DB, user.ID, user.Metadata)

	token, err := utils.GenerateToken(user.ID.String(), string(role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать токен"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state": StateAuthenticated,
		"token": token,
		"user": gin.H{
			"id":        user.ID,
			"email":     user.Email,
			"full_name": user.FullName,
			"role":      role,
		},
	})
}

type TeacherCodeInput struct {
	Code string `json:"code" binding:"required"`
}

// VerifyTeacherCode — серверная проверка кода доступа. При успехе профиль
// повышается до teacher, роль перерезолвливается и выдаётся новый токен.
func VerifyTeacherCode(c *gin.Context) {
	var input TeacherCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	uid, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id некорректен"})
		return
	}

	if err := services.VerifyTeacherCode(config.DB, uid, input.Code); err != nil {
		if errors.Is(err, services.ErrWrongTeacherCode) {
			// Поток остаётся в awaiting_teacher_code, можно сразу повторить
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Неверный код доступа",
				"state": StateAwaitingTeacherCode,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось проверить код"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", uid).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
		return
	}

	role := services.ResolveRole(config.DB, uid, user.Metadata)

	token, err := utils.GenerateToken(uid.String(), string(role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать токен"})
		return
	}

	// Открытые экраны перепроверяют свои права по этому событию
	ws.BroadcastAuthStateChanged(uid.String(), string(role))

	c.JSON(http.StatusOK, gin.H{
		"verified": true,
		"state":    StateAuthenticated,
		"token":    token,
		"role":     role,
	})
}

type ChangePasswordInput struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func ChangePassword(c *gin.Context) {
	db := config.DB
	userID := c.GetString("user_id")

	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.OldPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Старый пароль неверен"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось захешировать новый пароль"})
		return
	}

	user.Password = string(hashed)
	if err := db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении пароля"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Пароль изменён",
	})
}
