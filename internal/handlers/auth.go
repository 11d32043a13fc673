package handlers

import (
	"errors"
	"net/http"
	"strings"

	"field-report/internal/database"
	"field-report/internal/models"
	"field-report/internal/report"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB  *gorm.DB
	Log *logrus.Logger
}

func NewAuthHandler(db *gorm.DB, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{DB: db, Log: log}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	var user models.User
	if err := h.DB.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		Error(c, http.StatusUnauthorized, CodeUnauthorized, "invalid username or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		Error(c, http.StatusUnauthorized, CodeUnauthorized, "invalid username or password")
		return
	}

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	sess.Set("role", string(user.Role))
	_ = sess.Save()

	if err := database.CreateAuditLog(h.DB, &user.ID, "user", user.ID, "login", ""); err != nil {
		h.Log.WithError(err).WithField("user_id", user.ID).Warn("login audit failed")
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

type userRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=superintendent foreman viewer"`
}

// CreateUser handles POST /api/users. Only admins reach it and admins cannot
// be created through the API.
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	username := strings.TrimSpace(req.Username)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		Error(c, http.StatusInternalServerError, string(report.KindStorage), "could not hash password")
		return
	}
	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.UserRole(req.Role),
	}
	err = h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return database.CreateAuditLog(tx, actorID(c), "user", user.ID, "create", "created user "+user.Username)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		fieldError(c, "username", "user already exists")
		return
	}
	if err != nil {
		h.Log.WithError(err).Error("create user")
		Error(c, http.StatusInternalServerError, string(report.KindStorage), "storage error")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}
