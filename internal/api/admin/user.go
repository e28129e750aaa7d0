package admin

import (
	"errors"
	"net/http"

	"github.com/coding-arena/arena/internal/api"
	"github.com/coding-arena/arena/internal/auth"
	"github.com/coding-arena/arena/internal/database"
	"github.com/coding-arena/arena/internal/database/models"
	"github.com/coding-arena/arena/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (h *Handler) getAllUsers(c *gin.Context) {
	searchQuery := c.Query("query")
	dbQuery := h.db

	if searchQuery != "" {
		likeQuery := "%" + searchQuery + "%"
		dbQuery = dbQuery.Where("id = ? OR username LIKE ? OR nickname LIKE ? OR handle LIKE ?", searchQuery, likeQuery, likeQuery, likeQuery)
	}

	var users []models.User
	if err := dbQuery.Order("username asc").Find(&users).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	util.Success(c, users, "Users retrieved successfully")
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := database.GetUserByID(h.db, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "user not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}
	util.Success(c, user, "User retrieved successfully")
}

// createUser stores a new user and returns it with a bearer token for the
// user API.
func (h *Handler) createUser(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=2,max=64"`
		Nickname string `json:"nickname"`
		Email    string `json:"email" binding:"omitempty,email"`
		Handle   string `json:"handle" binding:"omitempty,min=3,max=24"`
		IsAdmin  bool   `json:"is_admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	user := models.User{
		Username: req.Username,
		Nickname: req.Nickname,
		Email:    req.Email,
		Handle:   req.Handle,
		IsAdmin:  req.IsAdmin,
	}
	if err := database.CreateUser(h.db, &user); err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Username, h.cfg.Auth.JWT.Secret, h.cfg.Auth.JWT.ExpireHours)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	zap.S().Infof("admin created user %s (%s)", user.Username, user.ID)
	util.Created(c, gin.H{"user": user, "token": token}, "User created successfully")
}

func (h *Handler) issueToken(c *gin.Context) {
	user, err := database.GetUserByID(h.db, c.Param("id"))
	if err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}
	token, err := auth.GenerateJWT(user.ID, user.Username, h.cfg.Auth.JWT.Secret, h.cfg.Auth.JWT.ExpireHours)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	zap.S().Warnf("admin issued a new token for user %s (%s)", user.Username, user.ID)
	util.Success(c, gin.H{"token": token}, "Token issued")
}

func (h *Handler) getUserContestHistory(c *gin.Context) {
	userID := c.Param("id")
	if _, err := database.GetUserByID(h.db, userID); err != nil {
		util.Error(c, http.StatusNotFound, "user not found")
		return
	}

	history, err := database.GetContestHistoryForUser(h.db, userID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, history, "User contest history retrieved successfully")
}

func (h *Handler) registerUserForContest(c *gin.Context) {
	var req struct {
		ContestID string `json:"contest_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	user, err := database.GetUserByID(h.db, c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusNotFound, "user not found")
		return
	}

	p, err := database.RegisterForContest(h.db, user, req.ContestID, h.now())
	if err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}
	zap.S().Infof("admin registered user %s for contest %s", user.Username, req.ContestID)
	util.Success(c, p, "User registered for contest")
}
