package user

import (
	"fmt"
	"net/http"

	"github.com/coding-arena/arena/internal/api"
	"github.com/coding-arena/arena/internal/database"
	"github.com/coding-arena/arena/internal/util"
	"github.com/gin-gonic/gin"
)

func (h *Handler) getUserProfile(c *gin.Context) {
	userID := c.GetString("userID")
	user, err := database.GetUserByID(h.db, userID)
	if err != nil {
		util.Error(c, http.StatusNotFound, err)
		return
	}
	util.Success(c, user, "ok")
}

func (h *Handler) updateHandle(c *gin.Context) {
	var reqBody struct {
		Handle string `json:"handle" binding:"required,min=3,max=24"`
	}
	if err := c.ShouldBindJSON(&reqBody); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	if err := validateHandle(reqBody.Handle); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	userID := c.GetString("userID")
	if err := database.UpdateUserHandle(h.db, userID, reqBody.Handle); err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}
	util.Success(c, gin.H{"handle": reqBody.Handle}, "Handle updated")
}

// validateHandle accepts the characters the judge allows in handles.
func validateHandle(handle string) error {
	for _, r := range handle {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.':
		default:
			return fmt.Errorf("handle contains invalid character %q", r)
		}
	}
	return nil
}
