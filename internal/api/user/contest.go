package user

import (
	"net/http"
	"time"

	"github.com/coding-arena/arena/internal/api"
	"github.com/coding-arena/arena/internal/database"
	"github.com/coding-arena/arena/internal/database/models"
	"github.com/coding-arena/arena/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type contestView struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Organizer    string                  `json:"organizer"`
	StartTime    time.Time               `json:"start_time"`
	EndTime      time.Time               `json:"end_time"`
	Status       string                  `json:"status"`
	Problems     []models.ContestProblem `json:"problems,omitempty"`
	Participants int                     `json:"participants"`
}

func contestStatus(c *models.Contest, now time.Time) string {
	switch {
	case now.Before(c.StartTime):
		return "upcoming"
	case now.Before(c.EndTime):
		return "running"
	default:
		return "ended"
	}
}

func (h *Handler) getAllContests(c *gin.Context) {
	contests, err := database.ListContests(h.db)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	now := h.now()
	views := make([]contestView, 0, len(contests))
	for i := range contests {
		views = append(views, contestView{
			ID:        contests[i].ID,
			Name:      contests[i].Name,
			Organizer: contests[i].Organizer,
			StartTime: contests[i].StartTime,
			EndTime:   contests[i].EndTime,
			Status:    contestStatus(&contests[i], now),
		})
	}
	util.Success(c, views, "Contests loaded")
}

func (h *Handler) getContest(c *gin.Context) {
	contest, err := database.GetContest(h.db, c.Param("id"))
	if err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}

	now := h.now()
	view := contestView{
		ID:           contest.ID,
		Name:         contest.Name,
		Organizer:    contest.Organizer,
		StartTime:    contest.StartTime,
		EndTime:      contest.EndTime,
		Status:       contestStatus(contest, now),
		Participants: len(contest.Participants),
	}
	// For contests that haven't started, hide the problem list.
	if now.Before(contest.StartTime) {
		util.Success(c, view, "Contest found, but is not currently active")
		return
	}
	view.Problems = contest.Problems
	util.Success(c, view, "Contest found")
}

func (h *Handler) getContestStandings(c *gin.Context) {
	snapshot, state, err := h.manager.Standings(c.Param("id"))
	if err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}
	if snapshot == nil {
		util.Success(c, gin.H{"state": state, "standings": nil}, "Standings are not computed yet")
		return
	}
	util.Success(c, gin.H{"state": state, "standings": snapshot}, "Standings retrieved")
}

func (h *Handler) registerForContest(c *gin.Context) {
	userID := c.GetString("userID")
	contestID := c.Param("id")

	user, err := database.GetUserByID(h.db, userID)
	if err != nil {
		util.Error(c, http.StatusNotFound, err)
		return
	}

	p, err := database.RegisterForContest(h.db, user, contestID, h.now())
	if err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}
	if p.Handle == "" {
		zap.S().Infof("user %s registered for %s without a judge handle", user.Username, contestID)
	}
	util.Success(c, p, "Successfully registered for contest")
}

func (h *Handler) getContestHistory(c *gin.Context) {
	history, err := database.GetContestHistoryForUser(h.db, c.GetString("userID"))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, history, "Contest history retrieved successfully")
}
