package admin

import (
	"github.com/coding-arena/arena/internal/api"
	"github.com/coding-arena/arena/internal/pubsub"
	"github.com/coding-arena/arena/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) getTrackedContests(c *gin.Context) {
	util.Success(c, h.manager.Tracked(), "Tracked contests retrieved")
}

func (h *Handler) getContestStandings(c *gin.Context) {
	snapshot, state, err := h.manager.Standings(c.Param("id"))
	if err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}
	util.Success(c, gin.H{"state": state, "standings": snapshot}, "Standings retrieved")
}

func (h *Handler) trackContest(c *gin.Context) {
	contestID := c.Param("id")
	s, err := h.manager.Track(c.Request.Context(), contestID)
	if err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}
	zap.S().Infof("admin tracked contest '%s'", contestID)
	util.Success(c, gin.H{"contest_id": contestID, "state": s.State()}, "Contest tracked")
}

func (h *Handler) untrackContest(c *gin.Context) {
	contestID := c.Param("id")
	if err := h.manager.Untrack(contestID); err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}
	h.broker.CloseTopic(pubsub.StandingsTopic(contestID))
	util.Success(c, nil, "Contest untracked")
}
