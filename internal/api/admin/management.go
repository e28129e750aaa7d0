package admin

import (
	"fmt"
	"net/http"

	"github.com/coding-arena/arena/internal/contest"
	"github.com/coding-arena/arena/internal/database"
	"github.com/coding-arena/arena/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// reload re-reads the contest seed directories and starts tracking every
// loaded contest that has not ended.
func (h *Handler) reload(c *gin.Context) {
	zap.S().Info("starting reload process...")

	ids, err := contest.Sync(h.db, h.cfg.Contest)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, fmt.Errorf("failed to load contests: %w", err))
		return
	}

	unfinished, err := database.ListUnfinishedContestIDs(h.db, h.now())
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	loaded := make(map[string]bool, len(ids))
	for _, id := range ids {
		loaded[id] = true
	}

	tracked := 0
	for _, id := range unfinished {
		if !loaded[id] {
			continue
		}
		if _, err := h.manager.Track(c.Request.Context(), id); err != nil {
			zap.S().Errorf("reload: tracking contest %s: %v", id, err)
			continue
		}
		tracked++
	}

	util.Success(c, gin.H{
		"contests_loaded": len(ids),
		"tracked":         tracked,
	}, "Reload successful")
}
