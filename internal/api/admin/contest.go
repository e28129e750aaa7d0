package admin

import (
	"fmt"
	"net/http"
	"time"

	"github.com/coding-arena/arena/internal/api"
	"github.com/coding-arena/arena/internal/database"
	"github.com/coding-arena/arena/internal/database/models"
	"github.com/coding-arena/arena/internal/standings"
	"github.com/coding-arena/arena/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type problemRequest struct {
	URL            string   `json:"url" binding:"required"`
	Name           string   `json:"name"`
	Tags           []string `json:"tags"`
	JudgeContestID int      `json:"judge_contest_id"`
	JudgeIndex     string   `json:"judge_index" binding:"required_with=JudgeContestID"`
}

func (r problemRequest) model() (models.ContestProblem, error) {
	if r.JudgeContestID == 0 {
		if _, ok := standings.ProblemKeyFromURL(r.URL); !ok {
			return models.ContestProblem{}, fmt.Errorf("problem url %q does not end in <contest id>/<index>", r.URL)
		}
	}
	return models.ContestProblem{
		URL:            r.URL,
		Name:           r.Name,
		Tags:           models.StringList(r.Tags),
		JudgeContestID: r.JudgeContestID,
		JudgeIndex:     r.JudgeIndex,
	}, nil
}

func problemModels(reqs []problemRequest) ([]models.ContestProblem, error) {
	out := make([]models.ContestProblem, 0, len(reqs))
	for _, r := range reqs {
		p, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// getAllContests returns every stored contest, regardless of its start/end times.
func (h *Handler) getAllContests(c *gin.Context) {
	contests, err := database.ListContests(h.db)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, contests, "All contests retrieved")
}

// getContest returns a contest with its problems and full roster.
func (h *Handler) getContest(c *gin.Context) {
	contest, err := database.GetContest(h.db, c.Param("id"))
	if err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}
	util.Success(c, contest, "Contest details retrieved")
}

func (h *Handler) createContest(c *gin.Context) {
	var req struct {
		ID        string           `json:"id"`
		Name      string           `json:"name" binding:"required"`
		Organizer string           `json:"organizer"`
		StartTime time.Time        `json:"start_time" binding:"required"`
		EndTime   time.Time        `json:"end_time" binding:"required,gtfield=StartTime"`
		Problems  []problemRequest `json:"problems" binding:"dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	problems, err := problemModels(req.Problems)
	if err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	contest := &models.Contest{
		ID:        req.ID,
		Name:      req.Name,
		Organizer: req.Organizer,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Problems:  problems,
	}
	if err := database.CreateContest(h.db, contest); err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}
	zap.S().Infof("admin created contest '%s'", contest.ID)

	if h.now().Before(contest.EndTime) {
		if _, err := h.manager.Track(c.Request.Context(), contest.ID); err != nil {
			zap.S().Errorf("tracking new contest %s: %v", contest.ID, err)
		}
	}
	util.Created(c, contest, "Contest created")
}

func (h *Handler) addProblems(c *gin.Context) {
	var req []problemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	problems, err := problemModels(req)
	if err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	contestID := c.Param("id")
	if err := database.AddProblems(h.db, contestID, problems); err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}
	zap.S().Infof("admin added %d problems to contest '%s'", len(problems), contestID)

	contest, err := database.GetContest(h.db, contestID)
	if err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}
	util.Success(c, contest.Problems, "Problems added")
}

func (h *Handler) addParticipant(c *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		Email  string `json:"email" binding:"omitempty,email"`
		Handle string `json:"handle"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	p := &models.Participant{
		ContestID: c.Param("id"),
		Name:      req.Name,
		Email:     req.Email,
		Handle:    req.Handle,
	}
	if err := database.AddParticipant(h.db, p); err != nil {
		util.Error(c, api.StatusOf(err), err)
		return
	}
	util.Created(c, p, "Participant added")
}
