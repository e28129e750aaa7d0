package admin

import (
	"github.com/coding-arena/arena/internal/api"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewAdminRouter creates and configures the admin Gin engine.
func NewAdminRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.Use(api.CORSMiddleware(h.cfg.CORS))

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	{
		// Management
		v1.POST("/reload", h.reload)
		v1.GET("/standings", h.getTrackedContests)

		// User Management
		users := v1.Group("/users")
		{
			users.GET("", h.getAllUsers)
			users.POST("", h.createUser)
			users.GET("/:id", h.getUser)
			users.POST("/:id/token", h.issueToken)
			users.GET("/:id/history", h.getUserContestHistory)
			users.POST("/:id/register-contest", h.registerUserForContest)
		}

		// Contest Management
		contests := v1.Group("/contests")
		{
			contests.GET("", h.getAllContests)
			contests.POST("", h.createContest)
			contests.GET("/:id", h.getContest)
			contests.POST("/:id/problems", h.addProblems)
			contests.POST("/:id/participants", h.addParticipant)
			contests.GET("/:id/standings", h.getContestStandings)
			contests.POST("/:id/track", h.trackContest)
			contests.DELETE("/:id/track", h.untrackContest)
		}
	}

	return r
}
