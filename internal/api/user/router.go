package user

import (
	"github.com/coding-arena/arena/internal/api"
	"github.com/gin-gonic/gin"
)

// NewUserRouter creates and configures the user Gin engine.
func NewUserRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.Use(api.CORSMiddleware(h.cfg.CORS))

	v1 := r.Group("/api/v1")
	{
		// Live standings
		v1.GET("/ws/contests/:id/standings", h.handleStandingsWs)

		// Publicly accessible info
		v1.GET("/contests", h.getAllContests)
		v1.GET("/contests/:id", h.getContest)
		v1.GET("/contests/:id/standings", h.getContestStandings)

		// Authenticated routes
		authed := v1.Group("/")
		authed.Use(api.AuthMiddleware(h.cfg.Auth.JWT.Secret))
		{
			profile := authed.Group("/user")
			{
				profile.GET("/profile", h.getUserProfile)
				profile.PUT("/handle", h.updateHandle)
				profile.GET("/history", h.getContestHistory)
			}

			authed.POST("/contests/:id/register", h.registerForContest)
		}
	}

	return r
}
