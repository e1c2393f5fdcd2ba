package api

import (
	"context"
	"net/http"

	"study-planner/internal/models"
	"study-planner/shared/monitoring"
	"study-planner/shared/storage"

	"github.com/gin-gonic/gin"
)

// PlanBuilder is satisfied by *planner.Planner.
type PlanBuilder interface {
	BuildPlan(ctx context.Context, topic string, totalMinutes float64) (*models.Plan, error)
}

// VideoSelector is satisfied by *planner.Selector.
type VideoSelector interface {
	SelectVideo(ctx context.Context, query string, initialMaxDurationMinutes float64) (models.VideoSelection, error)
}

// Decomposer is satisfied by *ai.Decomposer.
type Decomposer interface {
	Decompose(ctx context.Context, topic string) ([]models.Subtopic, error)
}

// Server holds the dependencies of the HTTP handlers. Store and Health are
// optional.
type Server struct {
	Planner    PlanBuilder
	Selector   VideoSelector
	Decomposer Decomposer
	Store      storage.PlanStore
	Health     *monitoring.HealthServer
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Study Planner Backend Running")
	})

	RegisterPlanRoutes(r, s)
	RegisterHistoryRoutes(r, s)
	if s.Health != nil {
		r.GET("/health", gin.WrapF(s.Health.HealthHandler))
		r.GET("/status", gin.WrapF(s.Health.StatusHandler))
	}
	return r
}
