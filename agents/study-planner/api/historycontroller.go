package api

import (
	"errors"
	"net/http"
	"strconv"

	"study-planner/shared/storage"

	"github.com/gin-gonic/gin"
)

const defaultListLimit = 20

// RegisterHistoryRoutes registers the stored plan endpoints.
func RegisterHistoryRoutes(r *gin.Engine, s *Server) {
	plans := r.Group("/api/plans")
	plans.Use(s.requireStore)
	plans.GET("", s.handleListPlans)
	plans.GET("/:id", s.handleGetPlan)
	plans.DELETE("/:id", s.handleDeletePlan)
}

func (s *Server) requireStore(c *gin.Context) {
	if s.Store == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "plan history is disabled"})
		return
	}
	c.Next()
}

func (s *Server) handleListPlans(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	plans, err := s.Store.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (s *Server) handleGetPlan(c *gin.Context) {
	plan, err := s.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(c *gin.Context) {
	if err := s.Store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrPlanNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
