package api

import (
	"errors"
	"log"
	"net/http"

	"study-planner/internal/models"

	"github.com/gin-gonic/gin"
)

type chatRequest struct {
	Input        string   `json:"input"`
	TotalMinutes *float64 `json:"totalMinutes"`
}

type searchRequest struct {
	Query       string  `json:"query"`
	MaxDuration float64 `json:"maxDuration"`
}

type searchResponse struct {
	VideoTitle string `json:"videoTitle"`
	VideoURL   string `json:"videoUrl"`
}

type subtopicsRequest struct {
	Topic string `json:"topic"`
}

// RegisterPlanRoutes registers the planning endpoints.
func RegisterPlanRoutes(r *gin.Engine, s *Server) {
	r.POST("/api/chat", s.handleChat)
	r.POST("/api/youtube/search", s.handleSearch)
	r.POST("/api/gemini/subtopics", s.handleSubtopics)
}

// handleChat builds a full study plan and returns its entries in subtopic
// order.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Input == "" || req.TotalMinutes == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "input and totalMinutes are required"})
		return
	}

	log.Printf("/api/chat called with topic %q and %.0f minutes", req.Input, *req.TotalMinutes)
	plan, err := s.Planner.BuildPlan(c.Request.Context(), req.Input, *req.TotalMinutes)
	if err != nil {
		respondError(c, err)
		return
	}

	if s.Store != nil {
		if err := s.Store.Save(c.Request.Context(), plan); err != nil {
			log.Printf("Warning: Failed to store plan %s: %v", plan.ID, err)
		} else {
			c.Header("X-Plan-ID", plan.ID)
		}
	}

	c.JSON(http.StatusOK, plan.Entries)
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Query == "" || req.MaxDuration <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query and a positive maxDuration are required"})
		return
	}

	selection, err := s.Selector.SelectVideo(c.Request.Context(), req.Query, req.MaxDuration)
	if err != nil {
		respondError(c, err)
		return
	}
	if !selection.Found {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrNoMatchFound.Error()})
		return
	}

	c.JSON(http.StatusOK, searchResponse{
		VideoTitle: selection.VideoTitle,
		VideoURL:   selection.VideoURL,
	})
}

func (s *Server) handleSubtopics(c *gin.Context) {
	var req subtopicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topic is required"})
		return
	}

	subtopics, err := s.Decomposer.Decompose(c.Request.Context(), req.Topic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subtopics)
}

// respondError maps the error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrDecompositionFailure), errors.Is(err, models.ErrProviderFailure):
		status = http.StatusBadGateway
	}

	log.Printf("API error on %s: %v", c.FullPath(), err)
	c.JSON(status, gin.H{"error": err.Error()})
}
