// Package httpapi exposes the tracker over HTTP for dashboards and
// scripts that poll instead of shelling out. Views return the same
// value objects the CLI renders; mutations mirror the CLI commands.
package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/slipline-dev/slipline/internal/journal"
	"github.com/slipline-dev/slipline/internal/settings"
	"github.com/slipline-dev/slipline/internal/tracker"
)

// Handler carries the open collaborators the routes work against.
type Handler struct {
	Tracker  *tracker.Tracker
	Journal  *journal.Journal
	Settings *settings.Settings
}

// NewHandler builds the routed gin engine. The caller picks the gin
// mode; serve sets release, tests set test.
func NewHandler(t *tracker.Tracker, j *journal.Journal, s *settings.Settings) http.Handler {
	h := &Handler{Tracker: t, Journal: j, Settings: s}

	r := gin.New()
	r.Use(gin.Recovery(), requestLog())

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/today", h.GetToday)
		api.GET("/streak", h.GetStreak)
		api.GET("/stats", h.GetStats)
		api.GET("/slips", h.GetSlips)
		api.POST("/slips", h.PostSlip)
		api.POST("/slips/undo", h.PostUndo)
		api.POST("/slips/restore", h.PostRestore)
		api.DELETE("/slips/:id", h.DeleteSlip)
		api.GET("/limit", h.GetLimit)
		api.PUT("/limit", h.PutLimit)
	}

	return r
}

// requestLog emits one debug line per request. gin's own logger writes
// to stdout, which belongs to the serve command's output.
func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetToday(c *gin.Context) {
	st := h.Tracker.Today()

	resp := gin.H{
		"date":        st.Date,
		"count":       st.Count,
		"limit":       st.Limit,
		"under_limit": st.UnderLimit,
		"remaining":   st.Remaining,
	}
	if at, ok := h.Journal.LastSlipAt(); ok {
		resp["last_slip_at"] = at
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetStreak(c *gin.Context) {
	c.JSON(http.StatusOK, h.Tracker.Streak())
}

func (h *Handler) GetStats(c *gin.Context) {
	rng, err := parseRange(c.DefaultQuery("range", "7"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Tracker.Stats(rng))
}

func (h *Handler) GetSlips(c *gin.Context) {
	c.JSON(http.StatusOK, h.Tracker.Slips())
}

func (h *Handler) PostSlip(c *gin.Context) {
	var input struct {
		At string `json:"at"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if input.At == "" {
		c.JSON(http.StatusCreated, h.Journal.Record())
		return
	}

	at, err := time.Parse(time.RFC3339, input.At)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid at timestamp: %v", err)})
		return
	}
	slip, err := h.Journal.RecordAt(at)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, slip)
}

func (h *Handler) PostUndo(c *gin.Context) {
	slip, ok := h.Journal.UndoLast()
	if !ok {
		// Not an error: undo past the window is an expected no-op.
		c.JSON(http.StatusOK, gin.H{"undone": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"undone": true, "slip": slip})
}

func (h *Handler) PostRestore(c *gin.Context) {
	var input struct {
		ID string `json:"id" binding:"required"`
		At string `json:"at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	at, err := time.Parse(time.RFC3339, input.At)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid at timestamp: %v", err)})
		return
	}

	slip, err := h.Journal.Restore(input.ID, at)
	if err != nil {
		if journal.IsDuplicateIDError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, slip)
}

func (h *Handler) DeleteSlip(c *gin.Context) {
	id := c.Param("id")
	slip, ok := h.Journal.Remove(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no slip with id %q", id)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": slip})
}

func (h *Handler) GetLimit(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"limit": h.Settings.Limit()})
}

func (h *Handler) PutLimit(c *gin.Context) {
	var input struct {
		Limit *int `json:"limit" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Settings.SetLimit(*input.Limit); err != nil {
		if settings.IsLimitError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"limit": *input.Limit})
}

// parseRange validates the stats window query parameter.
func parseRange(s string) (int, error) {
	rng, err := strconv.Atoi(s)
	if err != nil || rng < 1 || rng > tracker.MaxRange {
		return 0, fmt.Errorf("range must be between 1 and %d", tracker.MaxRange)
	}
	return rng, nil
}
