package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"adaptive-dice-backend/internal/dice"
	"adaptive-dice-backend/internal/models"
	"adaptive-dice-backend/internal/services"
)

// EventFeed reads a table's recent activity.
type EventFeed interface {
	RecentEvents(ctx context.Context, tableID string, limit int64) ([]*models.RollEvent, error)
}

type TableHandler struct {
	tables *services.TableManager
	feed   EventFeed
}

// NewTableHandler returns the table API. feed may be nil, in which case the
// activity feed is always empty.
func NewTableHandler(tables *services.TableManager, feed EventFeed) *TableHandler {
	return &TableHandler{
		tables: tables,
		feed:   feed,
	}
}

func (h *TableHandler) ListPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"presets": h.tables.Presets(),
	})
}

func (h *TableHandler) CreateTable(c *gin.Context) {
	var req models.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	created, err := h.tables.CreateTable(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "Failed to create table", err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *TableHandler) GetTable(c *gin.Context) {
	state, err := h.tables.State(c.Param("id"))
	if err != nil {
		respondError(c, "Failed to get table", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": state})
}

func (h *TableHandler) GetRolls(c *gin.Context) {
	tableID := c.Param("id")
	if _, err := h.tables.State(tableID); err != nil {
		respondError(c, "Failed to get rolls", err)
		return
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid limit",
			"details": "limit must be a positive integer",
		})
		return
	}

	events := []*models.RollEvent{}
	if h.feed != nil {
		recent, err := h.feed.RecentEvents(c.Request.Context(), tableID, limit)
		if err != nil {
			log.Printf("Failed to read feed for table %s: %v", tableID, err)
		} else {
			events = recent
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"table_id": tableID,
		"rolls":    events,
		"count":    len(events),
	})
}

func (h *TableHandler) Roll(c *gin.Context) {
	h.respondAction(c, "Failed to roll", h.tables.Roll)
}

func (h *TableHandler) Undo(c *gin.Context) {
	h.respondAction(c, "Failed to undo", h.tables.Undo)
}

func (h *TableHandler) Redo(c *gin.Context) {
	h.respondAction(c, "Failed to redo", h.tables.Redo)
}

// Command accepts one line of console input. An empty body rolls.
func (h *TableHandler) Command(c *gin.Context) {
	var req models.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	result, err := h.tables.Execute(c.Request.Context(), c.Param("id"), req.Input)
	if err != nil {
		respondError(c, "Failed to run command", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TableHandler) DeleteTable(c *gin.Context) {
	if err := h.tables.DeleteTable(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "Failed to close table", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *TableHandler) respondAction(c *gin.Context, msg string, action func(context.Context, string) (*models.RollResult, error)) {
	result, err := action(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, msg, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func respondError(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dice.ErrNoHistory):
		status = http.StatusConflict
	case errors.Is(err, dice.ErrInvalidArgument),
		errors.Is(err, services.ErrUnknownPreset),
		errors.Is(err, services.ErrInvalidCommand):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrTableNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, services.ErrInvalidToken):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		log.Printf("%s: %v", msg, err)
	}

	c.JSON(status, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}
