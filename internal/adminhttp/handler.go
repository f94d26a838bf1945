package adminhttp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agendahq/agenda-go/internal/engine"
	"github.com/agendahq/agenda-go/internal/health"
	"github.com/agendahq/agenda-go/internal/model"
)

// Handler exposes the engine's cancel operation and the process's health
// checks over HTTP — the minimal surface an operator needs without
// building a full per-tenant job API (explicitly out of scope).
type Handler struct {
	engine  *engine.Engine
	checker *health.Checker
}

func NewHandler(e *engine.Engine, checker *health.Checker) *Handler {
	return &Handler{engine: e, checker: checker}
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, h.checker.Liveness(c.Request.Context()))
}

func (h *Handler) Readyz(c *gin.Context) {
	result := h.checker.Readiness(c.Request.Context())
	status := http.StatusOK
	if result.Status != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}

type cancelRequest struct {
	Name      string         `json:"name"`
	UniqueKey string         `json:"uniqueKey"`
	Unique    map[string]any `json:"unique"`
	Mode      string         `json:"mode"`
	Limit     int            `json:"limit"`
}

func (h *Handler) CancelJobs(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := model.CancelQuery{Name: req.Name, UniqueKey: req.UniqueKey, Unique: req.Unique}
	opts := model.CancelOptions{Limit: req.Limit}
	if req.Mode == "delete" {
		opts.Mode = model.Delete
	}

	result, err := h.engine.Cancel(c.Request.Context(), query, opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
