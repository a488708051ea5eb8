package main

import (
	"net/http"

	"github.com/ZanzyTHEbar/calcbot/internal/commands"
	"github.com/ZanzyTHEbar/calcbot/internal/core"
	apperrors "github.com/ZanzyTHEbar/calcbot/internal/errors"
	"github.com/gin-gonic/gin"
)

type commandRequest struct {
	Options commands.Options `json:"options"`
}

type analyzeRequest struct {
	Type string `json:"type" binding:"required"`
	Data string `json:"data" binding:"required"`
}

type regressionRequest struct {
	Type    string `json:"type" binding:"required"`
	XValues string `json:"x_values" binding:"required"`
	YValues string `json:"y_values" binding:"required"`
}

// handleMetrics godoc
// @Summary Metrics snapshot
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /metrics [get]
func (s *server) handleMetrics(c *gin.Context) {
	stats := s.metrics.GetStats()
	stats["compression"] = s.compression.GetStats()
	stats["websocket_connections"] = s.gateway.ActiveConnections()
	if s.results != nil {
		stats["cache"] = s.results.Stats()
	}
	c.JSON(http.StatusOK, stats)
}

// handleListCommands godoc
// @Summary List command definitions
// @Tags commands
// @Produce json
// @Security GatewayToken
// @Success 200 {array} commands.Definition
// @Router /api/v1/commands [get]
func (s *server) handleListCommands(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.Definitions())
}

// handleRunCommand godoc
// @Summary Run a command
// @Description Failures inside a command still answer 200 with an ephemeral reply.
// @Tags commands
// @Accept json
// @Produce json
// @Security GatewayToken
// @Param name path string true "Command name"
// @Param request body commandRequest true "Command options"
// @Success 200 {object} commands.Response
// @Failure 400 {object} apperrors.Response
// @Failure 404 {object} apperrors.Response
// @Router /api/v1/commands/{name} [post]
func (s *server) handleRunCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("Invalid request body", err))
		return
	}

	if err := s.security.ValidateOptions(req.Options); err != nil {
		_ = c.Error(apperrors.NewValidationError(err.Error(), err))
		return
	}

	resp, err := s.registry.Dispatch(c.Request.Context(), commands.Invocation{
		Name:    c.Param("name"),
		Options: req.Options,
	})
	if err != nil && !resp.Ephemeral {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleAnalyze godoc
// @Summary Descriptive statistics
// @Tags core
// @Accept json
// @Produce json
// @Security GatewayToken
// @Param request body analyzeRequest true "Data set"
// @Success 200 {object} analysis.Result
// @Failure 400 {object} apperrors.Response
// @Failure 422 {object} apperrors.Response
// @Router /api/v1/analyze [post]
func (s *server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("Invalid request body", err))
		return
	}

	if err := s.security.ValidateInput(req.Data); err != nil {
		_ = c.Error(apperrors.NewValidationError(err.Error(), err))
		return
	}

	result, err := core.AnalyzeStatistics(req.Data, req.Type)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleRegression godoc
// @Summary Fit a regression model
// @Tags core
// @Accept json
// @Produce json
// @Security GatewayToken
// @Param request body regressionRequest true "Paired data and model"
// @Success 200 {object} core.RegressionReport
// @Failure 400 {object} apperrors.Response
// @Failure 422 {object} apperrors.Response
// @Router /api/v1/regression [post]
func (s *server) handleRegression(c *gin.Context) {
	var req regressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("Invalid request body", err))
		return
	}

	if err := s.security.ValidateOptions(map[string]string{
		"x_values": req.XValues,
		"y_values": req.YValues,
	}); err != nil {
		_ = c.Error(apperrors.NewValidationError(err.Error(), err))
		return
	}

	report, err := core.FitRegression(req.XValues, req.YValues, req.Type)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, report)
}
