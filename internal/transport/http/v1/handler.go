// Package v1 provides the HTTP handlers of the copilot API.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/copilot/internal/domain"
	"github.com/xiaot623/gogo/copilot/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Chat API
	chat := e.Group("/api/chat")
	chat.POST("/ask/", h.Ask)
	chat.POST("/ask", h.Ask)
	chat.GET("/history/:session_id", h.GetHistory)
	chat.POST("/sessions", h.CreateSession)
	chat.GET("/sessions", h.ListSessions)
	chat.GET("/models", h.ListModels)

	// File API
	files := e.Group("/api/files")
	files.POST("/select-directory/", h.SelectDirectory)
	files.POST("/revert-file/", h.RevertFile)
	files.GET("/modified-files/", h.ListModifiedFiles)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// errorStatus maps service errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrPathEscape),
		errors.Is(err, domain.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoHistoryFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUpstreamModel):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(errorStatus(err), map[string]string{"error": err.Error()})
}
