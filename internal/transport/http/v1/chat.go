package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/copilot/internal/domain"
)

// Ask runs one conversation turn.
// POST /api/chat/ask/
func (h *Handler) Ask(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.AskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "session_id is required"})
	}
	if req.Question == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}

	resp, err := h.service.Ask(ctx, req)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// GetHistory returns the exchanges of a session.
// GET /api/chat/history/:session_id
func (h *Handler) GetHistory(c echo.Context) error {
	ctx := c.Request().Context()

	history, err := h.service.GetHistory(ctx, c.Param("session_id"))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, history)
}

// CreateSession creates a named session.
// POST /api/chat/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	session, err := h.service.CreateSession(ctx, req)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, session)
}

// ListSessions lists all sessions.
// GET /api/chat/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	ctx := c.Request().Context()

	sessions, err := h.service.ListSessions(ctx)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
	})
}

// ListModels lists the models of the upstream provider.
// GET /api/chat/models
func (h *Handler) ListModels(c echo.Context) error {
	ctx := c.Request().Context()

	models, err := h.service.ListModels(ctx)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"models": models,
	})
}
