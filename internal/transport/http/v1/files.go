package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/copilot/internal/domain"
)

// SelectDirectory returns the file tree under a directory.
// POST /api/files/select-directory/
func (h *Handler) SelectDirectory(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.SelectDirectoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	tree, err := h.service.SelectDirectory(ctx, req.Path)
	if errors.Is(err, domain.ErrDirectoryNotFound) {
		return c.JSON(http.StatusOK, domain.SelectDirectoryResponse{Error: "Directory does not exist."})
	}
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, domain.SelectDirectoryResponse{Files: tree})
}

// RevertFile restores a file to its content before the last modification.
// The path comes from the file_path query parameter or the JSON body.
// POST /api/files/revert-file/
func (h *Handler) RevertFile(c echo.Context) error {
	ctx := c.Request().Context()

	filePath := c.QueryParam("file_path")
	if filePath == "" && c.Request().ContentLength != 0 {
		var req domain.RevertRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}
		filePath = req.FilePath
	}
	if filePath == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file_path is required"})
	}

	resp, err := h.service.Revert(ctx, filePath)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// ListModifiedFiles lists files that have a previous version to revert to.
// GET /api/files/modified-files/?directory_path=...
func (h *Handler) ListModifiedFiles(c echo.Context) error {
	ctx := c.Request().Context()

	files, err := h.service.ListModified(ctx, c.QueryParam("directory_path"))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, files)
}
