package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xiaot623/gogo/copilot/internal/domain"
)

// APIClient talks to the copilot HTTP API.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a client for the server at baseURL.
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Ask posts a question.
func (c *APIClient) Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResponse, error) {
	var resp domain.AskResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat/ask/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History fetches the exchanges of a session.
func (c *APIClient) History(ctx context.Context, sessionID string) (*domain.HistoryResponse, error) {
	var resp domain.HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/chat/history/"+url.PathEscape(sessionID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Revert restores a file to its previous version.
func (c *APIClient) Revert(ctx context.Context, filePath string) (*domain.RevertResponse, error) {
	var resp domain.RevertResponse
	path := "/api/files/revert-file/?file_path=" + url.QueryEscape(filePath)
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Modified lists files with a previous version under dir.
func (c *APIClient) Modified(ctx context.Context, dir string) ([]domain.ModifiedFile, error) {
	var resp []domain.ModifiedFile
	path := "/api/files/modified-files/"
	if dir != "" {
		path += "?directory_path=" + url.QueryEscape(dir)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Tree lists the files under dir.
func (c *APIClient) Tree(ctx context.Context, dir string) (*domain.SelectDirectoryResponse, error) {
	var resp domain.SelectDirectoryResponse
	if err := c.do(ctx, http.MethodPost, "/api/files/select-directory/", domain.SelectDirectoryRequest{Path: dir}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
