// Package rpc exposes the copilot operations over JSON-RPC.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"

	"github.com/sirupsen/logrus"

	"github.com/xiaot623/gogo/copilot/internal/domain"
	"github.com/xiaot623/gogo/copilot/internal/service"
)

// Server serves the Copilot.* methods.
type Server struct {
	listener  net.Listener
	rpcServer *rpc.Server
	logger    logrus.FieldLogger
	done      chan struct{}
}

// NewServer creates a new RPC server bound to the copilot service.
func NewServer(svc *service.Service, logger logrus.FieldLogger) (*Server, error) {
	rpcServer := rpc.NewServer()
	handler := &Handler{service: svc}
	if err := rpcServer.RegisterName("Copilot", handler); err != nil {
		return nil, fmt.Errorf("register rpc handler: %w", err)
	}

	return &Server{
		rpcServer: rpcServer,
		logger:    logger,
		done:      make(chan struct{}),
	}, nil
}

// Start listens on addr and serves until Shutdown.
func (s *Server) Start(addr string) error {
	if err := s.Listen(addr); err != nil {
		return err
	}
	return s.Serve()
}

// Listen binds the listener without accepting connections yet.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve accepts connections on the bound listener.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("rpc server is not listening")
	}

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				close(s.done)
				return nil
			}
			s.logger.WithError(err).Warn("rpc accept error")
			continue
		}

		go s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

// Shutdown stops accepting new RPC connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}

	if err := s.listener.Close(); err != nil {
		return err
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handler implements the Copilot RPC methods.
type Handler struct {
	service *service.Service
}

// HistoryRequest identifies a session.
type HistoryRequest struct {
	SessionID string `json:"session_id"`
}

// ListModifiedRequest filters modified files by directory.
type ListModifiedRequest struct {
	DirectoryPath string `json:"directory_path"`
}

// ListModifiedResponse lists files with a previous version.
type ListModifiedResponse struct {
	Files []domain.ModifiedFile `json:"files"`
}

// Ask runs one conversation turn.
func (h *Handler) Ask(req *domain.AskRequest, resp *domain.AskResponse) error {
	if req == nil {
		return errors.New("ask request is required")
	}

	result, err := h.service.Ask(context.Background(), *req)
	if err != nil {
		return err
	}
	if resp != nil && result != nil {
		*resp = *result
	}
	return nil
}

// History returns the exchanges of a session.
func (h *Handler) History(req *HistoryRequest, resp *domain.HistoryResponse) error {
	if req == nil {
		return errors.New("history request is required")
	}

	result, err := h.service.GetHistory(context.Background(), req.SessionID)
	if err != nil {
		return err
	}
	if resp != nil && result != nil {
		*resp = *result
	}
	return nil
}

// Revert restores a file to its previous version.
func (h *Handler) Revert(req *domain.RevertRequest, resp *domain.RevertResponse) error {
	if req == nil {
		return errors.New("revert request is required")
	}
	if req.FilePath == "" {
		return errors.New("file_path is required")
	}

	result, err := h.service.Revert(context.Background(), req.FilePath)
	if err != nil {
		return err
	}
	if resp != nil && result != nil {
		*resp = *result
	}
	return nil
}

// ListModified lists files that can be reverted.
func (h *Handler) ListModified(req *ListModifiedRequest, resp *ListModifiedResponse) error {
	if req == nil {
		req = &ListModifiedRequest{}
	}

	files, err := h.service.ListModified(context.Background(), req.DirectoryPath)
	if err != nil {
		return err
	}
	if resp != nil {
		resp.Files = files
	}
	return nil
}
