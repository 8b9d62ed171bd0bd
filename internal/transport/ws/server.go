// Package ws provides the WebSocket chat endpoint.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/xiaot623/gogo/copilot/internal/config"
	"github.com/xiaot623/gogo/copilot/internal/domain"
	"github.com/xiaot623/gogo/copilot/internal/service"
)

// Options tune connection handling.
type Options struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
	// AllowedOrigins lists browser origins that may connect. Requests
	// without an Origin header are always accepted; "*" accepts any.
	AllowedOrigins []string
}

// OptionsFromConfig derives Options from the service configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PingInterval:   cfg.WSPingInterval,
		WriteTimeout:   cfg.WSWriteTimeout,
		ReadTimeout:    cfg.WSReadTimeout,
		MaxMessageSize: cfg.WSMaxMessageSize,
		AllowedOrigins: cfg.CORSOrigins,
	}
}

// Server handles WebSocket connections.
type Server struct {
	service  *service.Service
	hub      *Hub
	opts     Options
	logger   logrus.FieldLogger
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(svc *service.Service, opts Options, logger logrus.FieldLogger) *Server {
	s := &Server{
		service: svc,
		hub:     NewHub(),
		opts:    opts,
		logger:  logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// RegisterRoutes registers the websocket endpoint.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", s.HandleWebSocket)
}

// Hub exposes the connection registry.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.WithError(err).Warn("failed to upgrade websocket")
		return err
	}

	conn := s.hub.NewConnection(ws)
	s.hub.Register(conn)

	if s.opts.MaxMessageSize > 0 {
		ws.SetReadLimit(s.opts.MaxMessageSize)
	}

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads messages from the WebSocket connection.
func (s *Server) readPump(conn *Connection) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.hub.Unregister(conn)
		conn.Conn.Close()
	}()

	s.extendReadDeadline(conn)
	conn.Conn.SetPongHandler(func(string) error {
		s.extendReadDeadline(conn)
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.WithError(err).Warn("websocket read failed")
			}
			return
		}

		s.handleMessage(ctx, conn, message)
	}
}

func (s *Server) extendReadDeadline(conn *Connection) {
	if s.opts.ReadTimeout > 0 {
		conn.Conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	}
}

func (s *Server) extendWriteDeadline(conn *Connection) {
	if s.opts.WriteTimeout > 0 {
		conn.Conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	}
}

// writePump writes queued messages and keeps the connection alive.
func (s *Server) writePump(conn *Connection) {
	interval := s.opts.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			s.extendWriteDeadline(conn)
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.WithError(err).Warn("websocket write failed")
				return
			}

		case <-ticker.C:
			s.extendWriteDeadline(conn)
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming messages to appropriate handlers.
func (s *Server) handleMessage(ctx context.Context, conn *Connection, data []byte) {
	var base BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		s.sendError(conn, "", ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch base.Type {
	case TypeHello:
		s.handleHello(ctx, conn, data)
	case TypeAsk:
		s.handleAsk(ctx, conn, data)
	case TypeHistory:
		s.handleHistory(ctx, conn, base)
	case TypeRevert:
		s.handleRevert(ctx, conn, data)
	default:
		s.sendError(conn, base.RequestID, ErrorCodeInvalidMessage, "unknown message type: "+base.Type)
	}
}

func (s *Server) handleHello(ctx context.Context, conn *Connection, data []byte) {
	var msg HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", ErrorCodeInvalidMessage, "invalid hello message")
		return
	}

	sessionID := msg.SessionID
	if sessionID == "" {
		sessionID = "sess_" + uuid.New().String()[:8]
	}

	session, err := s.service.CreateSession(ctx, domain.CreateSessionRequest{SessionID: sessionID, Name: msg.ChatName})
	if err != nil {
		s.sendServiceError(conn, msg.RequestID, err)
		return
	}

	s.hub.BindSession(conn, session.SessionID)
	s.hub.SendJSONToConnection(conn, HelloAckMessage{
		BaseMessage: BaseMessage{
			Type:      TypeHelloAck,
			Ts:        time.Now().UnixMilli(),
			RequestID: msg.RequestID,
			SessionID: session.SessionID,
		},
		ChatName: session.Name,
	})

	s.logger.WithField("session_id", session.SessionID).Info("websocket session bound")
}

// handleAsk runs the question off the read loop so pings and other requests
// keep flowing while the model works.
func (s *Server) handleAsk(ctx context.Context, conn *Connection, data []byte) {
	var msg AskMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", ErrorCodeInvalidMessage, "invalid ask message")
		return
	}

	sessionID := s.hub.SessionOf(conn)
	if sessionID == "" {
		s.sendError(conn, msg.RequestID, ErrorCodeSessionRequired, "must send hello first")
		return
	}

	go func() {
		resp, err := s.service.Ask(ctx, domain.AskRequest{
			SessionID:     sessionID,
			Question:      msg.Question,
			SelectedFiles: msg.SelectedFiles,
			DirectoryPath: msg.DirectoryPath,
		})
		if err != nil {
			s.sendServiceError(conn, msg.RequestID, err)
			return
		}

		s.hub.BroadcastJSON(sessionID, AnswerMessage{
			BaseMessage: BaseMessage{
				Type:      TypeAnswer,
				Ts:        time.Now().UnixMilli(),
				RequestID: msg.RequestID,
				SessionID: sessionID,
			},
			Question:   msg.Question,
			Answer:     resp.Answer,
			ExchangeID: resp.ExchangeID,
			Changes:    resp.Changes,
		})
	}()
}

func (s *Server) handleHistory(ctx context.Context, conn *Connection, base BaseMessage) {
	sessionID := s.hub.SessionOf(conn)
	if sessionID == "" {
		s.sendError(conn, base.RequestID, ErrorCodeSessionRequired, "must send hello first")
		return
	}

	history, err := s.service.GetHistory(ctx, sessionID)
	if err != nil {
		s.sendServiceError(conn, base.RequestID, err)
		return
	}

	s.hub.SendJSONToConnection(conn, HistoryMessage{
		BaseMessage: BaseMessage{
			Type:      TypeHistory,
			Ts:        time.Now().UnixMilli(),
			RequestID: base.RequestID,
			SessionID: sessionID,
		},
		History: history.Exchanges,
	})
}

func (s *Server) handleRevert(ctx context.Context, conn *Connection, data []byte) {
	var msg RevertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", ErrorCodeInvalidMessage, "invalid revert message")
		return
	}

	resp, err := s.service.Revert(ctx, msg.FilePath)
	if err != nil {
		s.sendServiceError(conn, msg.RequestID, err)
		return
	}

	s.hub.SendJSONToConnection(conn, RevertedMessage{
		BaseMessage: BaseMessage{
			Type:      TypeReverted,
			Ts:        time.Now().UnixMilli(),
			RequestID: msg.RequestID,
			SessionID: s.hub.SessionOf(conn),
		},
		FilePath: resp.FilePath,
		Detail:   resp.Detail,
	})
}

// sendServiceError translates a service error into an error message.
func (s *Server) sendServiceError(conn *Connection, requestID string, err error) {
	code := ErrorCodeInternalError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrPathEscape),
		errors.Is(err, domain.ErrInvalidPath):
		code = ErrorCodeInvalidRequest
	case errors.Is(err, domain.ErrNoHistoryFound):
		code = ErrorCodeNotFound
	case errors.Is(err, domain.ErrUpstreamModel):
		code = ErrorCodeUpstreamFail
	}
	if code == ErrorCodeInternalError {
		s.logger.WithError(err).Error("websocket request failed")
	}
	s.sendError(conn, requestID, code, err.Error())
}

// sendError sends an error message to a connection.
func (s *Server) sendError(conn *Connection, requestID, code, message string) {
	s.hub.SendJSONToConnection(conn, ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      TypeError,
			Ts:        time.Now().UnixMilli(),
			RequestID: requestID,
			SessionID: s.hub.SessionOf(conn),
		},
		Code:    code,
		Message: message,
	})
}
