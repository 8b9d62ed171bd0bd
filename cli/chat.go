package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xiaot623/gogo/copilot/internal/transport/ws"
)

// ChatClient is an interactive websocket session.
type ChatClient struct {
	conn      *websocket.Conn
	sessionID string
	chatName  string
	seq       int
}

// DialChat connects to the websocket endpoint at addr.
func DialChat(addr string) (*ChatClient, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &ChatClient{conn: conn}, nil
}

// Close closes the connection.
func (c *ChatClient) Close() error {
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

// Hello binds the connection to a session and waits for hello_ack.
func (c *ChatClient) Hello(sessionID, chatName string) error {
	msg := ws.HelloMessage{
		BaseMessage: ws.BaseMessage{
			Type:      ws.TypeHello,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
		},
		ChatName: chatName,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write hello: %w", err)
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read hello_ack: %w", err)
	}

	var base ws.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return fmt.Errorf("unmarshal hello_ack: %w", err)
	}
	if base.Type == ws.TypeError {
		var errMsg ws.ErrorMessage
		json.Unmarshal(data, &errMsg)
		return fmt.Errorf("hello failed: %s - %s", errMsg.Code, errMsg.Message)
	}
	if base.Type != ws.TypeHelloAck {
		return fmt.Errorf("expected hello_ack, got: %s", base.Type)
	}

	var ack ws.HelloAckMessage
	json.Unmarshal(data, &ack)
	c.sessionID = ack.SessionID
	c.chatName = ack.ChatName
	return nil
}

func (c *ChatClient) nextRequestID() string {
	c.seq++
	return fmt.Sprintf("req_%d", c.seq)
}

// Ask sends a question.
func (c *ChatClient) Ask(question, dir string) error {
	return c.conn.WriteJSON(ws.AskMessage{
		BaseMessage: ws.BaseMessage{
			Type:      ws.TypeAsk,
			Ts:        time.Now().UnixMilli(),
			RequestID: c.nextRequestID(),
		},
		Question:      question,
		DirectoryPath: dir,
	})
}

// RequestHistory asks for the session history.
func (c *ChatClient) RequestHistory() error {
	return c.conn.WriteJSON(ws.BaseMessage{
		Type:      ws.TypeHistory,
		Ts:        time.Now().UnixMilli(),
		RequestID: c.nextRequestID(),
	})
}

// Revert asks for a file to be reverted.
func (c *ChatClient) Revert(path string) error {
	return c.conn.WriteJSON(ws.RevertMessage{
		BaseMessage: ws.BaseMessage{
			Type:      ws.TypeRevert,
			Ts:        time.Now().UnixMilli(),
			RequestID: c.nextRequestID(),
		},
		FilePath: path,
	})
}

// ReadMessages prints server messages until the connection closes.
func (c *ChatClient) ReadMessages(out io.Writer) error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		renderMessage(out, data)
	}
}

func renderMessage(out io.Writer, data []byte) {
	var base ws.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		fmt.Fprintln(out, errorText("unreadable message: "+err.Error()))
		return
	}

	switch base.Type {
	case ws.TypeAnswer:
		var msg ws.AnswerMessage
		json.Unmarshal(data, &msg)
		fmt.Fprint(out, renderAnswer(msg.Answer, msg.Changes))
	case ws.TypeHistory:
		var msg ws.HistoryMessage
		json.Unmarshal(data, &msg)
		fmt.Fprint(out, renderHistory(msg.History))
	case ws.TypeReverted:
		var msg ws.RevertedMessage
		json.Unmarshal(data, &msg)
		fmt.Fprintln(out, okText("reverted "+msg.FilePath))
	case ws.TypeError:
		var msg ws.ErrorMessage
		json.Unmarshal(data, &msg)
		fmt.Fprintln(out, errorText(msg.Code+": "+msg.Message))
	default:
		fmt.Fprintf(out, "[%s] %s\n", base.Type, string(data))
	}
}
