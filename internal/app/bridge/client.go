/*
Package bridge connects browser tabs to chat sessions over WebSocket.

This file defines the Client struct, representing one browser connection and the chat session it owns.
It runs the read loop that turns browser frames into session actions, and the write loop that
forwards session updates, notices and errors back to the browser.
*/
package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"nickchat/internal/app/chat"
	"nickchat/internal/pkg/errs"
	"nickchat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the browser.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the browser. Large enough for an
	// image slightly over the ceiling, so the session can reject it with a proper error.
	maxFrameSize = chat.MaxImageBytes + 16*1024

	// maximum time a single browser action may wait for the session.
	actionTimeout = 5 * time.Second

	// capacity of the outbound frame queue.
	sendBuffer = 256

	// MaxTextBytes is the maximum allowed size (in bytes) of a text message.
	MaxTextBytes = 5000

	// close frame reasons.
	sessionEndedReason = "Chat session has ended"
	shutdownReason     = "Server shutting down"
)

// Client struct represents an active browser connection and its chat session.
type Client struct {
	// Handle is the opaque identifier the browser uses to address this session over HTTP.
	Handle string

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// the chat session driven by this connection.
	session *chat.Session

	// the manager that tracks this client.
	manager *Manager

	// a buffered channel used to queue frames waiting to be sent to the browser.
	send chan []byte

	// closed when the client is shutting down; stops the write loop.
	done      chan struct{}
	closeOnce sync.Once

	// closeReason is written as the close frame text when the server ends the connection.
	closeReason string

	// structured logger with client context.
	logger zerolog.Logger
}

func newClient(handle string, conn *websocket.Conn, manager *Manager) *Client {
	return &Client{
		Handle:  handle,
		conn:    conn,
		manager: manager,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		logger:  logx.Component("bridge_client").With().Str("handle", handle).Logger(),
	}
}

// Session returns the chat session owned by this client.
func (c *Client) Session() *chat.Session {
	return c.session
}

// Notify implements chat.Notifier by forwarding notices to the browser.
func (c *Client) Notify(kind chat.NoticeKind, text string) {
	frame, err := NewFrame(FrameNotice, NoticePayload{Kind: kind, Text: text})
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to build notice frame.")
		return
	}

	c.enqueue(frame)
}

// SendError queues an error frame for the browser.
func (c *Client) SendError(err error) {
	frame, buildErr := errorFrame(err)
	if buildErr != nil {
		c.logger.Error().Err(buildErr).Msg("Failed to build error frame.")
		return
	}

	c.enqueue(frame)
}

// sendInit queues the frame that tells the browser its handle and the current state.
func (c *Client) sendInit() error {
	frame, err := NewFrame(FrameInit, InitPayload{Handle: c.Handle, Snapshot: c.session.Snapshot()})
	if err != nil {
		return err
	}

	c.enqueue(frame)
	return nil
}

// enqueue hands a frame to the write loop without blocking.
func (c *Client) enqueue(frame []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- frame:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping frame.")
	}
}

// ForwardUpdates copies session updates to the browser until the session closes.
func (c *Client) ForwardUpdates() {
	for update := range c.session.Updates() {
		frame, err := updateFrame(update)
		if err != nil {
			c.logger.Error().Err(err).Msg("Failed to build update frame.")
			continue
		}

		c.enqueue(frame)
	}
}

// ReadPump handles reading frames from the WebSocket connection.
// It handles heartbeats (Pong), frame dispatch, and performs cleanup upon connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frameBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (browser close/going away)")
			}
			break
		}

		c.processInboundFrame(frameBytes)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.manager.release(c)
	c.stop("")

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInboundFrame decodes one browser frame and applies it to the session.
func (c *Client) processInboundFrame(frameBytes []byte) {
	var frame Frame
	if err := json.Unmarshal(frameBytes, &frame); err != nil {
		c.logger.Warn().Err(err).Msg("Browser sent invalid JSON")
		c.SendError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	var payload string
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		c.logger.Warn().Err(err).Str("frame_type", string(frame.Type)).Msg("Browser sent a non-string payload")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	var err error
	switch frame.Type {
	case FrameNickname:
		err = c.session.SetNickname(ctx, payload)

	case FrameText:
		if len(payload) > MaxTextBytes {
			err = errs.NewError(errs.ErrInvalidParams)
			break
		}
		err = c.session.SendText(ctx, payload)

	case FrameImage:
		err = c.session.SendImage(ctx, payload)

	default:
		c.logger.Warn().Str("frame_type", string(frame.Type)).Msg("Browser sent unsupported frame type")
		err = errs.NewError(errs.ErrInvalidParams)
	}

	if err == nil {
		return
	}

	event := c.logger.Warn()
	if errs.IsPrecondition(err) {
		event = c.logger.Debug()
	}
	event.Err(err).Str("frame_type", string(frame.Type)).Msg("Browser action refused.")

	c.SendError(err)

	if errs.HasCode(err, errs.ErrSessionClosed) {
		c.Kick(sessionEndedReason)
	}
}

// WritePump handles writing frames from the Client.send channel to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame := <-c.send:
			if !c.writeFrame(frame) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}

		case <-c.done:
			c.flush()
			c.writeCloseMessage()
			return
		}
	}
}

// writeFrame writes one queued frame. Returns false if the WritePump loop should terminate.
func (c *Client) writeFrame(frame []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}

// flush writes whatever is still queued, without waiting for more.
func (c *Client) flush() {
	for {
		select {
		case frame := <-c.send:
			if !c.writeFrame(frame) {
				return
			}
		default:
			return
		}
	}
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

func (c *Client) writeCloseMessage() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	closeMessage := websocket.FormatCloseMessage(websocket.CloseGoingAway, c.closeReason)
	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to send close message.")
	}
}

// stop signals the write loop to finish. The first reason given wins.
func (c *Client) stop(reason string) {
	c.closeOnce.Do(func() {
		c.closeReason = reason
		close(c.done)
	})
}

// Kick ends the connection from the server side, telling the browser why.
func (c *Client) Kick(reason string) {
	c.logger.Info().Str("reason", reason).Msg("Closing browser connection.")
	c.stop(reason)
}
