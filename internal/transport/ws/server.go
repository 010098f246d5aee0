package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Tharunkunamalla/realtime-editor/internal/collab"
)

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	svc      *collab.Service

	pingEvery time.Duration
}

func NewServer(hub *Hub, svc *collab.Service) *Server {
	return &Server{
		hub: hub,
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws. The connection id is assigned server-side; the
// client joins a room with its first message.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	connID := uuid.NewString()
	c := newWsConn(conn, connID)
	s.hub.Register(c)

	go s.writeLoop(r.Context(), c)
	s.readLoop(c)

	s.hub.Unregister(connID)
	// cleanup runs on its own context: the request context dies with the
	// socket, and the leave path may flush durable writes
	s.svc.Leave(context.Background(), connID)

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", connID, "err", err)
	}
}

func (s *Server) readLoop(c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		s.dispatch(c, msg)
	}
}

// dispatch handles one inbound event. Malformed events are dropped; the
// connection itself is never torn down for them.
func (s *Server) dispatch(c *wsConn, msg Message) {
	connID := c.ID()

	switch msg.Type {
	case collab.EvtJoin:
		var p JoinPayload
		if decode(msg.Payload, &p) != nil || p.RoomID == "" {
			slog.Debug("drop malformed join", "conn", connID)
			return
		}
		// place before join so the joiner receives its own announcement
		s.hub.Place(connID, p.RoomID)
		if err := s.svc.Join(context.Background(), connID, p.RoomID, p.Username); err != nil {
			slog.Debug("join rejected", "conn", connID, "room", p.RoomID, "err", err)
		}

	case collab.EvtTextChange:
		var p TextChangePayload
		if decode(msg.Payload, &p) != nil {
			return
		}
		if err := s.svc.ApplyText(connID, p.RoomID, p.Text, p.Cursor); err != nil {
			slog.Debug("drop text-change", "conn", connID, "room", p.RoomID, "err", err)
		}

	case collab.EvtLanguageChange:
		var p LanguageChangePayload
		if decode(msg.Payload, &p) != nil {
			return
		}
		if err := s.svc.ApplyLanguage(connID, p.RoomID, p.Language); err != nil {
			slog.Debug("drop language-change", "conn", connID, "room", p.RoomID, "err", err)
		}

	case collab.EvtCursorChange:
		var p CursorChangePayload
		if decode(msg.Payload, &p) != nil {
			return
		}
		if err := s.svc.ApplyCursor(connID, p.RoomID, p.Cursor); err != nil {
			slog.Debug("drop cursor-change", "conn", connID, "room", p.RoomID, "err", err)
		}

	case collab.EvtSyncRequest:
		var p SyncRequestPayload
		if decode(msg.Payload, &p) != nil || p.TargetConnID == "" {
			return
		}
		if err := s.svc.RelaySync(connID, p.TargetConnID, p.Text, p.Language); err != nil {
			slog.Debug("drop sync-request", "conn", connID, "err", err)
		}

	default:
		// ignore
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

type wsConn struct {
	conn   *websocket.Conn
	id     string
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn, id string) *wsConn {
	return &wsConn{
		conn:   c,
		id:     id,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) ID() string { return c.id }
