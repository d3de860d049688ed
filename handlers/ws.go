package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/coedit/coedit/internal/config"
	"github.com/coedit/coedit/internal/document"
	docservice "github.com/coedit/coedit/internal/document/service"
	"github.com/coedit/coedit/internal/room"
	"github.com/coedit/coedit/internal/tokens"
	"github.com/coedit/coedit/internal/users"
	"github.com/coedit/coedit/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the browser client connects from a different origin in development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades editor connections and runs the room protocol over them.
type WSHandler struct {
	cfg      *config.Config
	usersSvc *users.Service
	docSvc   *docservice.Service
	reg      *room.Registry
	router   *room.Router
}

func NewWSHandler(cfg *config.Config, u *users.Service, d *docservice.Service, reg *room.Registry, router *room.Router) *WSHandler {
	return &WSHandler{cfg: cfg, usersSvc: u, docSvc: d, reg: reg, router: router}
}

func (h *WSHandler) Register(r *gin.Engine) {
	r.GET("/ws", h.Serve)
}

// Serve authenticates the request, upgrades it and runs the read loop until
// the peer goes away. Authentication happens before the upgrade so a bad
// token costs a plain 401, not a socket.
func (h *WSHandler) Serve(c *gin.Context) {
	raw := c.Query("token")
	if raw == "" {
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			raw = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := tokens.ParseUserID(h.cfg, raw, tokens.KindAccess)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	u, err := h.usersSvc.GetByID(c.Request.Context(), userID)
	if err != nil || u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	client := newWSClient(ws)
	go client.writePump()
	h.readLoop(client, userID, u.Username)
}

// wsClient is one upgraded connection. Send never blocks the room lock: it
// enqueues into a buffered channel drained by the write pump.
type wsClient struct {
	ws        *websocket.Conn
	send      chan room.Event
	closeOnce sync.Once
}

func newWSClient(ws *websocket.Conn) *wsClient {
	return &wsClient{ws: ws, send: make(chan room.Event, sendBuffer)}
}

var errSendBufferFull = errors.New("send buffer full")

// opCtx bounds per-event access checks; connections are long-lived but each
// check against the store is not.
func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (c *wsClient) Send(evt room.Event) error {
	select {
	case c.send <- evt:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case evt, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop dispatches incoming events until the connection drops, then leaves
// every joined room and announces the departures.
func (h *WSHandler) readLoop(client *wsClient, userID, displayName string) {
	defer func() {
		for docID, name := range h.reg.LeaveAll(client) {
			h.router.AnnounceLeave(docID, name)
		}
		client.close()
		client.ws.Close()
	}()

	client.ws.SetReadLimit(maxMessageSize)
	client.ws.SetReadDeadline(time.Now().Add(pongWait))
	client.ws.SetPongHandler(func(string) error {
		client.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	joined := map[string]bool{}
	for {
		var evt room.Event
		if err := client.ws.ReadJSON(&evt); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("websocket read error for user %s: %v", userID, err)
			}
			return
		}
		switch evt.Name {
		case room.EventJoinDocument:
			if evt.DocumentID == "" || joined[evt.DocumentID] {
				continue
			}
			ctx, cancel := opCtx()
			_, err := h.docSvc.Get(ctx, userID, evt.DocumentID)
			cancel()
			if err != nil {
				logger.Debugf("join denied for user %s on %s: %v", userID, evt.DocumentID, err)
				continue
			}
			h.reg.Join(evt.DocumentID, client, displayName)
			joined[evt.DocumentID] = true
			h.router.AnnounceJoin(evt.DocumentID, displayName)
		case room.EventDocumentChange:
			if evt.DocumentID == "" || !joined[evt.DocumentID] {
				continue
			}
			ctx, cancel := opCtx()
			doc, err := h.docSvc.Repo().Get(ctx, evt.DocumentID)
			cancel()
			if err != nil || doc == nil || !document.CanWrite(userID, doc) {
				logger.Debugf("change denied for user %s on %s", userID, evt.DocumentID)
				continue
			}
			h.router.RouteChange(evt.DocumentID, evt.Content, displayName, client)
		case room.EventLeaveDocument:
			if evt.DocumentID == "" || !joined[evt.DocumentID] {
				continue
			}
			delete(joined, evt.DocumentID)
			h.reg.Leave(evt.DocumentID, client)
			h.router.AnnounceLeave(evt.DocumentID, displayName)
		default:
			logger.Debugf("unknown event %q from user %s", evt.Name, userID)
		}
	}
}
