package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ryuhosoy/mobile-gym-app/internal/chat"
	"github.com/ryuhosoy/mobile-gym-app/internal/identity"
	"github.com/ryuhosoy/mobile-gym-app/internal/store"
	"github.com/ryuhosoy/mobile-gym-app/pkg/log"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	// updates buffer; a full buffer drops the snapshot, the next change
	// re-delivers full state anyway
	updateBuffer = 16
)

// clientMessage is what the mobile client sends over the socket.
type clientMessage struct {
	Type string `json:"type"` // "send"
	Text string `json:"text"`
}

// serverMessage is what the socket pushes to the client.
type serverMessage struct {
	Type     string              `json:"type"` // "snapshot" | "error"
	Snapshot *chat.SessionUpdate `json:"snapshot,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// WSHandler bridges a live chat session onto a websocket: every store
// change pushes the full ordered snapshot, and "send" frames append
// through the session.
type WSHandler struct {
	store    store.Store
	ident    *identity.Service
	upgrader websocket.Upgrader
}

// NewWSHandler creates the websocket handler.
func NewWSHandler(st store.Store, ident *identity.Service) *WSHandler {
	return &WSHandler{
		store: st,
		ident: ident,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes registers the websocket route.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws/rooms/:id", h.ServeRoom)
}

// ServeRoom upgrades the connection and runs the room session until the
// client disconnects. Auth rides in the token query parameter because
// browser websocket clients cannot set headers.
func (h *WSHandler) ServeRoom(c *gin.Context) {
	l := log.Ctx(c.Request.Context())
	roomID := c.Param("id")

	user, err := h.ident.Verify(c.Query("token"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	out := make(chan serverMessage, updateBuffer)
	ctx := c.Request.Context()

	session, err := chat.OpenSession(ctx, h.store, identity.Fixed(user), roomID, func(u chat.SessionUpdate) {
		snap := u
		select {
		case out <- serverMessage{Type: "snapshot", Snapshot: &snap}:
		default:
		}
	})
	if err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("session open failed")
		conn.Close()
		return
	}

	quit := make(chan struct{})
	done := make(chan struct{})
	go h.writePump(conn, out, quit, done)

	conn.SetReadLimit(maxMessageSize)
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Type != "send" {
			continue
		}
		session.SetDraft(msg.Text)
		if err := session.Send(ctx); err != nil {
			select {
			case out <- serverMessage{Type: "error", Error: "send failed"}:
			default:
			}
		}
	}

	// out stays open: a snapshot already dispatched by the store may
	// still arrive after Close, and the callback must never panic.
	session.Close()
	close(quit)
	<-done
	conn.Close()

	l.Debug().
		Str(log.FieldRoomID, roomID).
		Str(log.FieldUserID, user.ID).
		Msg("room socket closed")
}

func (h *WSHandler) writePump(conn *websocket.Conn, out <-chan serverMessage, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-quit:
			return
		case msg := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				// Keep draining so the sender never blocks.
				continue
			}
		}
	}
}
