package adaptor

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/preesha73/chathub/server/domain"
)

// eventBuffer bounds the outbound queue per connection; the hub drops
// events to a full queue rather than block.
const eventBuffer = 32

// ServeWS authenticates the bearer credential, upgrades the transport and
// runs the connection's session until disconnect. One goroutine reads
// inbound events, a second drains the hub's outbound channel.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, err := h.accounts.VerifyToken(bearerToken(r))
	if err != nil {
		h.writeError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	conn := domain.NewConn(uuid.NewString(), identity, eventBuffer)
	if err := h.hub.Register(conn); err != nil {
		log.Printf("failed to register connection %s: %v", conn.ID(), err)
		ws.Close()
		return
	}
	log.Printf("connection %s opened for %s", conn.ID(), identity.DisplayName)

	go h.writePump(ws, conn)
	h.readPump(r, ws, conn)
}

// readPump dispatches inbound events to the hub until the transport drops.
// Unregistration runs in a defer so cleanup fires on every exit path,
// including abnormal termination.
func (h *Handler) readPump(r *http.Request, ws *websocket.Conn, conn *domain.Conn) {
	defer func() {
		h.hub.Unregister(conn)
		ws.Close()
		log.Printf("connection %s closed", conn.ID())
	}()

	for {
		var ev clientEvent
		if err := ws.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("connection %s read error: %v", conn.ID(), err)
			}
			return
		}

		switch ev.Type {
		case typeJoinRoom:
			if ev.Room == "" {
				continue
			}
			if err := h.hub.JoinRoom(conn, ev.Room); err != nil {
				log.Printf("connection %s join %s: %v", conn.ID(), ev.Room, err)
			}
		case typeLeaveRoom:
			h.hub.LeaveRoom(conn, ev.Room)
		case typeSend:
			if err := h.hub.DispatchSend(r.Context(), conn, ev.Text); err != nil {
				if errors.Is(err, domain.ErrEmptyMessage) || errors.Is(err, domain.ErrNoActiveRoom) {
					continue
				}
				log.Printf("connection %s send failed: %v", conn.ID(), err)
			}
		case typeTyping:
			h.hub.Typing(conn)
		case typeStopTyping:
			h.hub.StopTyping(conn)
		default:
			log.Printf("connection %s sent unknown event type %q", conn.ID(), ev.Type)
		}
	}
}

// writePump drains the connection's outbound events. The channel is closed
// by the hub on unregister, which ends the loop.
func (h *Handler) writePump(ws *websocket.Conn, conn *domain.Conn) {
	for ev := range conn.Events() {
		if err := ws.WriteJSON(encodeEvent(ev)); err != nil {
			return
		}
	}
	ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
