// Package gateway terminates WebSocket connections for the real-time chat
// surface. Each connection moves through a fixed lifecycle: it is
// authenticated before the protocol upgrade, registered for its room,
// checked for membership, then served by a read pump and a write pump until
// either side closes.
package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/relay"
	"chat-relay/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// ConnState tracks where a connection is in its lifecycle. Transitions only
// move forward; any failure jumps straight to StateClosed.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateAuthenticating
	StateAuthenticated
	StateJoined
	StateActive
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateJoined:
		return "JOINED"
	case StateActive:
		return "ACTIVE"
	default:
		return "CLOSED"
	}
}

const PurposeSendChatMessage = "send_chat_message"

// inboundFrame is the only client-to-server message shape.
type inboundFrame struct {
	Purpose string `json:"purpose"`
	Message string `json:"message"`
}

type outboundPayload struct {
	Purpose string `json:"purpose"`
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

// outboundFrame wraps every server-to-client event.
type outboundFrame struct {
	Data outboundPayload `json:"data"`
}

type Gateway struct {
	log         *slog.Logger
	gate        contract.IAuthGate
	membership  services.IMembershipService
	messages    services.IMessageService
	registry    contract.IRegistry
	upgrader    websocket.Upgrader
	authTimeout time.Duration
	bufferSize  int
}

func NewGateway(log *slog.Logger, gate contract.IAuthGate,
	membership services.IMembershipService, messages services.IMessageService,
	registry contract.IRegistry, authTimeout time.Duration, bufferSize int) *Gateway {
	return &Gateway{
		log:        log,
		gate:       gate,
		membership: membership,
		messages:   messages,
		registry:   registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		authTimeout: authTimeout,
		bufferSize:  bufferSize,
	}
}

// connection is the per-socket state owned by ServeWS for one lifecycle.
type connection struct {
	id        string
	state     ConnState
	roomID    domain.RoomID
	principal domain.Principal
	ws        *websocket.Conn
	sink      *ConnSink
}

// ServeWS handles GET /ws/chat/{chatroom_id}.
// Authentication runs before the upgrade so a bad credential is refused with
// a plain HTTP status instead of a doomed socket. After the upgrade the
// connection is registered first and membership is checked second; a
// non-member is torn down silently, per protocol, with no close reason sent.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID, err := strconv.Atoi(chi.URLParam(r, "chatroom_id"))
	if err != nil {
		http.Error(w, "invalid chatroom id", http.StatusBadRequest)
		return
	}

	// CONNECTING -> AUTHENTICATING
	credential, err := auth.CredentialFromRequest(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	authCtx, cancel := context.WithTimeout(r.Context(), g.authTimeout)
	principal, err := g.gate.Authenticate(authCtx, credential)
	cancel()
	if err != nil {
		g.log.Info("Rejected connection attempt", "room", roomID, "error", err)
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("Upgrade failed", "error", err)
		return
	}

	conn := &connection{
		id:        uuid.NewString(),
		state:     StateAuthenticated,
		roomID:    domain.RoomID(roomID),
		principal: principal,
		ws:        ws,
		sink:      NewConnSink(g.bufferSize),
	}
	g.serve(r.Context(), conn)
}

func (g *Gateway) serve(ctx context.Context, conn *connection) {
	// Teardown is unconditional: whatever state the connection dies in, it
	// leaves no trace in the registry.
	defer func() {
		lastState := conn.state
		conn.state = StateClosed
		g.registry.Unsubscribe(conn.id, conn.roomID)
		conn.sink.Close()
		_ = conn.ws.Close()
		g.log.Debug("Connection closed", "conn", conn.id, "from_state", lastState.String())
	}()

	// Register before the membership check. A legitimate member is reachable
	// from the very first broadcast after the check passes; a rejected
	// connection is removed again before it ever enters ACTIVE.
	g.registry.Subscribe(conn.id, conn.roomID, conn.sink)
	conn.state = StateJoined

	isMember, err := g.membership.IsMember(ctx, conn.roomID, conn.principal.ID)
	if err != nil || !isMember {
		// Silent close: the client observes a plain disconnect, nothing more.
		g.log.Info("Closing non-member connection",
			"room", conn.roomID, "user", conn.principal.ID, "error", err)
		return
	}
	conn.state = StateActive
	g.log.Info("Connection active",
		"conn", conn.id, "room", conn.roomID, "user", conn.principal.Name)

	go g.writePump(conn)
	g.readPump(ctx, conn)
}

// readPump consumes client frames until the socket dies. It runs on the
// ServeWS goroutine so returning from it triggers teardown.
func (g *Gateway) readPump(ctx context.Context, conn *connection) {
	conn.ws.SetReadLimit(maxMessageSize)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Info("Connection read error", "conn", conn.id, "error", err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Purpose != PurposeSendChatMessage {
			// Unknown frames are dropped without killing the connection.
			g.log.Warn("Dropping malformed client frame", "conn", conn.id)
			continue
		}

		if err := g.messages.Post(ctx, conn.roomID, conn.principal, frame.Message); err != nil {
			g.log.Error("Message post failed",
				"conn", conn.id, "room", conn.roomID, "error", err)
			if stderrors.Is(err, errors.ErrRelayUnavailable) ||
				stderrors.Is(err, errors.ErrPublishFailed) {
				// The message is persisted but cannot reach the room.
				// Surface the degradation instead of pretending delivery.
				return
			}
		}
	}
}

// writePump serializes all writes to the socket: broadcast events from the
// sink and the keepalive pings. gorilla/websocket allows one writer only.
func (g *Gateway) writePump(conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.ws.Close()
	}()

	for {
		select {
		case <-conn.sink.done:
			return
		case e := <-conn.sink.Events():
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			wire, err := relay.Encode(e)
			if err != nil {
				g.log.Warn("Skipping unencodable event", "conn", conn.id, "error", err)
				continue
			}
			frame := outboundFrame{Data: outboundPayload{
				Purpose: wire.Purpose,
				Message: wire.Message,
				Sender:  wire.Sender,
			}}
			if err := conn.ws.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
