// Package api exposes the HTTP surface around the real-time gateway:
// registration and login, room lifecycle, and a plain-HTTP message path that
// feeds the same relay as the sockets.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const principalKey ctxKey = 0

type Server struct {
	log         *slog.Logger
	gate        contract.IAuthGate
	authService services.IAuthService
	membership  services.IMembershipService
	messages    services.IMessageService
	publisher   contract.IPublisher
}

func NewServer(log *slog.Logger, gate contract.IAuthGate,
	authService services.IAuthService, membership services.IMembershipService,
	messages services.IMessageService, publisher contract.IPublisher) *Server {
	return &Server{
		log:         log,
		gate:        gate,
		authService: authService,
		membership:  membership,
		messages:    messages,
		publisher:   publisher,
	}
}

// Routes mounts the public auth endpoints and the authenticated room surface.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/chatrooms", s.handleCreateRoom)
		r.Post("/chatrooms/{chatroom_id}/join", s.handleJoin)
		r.Post("/chatrooms/{chatroom_id}/leave", s.handleLeave)
		r.Post("/chatrooms/{chatroom_id}/messages", s.handlePostMessage)
	})
	return r
}

// authenticate resolves the bearer credential to a Principal or refuses the
// request. Same gate as the WebSocket path, so the two surfaces cannot drift.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential, err := auth.CredentialFromRequest(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		principal, err := s.gate.Authenticate(r.Context(), credential)
		if err != nil {
			s.writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principalFrom(ctx context.Context) domain.Principal {
	principal, _ := ctx.Value(principalKey).(domain.Principal)
	return principal
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	token, err := s.authService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, tokenResponse{Token: string(token)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	token, err := s.authService.Login(req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tokenResponse{Token: string(token)})
}

type createRoomRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type roomResponse struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Admin   string   `json:"admin"`
	Members []string `json:"members"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	principal := principalFrom(r.Context())
	room, err := s.membership.Create(r.Context(), req.Name, principal.ID, req.Members)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, roomResponse{
		ID:      int(room.ID),
		Name:    room.Name,
		Admin:   room.Admin,
		Members: room.Members(),
	})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	roomID, ok := s.roomID(w, r)
	if !ok {
		return
	}
	principal := principalFrom(r.Context())
	room, err := s.membership.Join(r.Context(), roomID, principal.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Membership changed state; the announcement is best effort on top.
	if err := s.publisher.Publish(r.Context(), event.MemberJoined{
		Room:   int(roomID),
		UserID: principal.ID,
		Name:   principal.Name,
	}); err != nil {
		s.log.Warn("Join announcement failed", "room", roomID, "error", err)
	}
	s.writeJSON(w, http.StatusOK, roomResponse{
		ID:      int(room.ID),
		Name:    room.Name,
		Admin:   room.Admin,
		Members: room.Members(),
	})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	roomID, ok := s.roomID(w, r)
	if !ok {
		return
	}
	principal := principalFrom(r.Context())
	room, err := s.membership.Leave(r.Context(), roomID, principal.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.publisher.Publish(r.Context(), event.MemberLeft{
		Room:   int(roomID),
		UserID: principal.ID,
		Name:   principal.Name,
	}); err != nil {
		s.log.Warn("Leave announcement failed", "room", roomID, "error", err)
	}
	s.writeJSON(w, http.StatusOK, roomResponse{
		ID:      int(room.ID),
		Name:    room.Name,
		Admin:   room.Admin,
		Members: room.Members(),
	})
}

type postMessageRequest struct {
	Message string `json:"message"`
}

// handlePostMessage is the HTTP write path for a chat message. Senders must
// be members; a relay outage is surfaced as 502 rather than hidden, since the
// message then reaches storage but no live connection.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	roomID, ok := s.roomID(w, r)
	if !ok {
		return
	}
	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	principal := principalFrom(r.Context())
	isMember, err := s.membership.IsMember(r.Context(), roomID, principal.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !isMember {
		s.writeError(w, errors.ErrNotAMember)
		return
	}

	if err := s.messages.Post(r.Context(), roomID, principal, req.Message); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) roomID(w http.ResponseWriter, r *http.Request) (domain.RoomID, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "chatroom_id"))
	if err != nil {
		http.Error(w, "invalid chatroom id", http.StatusBadRequest)
		return 0, false
	}
	return domain.RoomID(id), true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("Response encoding failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.MapToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}
