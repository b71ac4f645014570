package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"chatter/infrastructure"
	"chatter/internal/auth"
)

type JSONHandler struct {
	service *Service
}

func NewJSONHandler(service *Service) *JSONHandler {
	return &JSONHandler{service: service}
}

func (h *JSONHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}

	var req struct {
		UserIDs []string `json:"user_ids"`
		IsGroup bool     `json:"is_group"`
		Name    string   `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	participantIDs := make([]uuid.UUID, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id: "+raw)
			return
		}
		participantIDs = append(participantIDs, id)
	}

	view, err := h.service.CreateChat(r.Context(), callerID, participantIDs, req.IsGroup, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *JSONHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}

	views, err := h.service.ListChats(r.Context(), callerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if views == nil {
		views = []*ChatView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *JSONHandler) JoinChat(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}

	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.InviteCode == "" {
		writeError(w, http.StatusBadRequest, "invite_code is required")
		return
	}

	view, err := h.service.JoinChat(r.Context(), callerID, req.InviteCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *JSONHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetChat(r.Context(), chatID, callerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *JSONHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Content  string `json:"content"`
		MediaURL string `json:"media_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.service.SendMessage(r.Context(), chatID, callerID, req.Content, req.MediaURL)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *JSONHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r)
	if !ok {
		return
	}

	views, err := h.service.ListMessages(r.Context(), chatID, callerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if views == nil {
		views = []*MessageView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *JSONHandler) CreateInviteLink(w http.ResponseWriter, r *http.Request) {
	callerID, ok := caller(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r)
	if !ok {
		return
	}

	code, err := h.service.CreateInviteLink(r.Context(), chatID, callerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"invite_code": code})
}

// SetupJSONRoutes Helper function to set up routes
func SetupJSONRoutes(r *mux.Router, h *JSONHandler) {
	r.HandleFunc("/chats", h.CreateChat).Methods("POST")
	r.HandleFunc("/chats", h.ListChats).Methods("GET")
	r.HandleFunc("/chats/join", h.JoinChat).Methods("POST")
	r.HandleFunc("/chats/{id}", h.GetChat).Methods("GET")
	r.HandleFunc("/chats/{id}/messages", h.SendMessage).Methods("POST")
	r.HandleFunc("/chats/{id}/messages", h.ListMessages).Methods("GET")
	r.HandleFunc("/chats/{id}/invite", h.CreateInviteLink).Methods("POST")
}

func caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return uuid.Nil, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the core's error kinds to HTTP statuses. Unknown
// errors are reported as a generic internal fault so storage details never
// leak to callers.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, infrastructure.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, infrastructure.ErrChatNotFound),
		errors.Is(err, infrastructure.ErrInvalidInviteCode):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, infrastructure.ErrNotAGroupChat),
		errors.Is(err, infrastructure.ErrInvalidMessage),
		errors.Is(err, infrastructure.ErrDirectChatSize),
		errors.Is(err, infrastructure.ErrMediaStore):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, infrastructure.ErrInternalServer.Error())
	}
}
