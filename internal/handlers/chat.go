package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mliu/whisper/internal/apperrors"
	"github.com/mliu/whisper/internal/chat"
	"github.com/mliu/whisper/internal/middleware"
	"github.com/mliu/whisper/internal/models"
	"github.com/mliu/whisper/internal/ws"
)

type ChatHandler struct {
	Service *chat.Service
	Hub     *ws.Hub
}

type StartChatRequest struct {
	Username string `json:"username"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type CreateGroupRequest struct {
	Name string `json:"groupname"`
}

type AddMemberRequest struct {
	MemberID int `json:"memberid"`
}

// GetChatrooms returns the caller's chat list in the fixed
// {"chatrooms": [...]} shape.
func (h *ChatHandler) GetChatrooms(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conversations, err := h.Service.ListConversations(me)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.Conversation{"chatrooms": conversations})
}

func (h *ChatHandler) StartChat(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req StartChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	entry, err := h.Service.StartDirectChat(me, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]*models.Conversation{"chatroom": entry})
}

func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	otherID, err := pathInt(r, "otherUserId")
	if err != nil {
		writeError(w, err)
		return
	}

	messages, err := h.Service.FetchConversation(me, otherID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.Message{"messages": messages})
}

func (h *ChatHandler) SendDirectMessage(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	otherID, err := pathInt(r, "otherUserId")
	if err != nil {
		writeError(w, err)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	msg, err := h.Service.SendDirect(me, otherID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.Hub != nil {
		h.Hub.SendNotification(otherID, map[string]interface{}{
			"type": "new_message",
			"from": me,
		})
	}

	writeJSON(w, http.StatusCreated, map[string]*models.Message{"message": msg})
}

func (h *ChatHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	group, err := h.Service.CreateGroup(me, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]*models.Group{"group": group})
}

func (h *ChatHandler) AddGroupMember(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	groupID, err := pathInt(r, "groupid")
	if err != nil {
		writeError(w, err)
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	if err := h.Service.AddGroupMember(me, groupID, req.MemberID); err != nil {
		writeError(w, err)
		return
	}

	if h.Hub != nil {
		h.Hub.SendNotification(req.MemberID, map[string]interface{}{
			"type":  "new_chat",
			"group": groupID,
		})
	}

	w.WriteHeader(http.StatusOK)
}

func (h *ChatHandler) GetGroupMessages(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	groupID, err := pathInt(r, "groupid")
	if err != nil {
		writeError(w, err)
		return
	}

	messages, err := h.Service.FetchGroupMessages(me, groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.Message{"messages": messages})
}

func (h *ChatHandler) SendGroupMessage(w http.ResponseWriter, r *http.Request) {
	me, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	groupID, err := pathInt(r, "groupid")
	if err != nil {
		writeError(w, err)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	msg, err := h.Service.SendGroupMessage(me, groupID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.Hub != nil {
		h.Hub.NotifyGroup(groupID, me, map[string]interface{}{
			"type":  "new_group_message",
			"group": groupID,
			"from":  me,
		})
	}

	writeJSON(w, http.StatusCreated, map[string]*models.Message{"message": msg})
}

func pathInt(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, apperrors.Validation(name + " must be an integer")
	}
	return value, nil
}
