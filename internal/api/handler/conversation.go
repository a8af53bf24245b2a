package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pricely/backend/internal/api/middleware"
	"github.com/pricely/backend/internal/api/response"
	"github.com/pricely/backend/internal/domain"
	"github.com/pricely/backend/internal/service"
)

// ConversationHandler handles conversation management endpoints
type ConversationHandler struct {
	convService *service.ConversationService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(convService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

// Create starts an empty conversation
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input struct {
		Title string `json:"title" validate:"omitempty,max=255"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
		if err := validate.Struct(input); err != nil {
			response.BadRequest(w, validationMessages(err))
			return
		}
	}

	conv, err := h.convService.Create(r.Context(), userID, input.Title)
	if err != nil {
		response.InternalError(w, "failed to create conversation")
		return
	}
	response.Created(w, conv)
}

// List returns the user's conversations, most recently active first
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	conversations, err := h.convService.List(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w, "failed to list conversations")
		return
	}
	response.OK(w, conversations)
}

// Get returns one conversation
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, convID, ok := h.ids(w, r)
	if !ok {
		return
	}

	conv, err := h.convService.Get(r.Context(), userID, convID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, conv)
}

// Messages returns a conversation's messages, oldest first
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, convID, ok := h.ids(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.convService.Messages(r.Context(), userID, convID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, messages)
}

// Update changes a conversation's title or status
func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, convID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var input domain.ConversationUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	conv, err := h.convService.Update(r.Context(), userID, convID, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, conv)
}

// Delete soft-deletes a conversation
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, convID, ok := h.ids(w, r)
	if !ok {
		return
	}

	if err := h.convService.Delete(r.Context(), userID, convID); err != nil {
		h.writeError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *ConversationHandler) ids(w http.ResponseWriter, r *http.Request) (userID, convID uuid.UUID, ok bool) {
	userID, found := middleware.GetUserID(r.Context())
	if !found {
		response.Unauthorized(w, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	convID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		response.BadRequest(w, "invalid conversation ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, convID, true
}

func (h *ConversationHandler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrConversationNotFound) {
		response.NotFound(w, "conversation not found")
		return
	}
	response.InternalError(w, "conversation operation failed")
}
