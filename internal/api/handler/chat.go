package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pricely/backend/internal/api/response"
	"github.com/pricely/backend/internal/domain"
	"github.com/pricely/backend/internal/service"
	"github.com/rs/zerolog/log"
)

// ChatHandler handles chat endpoints
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Send runs one chat turn and returns the full result at once
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.chatService.Send(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, result)
}

// SendStream runs one chat turn as a server-sent event stream. Each chunk
// is one "data:" line of JSON; the stream always terminates with
// "data: [DONE]".
func (h *ChatHandler) SendStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	err := h.chatService.SendStream(r.Context(), req, func(chunk domain.StreamChunk) {
		if chunk.Type == domain.ChunkDone {
			fmt.Fprint(w, "data: [DONE]\n\n")
			flusher.Flush()
			return
		}
		payload, err := json.Marshal(chunk)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	})
	if err != nil {
		// Headers are already out; the error chunk and [DONE] sentinel have
		// told the client everything it can act on.
		log.Error().Err(err).Msg("chat stream finished with error")
	}
}

func (h *ChatHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (domain.ChatRequest, bool) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, validationMessages(err))
		return req, false
	}
	return req, true
}

func (h *ChatHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConversationNotFound):
		response.NotFound(w, "conversation not found")
	case errors.Is(err, domain.ErrCatalogUnavailable):
		response.ServiceUnavailable(w, "product catalog is unavailable")
	default:
		response.InternalError(w, "failed to process message")
	}
}
