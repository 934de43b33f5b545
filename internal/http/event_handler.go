package httpapi

import (
	"net/http"

	"canvass-data/internal/service"

	"go.uber.org/zap"
)

// EventHandler feeds inbound chat events into the conversation engine.
// The chat transport (webhook bridge, long-poll worker) POSTs one event per
// request and renders the returned reply.
type EventHandler struct {
	engine *service.SurveyService
	logger *zap.Logger
}

func NewEventHandler(engine *service.SurveyService, logger *zap.Logger) *EventHandler {
	return &EventHandler{engine: engine, logger: logger}
}

func (h *EventHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var ev service.Event
	if err := readBodyJSON(r, 1<<20, &ev); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid event payload"))
		return
	}
	if ev.ChatID == 0 {
		writeJSON(w, http.StatusBadRequest, Fail("chat_id is required"))
		return
	}

	reply, err := h.engine.HandleEvent(r.Context(), ev)
	if err != nil {
		h.logger.Error("event handling failed",
			zap.Int64("chat_id", ev.ChatID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(reply))
}
