// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/call-controller/internal/middleware"
	"github.com/capitalize-ai/call-controller/internal/model"
	"github.com/capitalize-ai/call-controller/internal/service"
	"github.com/capitalize-ai/call-controller/pkg/logger"
)

const maxOperatorBody = 64 << 10

// CallHandler handles operator call actions.
type CallHandler struct {
	service *service.CallService
	logger  *logger.Logger
}

// NewCallHandler creates a new call handler.
func NewCallHandler(svc *service.CallService, log *logger.Logger) *CallHandler {
	return &CallHandler{
		service: svc,
		logger:  log,
	}
}

// Dial handles POST /dial
func (h *CallHandler) Dial(w http.ResponseWriter, r *http.Request) {
	var req model.DialRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidatePhoneNumber(req.To); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Dial(r.Context(), req.To)
	if err != nil {
		h.writeServiceError(w, r, "dial", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Hangup handles POST /hangup
func (h *CallHandler) Hangup(w http.ResponseWriter, r *http.Request) {
	var req model.HangupRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateCallSid(req.CallSid); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Hangup(r.Context(), req.CallSid)
	if err != nil {
		h.writeServiceError(w, r, "hangup", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *CallHandler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if service.IsInvalidRequest(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Error("call action failed",
		zap.String("op", op),
		zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
		zap.Error(err),
	)

	var perr *service.ProviderError
	if errors.As(err, &perr) {
		writeError(w, http.StatusInternalServerError, perr.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxOperatorBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
