package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/call-controller/internal/middleware"
	"github.com/capitalize-ai/call-controller/internal/model"
	"github.com/capitalize-ai/call-controller/internal/telephony"
	"github.com/capitalize-ai/call-controller/pkg/logger"
)

// TokenHandler issues client access tokens.
type TokenHandler struct {
	issuer          *telephony.TokenIssuer
	defaultIdentity string
	logger          *logger.Logger
}

// NewTokenHandler creates a new token handler.
func NewTokenHandler(issuer *telephony.TokenIssuer, defaultIdentity string, log *logger.Logger) *TokenHandler {
	return &TokenHandler{
		issuer:          issuer,
		defaultIdentity: defaultIdentity,
		logger:          log,
	}
}

// Token handles GET /token
func (h *TokenHandler) Token(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	if identity == "" {
		identity = h.defaultIdentity
	}
	if err := middleware.ValidateIdentity(identity); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.issuer.Issue(identity)
	if err != nil {
		if errors.Is(err, telephony.ErrTokenNotConfigured) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to issue token", zap.String("identity", identity), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, model.TokenResponse{
		Identity: identity,
		Token:    token,
	})
}
