package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/gatewise/backend/api/transport"
	"github.com/gatewise/backend/domain"
	"github.com/gatewise/backend/pkg/httpcontext"
	authUC "github.com/gatewise/backend/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc             *authUC.UseCase
	cookieName     string
	minPasswordLen int
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger, cookieName string, minPasswordLen int) *AuthHandler {
	if cookieName == "" {
		cookieName = "session"
	}
	if minPasswordLen <= 0 {
		minPasswordLen = 8
	}
	return &AuthHandler{
		baseHandler:    newBaseHandler(adapter, logger),
		uc:             uc,
		cookieName:     cookieName,
		minPasswordLen: minPasswordLen,
	}
}

// @Summary Sign in with username and password
// @Tags user
// @Router /user/sign-in [post]
func (h *AuthHandler) SignIn(ctx *fasthttp.RequestCtx) {
	req, ok := h.parseCredentials(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.SignIn(stdCtx, req.Username, req.Password)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
			h.respondStatus(ctx, http.StatusUnauthorized, false, "Incorrect username or password")
			return
		}
		h.respondError(ctx, err)
		return
	}

	transport.SetSessionCookie(ctx, h.cookieName, session.ID, session.ExpiresAt)
	h.respondStatus(ctx, http.StatusOK, true, "Signed in")
}

// @Summary Register a new user
// @Tags user
// @Router /user/sign-up [put]
func (h *AuthHandler) SignUp(ctx *fasthttp.RequestCtx) {
	req, ok := h.parseCredentials(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.SignUp(stdCtx, req.Username, req.Password); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeConflict) {
			h.respondStatus(ctx, http.StatusUnauthorized, false, "User already exists")
			return
		}
		h.respondError(ctx, err)
		return
	}
	h.respondStatus(ctx, http.StatusOK, true, "User created")
}

// @Summary Sign out and clear the session cookie
// @Tags user
// @Router /user/sign-out [get]
func (h *AuthHandler) SignOut(ctx *fasthttp.RequestCtx) {
	sessionID := string(ctx.Request.Header.Cookie(h.cookieName))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	// Store-side deletion is best-effort; the cookie is cleared regardless of
	// whether the session existed or was still valid.
	h.uc.SignOut(stdCtx, sessionID)

	transport.ClearSessionCookie(ctx, h.cookieName)
	h.respondStatus(ctx, http.StatusOK, true, "Signed out")
}

// parseCredentials validates the shared sign-in/sign-up body before any store
// access. A false return means the response has already been written.
func (h *AuthHandler) parseCredentials(ctx *fasthttp.RequestCtx) (transport.CredentialsRequest, bool) {
	var req transport.CredentialsRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Username == "" {
		h.respondStatus(ctx, http.StatusBadRequest, false, "Invalid payload")
		return req, false
	}
	if len(req.Password) < h.minPasswordLen {
		h.respondStatus(ctx, http.StatusBadRequest, false, "Password too short")
		return req, false
	}
	return req, true
}
