package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/gatewise/backend/api/transport"
	"github.com/gatewise/backend/repository"
)

// userIDKey is the request user-value under which the validated identity is
// stored for downstream handlers. Nothing else from the session is exposed.
const userIDKey = "auth.user_id"

// deleteTimeout bounds the detached expired-session cleanup.
const deleteTimeout = 5 * time.Second

// UserID returns the identity attached by SessionAuth, if any.
func UserID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, ok := ctx.UserValue(userIDKey).(string)
	return id, ok && id != ""
}

// SessionAuth resolves the session cookie into an authenticated identity or
// rejects the request with 401. It guards any protected route, not only
// profile.
//
// An expired session is rejected as "Session expired": the cookie is cleared
// as part of the response, while the store record is deleted on a detached
// goroutine whose outcome is unobservable by design.
func SessionAuth(sessions repository.SessionRepository, cookieName string, timeout time.Duration, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if cookieName == "" {
		cookieName = "session"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			sessionID := string(ctx.Request.Header.Cookie(cookieName))
			if sessionID == "" {
				reject(ctx, "Unauthorized")
				return
			}

			stdCtx, cancel := context.WithTimeout(context.Background(), timeout)
			session, err := sessions.Get(stdCtx, sessionID)
			cancel()
			if err != nil || session == nil || session.UserID == "" {
				reject(ctx, "Unauthorized")
				return
			}

			if session.IsExpired(time.Now()) {
				transport.ClearSessionCookie(ctx, cookieName)
				deleteDetached(sessions, sessionID, logger)
				reject(ctx, "Session expired")
				return
			}

			ctx.SetUserValue(userIDKey, session.UserID)
			next(ctx)
		}
	}
}

// deleteDetached removes an expired session without delaying or failing the
// response. Errors are logged and dropped, never retried.
func deleteDetached(sessions repository.SessionRepository, sessionID string, logger *zap.Logger) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
		defer cancel()
		if err := sessions.Delete(ctx, sessionID); err != nil {
			logger.Debug("expired session cleanup failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()
}

func reject(ctx *fasthttp.RequestCtx, message string) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	body, _ := json.Marshal(transport.NewStatus(false, message))
	ctx.SetBody(body)
}
