package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/gatewise/backend/api/transport"
	"github.com/gatewise/backend/domain"
	"github.com/gatewise/backend/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondStatus(ctx *fasthttp.RequestCtx, status int, success bool, message string) {
	h.respondJSON(ctx, status, transport.NewStatus(success, message))
}

// respondError maps a domain error onto the {success,message} wire shape.
// Unexpected failures surface as a generic 500, never as a 401.
func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, message := mapError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	h.respondStatus(ctx, status, false, message)
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, domainMessage(err)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, domainMessage(err)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, domainMessage(err)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, domainMessage(err)
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func domainMessage(err error) string {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return dErr.Message
	}
	return err.Error()
}
