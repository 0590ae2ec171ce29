package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/gatewise/backend/api/transport"
	"github.com/gatewise/backend/domain"
	"github.com/gatewise/backend/internal/middleware"
	"github.com/gatewise/backend/pkg/httpcontext"
	profileUC "github.com/gatewise/backend/usecase/profile"
)

type ProfileHandler struct {
	baseHandler
	uc *profileUC.UseCase
}

func NewProfileHandler(uc *profileUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Get the authenticated user's profile
// @Tags user
// @Router /user/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		h.respondStatus(ctx, http.StatusUnauthorized, false, "Unauthorized")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.uc.GetProfile(stdCtx, userID)
	if err != nil {
		// the user may have been deleted after the session was issued
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			h.respondStatus(ctx, http.StatusNotFound, false, "User not found")
			return
		}
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.ProfileResponse{Name: view.Name})
}
