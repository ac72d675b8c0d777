package sharing

import (
	"log/slog"
	"net/http"

	"docvault/internal/apperr"
	"docvault/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type ShareRequest struct {
	Email string `json:"email" binding:"required"`
}

// Share handles POST /documents/:id/share.
func (h *Handler) Share(ctx *gin.Context) {
	var req ShareRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Email is required"})
		return
	}
	result, err := h.service.Share(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id"), req.Email)
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// Members handles GET /documents/:id/shares.
func (h *Handler) Members(ctx *gin.Context) {
	members, err := h.service.Members(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, members)
}

// Unshare handles DELETE /documents/:id/share/:userId.
func (h *Handler) Unshare(ctx *gin.Context) {
	err := h.service.Unshare(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id"), ctx.Param("userId"))
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Access removed"})
}
