package memos

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

func (h *Handler) List(ctx *gin.Context) {
	memos, err := h.service.List(ctx.Request.Context())
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, memos)
}

func (h *Handler) Create(ctx *gin.Context) {
	var in Input
	if err := ctx.ShouldBindJSON(&in); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}
	memo, err := h.service.Create(ctx.Request.Context(), auth.MustPrincipal(ctx), in)
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusCreated, memo)
}

func (h *Handler) Update(ctx *gin.Context) {
	var in Input
	if err := ctx.ShouldBindJSON(&in); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}
	memo, err := h.service.Update(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id"), in)
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, memo)
}

func (h *Handler) Delete(ctx *gin.Context) {
	if err := h.service.Delete(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id")); err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Memo deleted"})
}
