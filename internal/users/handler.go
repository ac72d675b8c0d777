package users

import (
	"encoding/json"
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
	users, err := h.service.List(ctx.Request.Context())
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, users)
}

// Suggestions handles GET /users/suggestions?uploadedBy=.
func (h *Handler) Suggestions(ctx *gin.Context) {
	users, err := h.service.Suggestions(ctx.Request.Context(), ctx.Query("uploadedBy"))
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, users)
}

func (h *Handler) Get(ctx *gin.Context) {
	user, err := h.service.Get(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

// Update handles PUT /users/:id. Bodies that try to set isAdmin are refused
// outright.
func (h *Handler) Update(ctx *gin.Context) {
	raw, err := ctx.GetRawData()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Missing Request"})
		return
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if _, ok := keys["isAdmin"]; ok {
		apperr.Respond(ctx, apperr.BadRequest("isAdmin can only be changed through make-admin or revoke-admin"), h.logger)
		return
	}
	var in UpdateInput
	if err := json.Unmarshal(raw, &in); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	user, err := h.service.Update(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id"), in)
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

func (h *Handler) Delete(ctx *gin.Context) {
	if err := h.service.Delete(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id")); err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// MakeAdmin handles PATCH /users/:id/make-admin.
func (h *Handler) MakeAdmin(ctx *gin.Context) {
	h.setAdmin(ctx, true)
}

// RevokeAdmin handles PATCH /users/:id/revoke-admin.
func (h *Handler) RevokeAdmin(ctx *gin.Context) {
	h.setAdmin(ctx, false)
}

func (h *Handler) setAdmin(ctx *gin.Context, value bool) {
	user, err := h.service.SetAdmin(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id"), value)
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, user)
}
