package notify

import (
	"log/slog"
	"net/http"
	"strconv"

	"docvault/internal/apperr"
	"docvault/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Handler struct {
	service  *Service
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHandler(service *Service, hub *Hub, checkOrigin func(r *http.Request) bool, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// List handles GET /notifications. A userId query parameter is ignored; the
// inbox always belongs to the authenticated principal.
func (h *Handler) List(ctx *gin.Context) {
	principal := auth.MustPrincipal(ctx)

	opts := ListOptions{UnreadOnly: ctx.Query("unread") == "true"}
	var err error
	if v := ctx.Query("limit"); v != "" {
		if opts.Limit, err = strconv.Atoi(v); err != nil || opts.Limit < 0 {
			apperr.Respond(ctx, apperr.BadRequest("limit must be a non-negative integer"), h.logger)
			return
		}
	}
	if v := ctx.Query("offset"); v != "" {
		if opts.Offset, err = strconv.Atoi(v); err != nil {
			apperr.Respond(ctx, apperr.BadRequest("offset must be an integer"), h.logger)
			return
		}
	}

	notifications, err := h.service.List(ctx.Request.Context(), principal.ID, opts)
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, notifications)
}

func (h *Handler) MarkRead(ctx *gin.Context) {
	principal := auth.MustPrincipal(ctx)
	if err := h.service.MarkRead(ctx.Request.Context(), principal.ID, ctx.Param("id")); err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func (h *Handler) Delete(ctx *gin.Context) {
	principal := auth.MustPrincipal(ctx)
	if err := h.service.Delete(ctx.Request.Context(), principal.ID, ctx.Param("id")); err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}

// Stream handles GET /notifications/ws and pushes new notifications as JSON
// text frames until the client disconnects.
func (h *Handler) Stream(ctx *gin.Context) {
	principal := auth.MustPrincipal(ctx)
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("WebSocket upgrade failed", "userId", principal.ID, "error", err)
		return
	}
	h.hub.AddClient(principal.ID, conn)
}
