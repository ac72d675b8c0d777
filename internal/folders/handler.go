package folders

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

type CreateRequest struct {
	Name           string  `json:"name" binding:"required"`
	ParentFolderID *string `json:"parentFolderId"`
}

type MoveRequest struct {
	ParentFolderID *string `json:"parentFolderId"`
}

type RenameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) Create(ctx *gin.Context) {
	var req CreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Folder name is required"})
		return
	}
	folder, err := h.service.Create(ctx.Request.Context(), auth.MustPrincipal(ctx), req.Name, req.ParentFolderID)
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusCreated, folder)
}

// List handles GET /folders[?parentId=].
func (h *Handler) List(ctx *gin.Context) {
	var parentID *string
	if v, ok := ctx.GetQuery("parentId"); ok {
		parentID = &v
	}
	folders, err := h.service.List(ctx.Request.Context(), auth.MustPrincipal(ctx), parentID)
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, folders)
}

func (h *Handler) Documents(ctx *gin.Context) {
	docs, err := h.service.Documents(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, docs)
}

func (h *Handler) Move(ctx *gin.Context) {
	var req MoveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	folder, err := h.service.Move(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id"), req.ParentFolderID)
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, folder)
}

func (h *Handler) Rename(ctx *gin.Context) {
	var req RenameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Folder name is required"})
		return
	}
	folder, err := h.service.Rename(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id"), req.Name)
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, folder)
}

func (h *Handler) Delete(ctx *gin.Context) {
	if err := h.service.Delete(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id")); err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Folder deleted"})
}
