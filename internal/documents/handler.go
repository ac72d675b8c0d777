package documents

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"docvault/internal/apperr"
	"docvault/internal/auth"
	"docvault/internal/blob"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service        *Service
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewHandler(service *Service, maxUploadBytes int64, logger *slog.Logger) *Handler {
	return &Handler{service: service, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Upload handles POST /upload with a multipart "file" and optional "folderId".
func (h *Handler) Upload(ctx *gin.Context) {
	principal := auth.MustPrincipal(ctx)
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, h.maxUploadBytes+1<<20)

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apperr.Respond(ctx, apperr.BadRequest("file exceeds the %d byte upload limit", h.maxUploadBytes), h.logger)
			return
		}
		apperr.Respond(ctx, apperr.BadRequest("file is required"), h.logger)
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		apperr.Respond(ctx, apperr.BadRequest("file exceeds the %d byte upload limit", h.maxUploadBytes), h.logger)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		apperr.Respond(ctx, apperr.BadRequest("could not read uploaded file"), h.logger)
		return
	}
	defer file.Close()

	in := UploadInput{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	}
	if folderID := ctx.PostForm("folderId"); folderID != "" {
		in.FolderID = &folderID
	}

	doc, err := h.service.Upload(ctx.Request.Context(), principal, in)
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusCreated, doc)
}

// List handles GET /documents[?userId=].
func (h *Handler) List(ctx *gin.Context) {
	docs, err := h.service.List(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Query("userId"))
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, docs)
}

// Suggestions handles GET /documents/suggestions?documentName=.
func (h *Handler) Suggestions(ctx *gin.Context) {
	docs, err := h.service.Suggestions(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Query("documentName"))
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, docs)
}

func (h *Handler) Get(ctx *gin.Context) {
	doc, err := h.service.Get(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id"))
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, doc)
}

// Download redirects to a signed URL when the blob backend can sign, and
// streams the bytes otherwise.
func (h *Handler) Download(ctx *gin.Context) {
	principal := auth.MustPrincipal(ctx)
	id := ctx.Param("id")

	url, err := h.service.DownloadURL(ctx.Request.Context(), principal, id)
	if err == nil {
		ctx.Redirect(http.StatusTemporaryRedirect, url)
		return
	}
	if !errors.Is(err, blob.ErrSignedURLUnsupported) {
		apperr.Respond(ctx, err, h.logger)
		return
	}

	doc, rc, err := h.service.Open(ctx.Request.Context(), principal, id)
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	defer rc.Close()

	ctx.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name}))
	ctx.Header("Content-Length", strconv.FormatInt(doc.Size, 10))
	ctx.Header("Content-Type", doc.ContentType)
	ctx.Status(http.StatusOK)
	if _, err := io.Copy(ctx.Writer, rc); err != nil {
		h.logger.Warn("Download interrupted", "documentId", doc.ID, "error", err)
	}
}

func (h *Handler) Delete(ctx *gin.Context) {
	if err := h.service.Delete(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Param("id")); err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Document %s deleted", ctx.Param("id"))})
}
