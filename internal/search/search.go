// Package search serves the global search box: principals and readable
// documents whose names contain the query.
package search

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"docvault/internal/apperr"
	"docvault/internal/auth"
	"docvault/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const resultLimit = 20

type UserSearcher interface {
	Search(ctx context.Context, q string, limit int) ([]utils.User, error)
}

type DocumentSearcher interface {
	Search(ctx context.Context, p utils.Principal, q string, limit int) ([]utils.Document, error)
}

type Results struct {
	Users     []utils.User     `json:"users"`
	Documents []utils.Document `json:"documents"`
}

type Service struct {
	users     UserSearcher
	documents DocumentSearcher
}

func NewService(users UserSearcher, documents DocumentSearcher) *Service {
	return &Service{users: users, documents: documents}
}

// Search runs the user and document queries concurrently.
func (s *Service) Search(ctx context.Context, p utils.Principal, q string) (Results, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return Results{}, apperr.BadRequest("query is required")
	}

	var res Results
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		res.Users, err = s.users.Search(gctx, q, resultLimit)
		return err
	})
	g.Go(func() error {
		var err error
		res.Documents, err = s.documents.Search(gctx, p, q, resultLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return Results{}, err
	}
	return res, nil
}

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Search handles GET /global-search?query=.
func (h *Handler) Search(ctx *gin.Context) {
	res, err := h.service.Search(ctx.Request.Context(), auth.MustPrincipal(ctx), ctx.Query("query"))
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	ctx.JSON(http.StatusOK, res)
}
