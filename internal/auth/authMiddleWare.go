package auth

import (
	"log/slog"
	"strings"

	"docvault/internal/apperr"
	"docvault/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const currentUserKey = "current_user"

// MiddleWare authenticates the request from the token cookie or a bearer
// Authorization header. The principal, including its admin flag, is always
// reloaded from the database rather than trusted from the token.
func MiddleWare(jwtKey []byte, DB *gorm.DB, logger *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := requestToken(ctx)
		if tokenString == "" {
			apperr.Respond(ctx, apperr.Unauthenticated("Authorization token is missing"), logger)
			return
		}

		userID, err := ParseToken(tokenString, jwtKey)
		if err != nil {
			apperr.Respond(ctx, apperr.Unauthenticated("Invalid Authorization Token"), logger)
			return
		}

		var user utils.User
		err = DB.WithContext(ctx.Request.Context()).Where("id = ?", userID).First(&user).Error
		if err != nil {
			apperr.Respond(ctx, apperr.Unauthenticated("Invalid Authorization Token"), logger)
			return
		}

		ctx.Set(currentUserKey, user.Principal())
		ctx.Next()
	}
}

// RequireAdmin must run after MiddleWare.
func RequireAdmin(logger *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		principal, ok := CurrentPrincipal(ctx)
		if !ok {
			apperr.Respond(ctx, apperr.Unauthenticated("Authorization token is missing"), logger)
			return
		}
		if !principal.IsAdmin {
			apperr.Respond(ctx, apperr.Forbidden("Admin privileges required"), logger)
			return
		}
		ctx.Next()
	}
}

func CurrentPrincipal(ctx *gin.Context) (utils.Principal, bool) {
	v, ok := ctx.Get(currentUserKey)
	if !ok {
		return utils.Principal{}, false
	}
	p, ok := v.(utils.Principal)
	return p, ok
}

// MustPrincipal is for handlers mounted behind MiddleWare.
func MustPrincipal(ctx *gin.Context) utils.Principal {
	return ctx.MustGet(currentUserKey).(utils.Principal)
}

// SetPrincipal stores p as the authenticated caller.
func SetPrincipal(ctx *gin.Context, p utils.Principal) {
	ctx.Set(currentUserKey, p)
}

func requestToken(ctx *gin.Context) string {
	if cookie, err := ctx.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie
	}
	header := strings.TrimSpace(ctx.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
