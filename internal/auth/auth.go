package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docvault/internal/apperr"
	"docvault/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	TokenCookie       = "token"
	MinPasswordLength = 6
)

type Handler struct {
	db           *gorm.DB
	jwtKey       []byte
	tokenTTL     time.Duration
	cookieSecure bool
	logger       *slog.Logger
}

type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

func NewHandler(db *gorm.DB, jwtKey []byte, tokenTTL time.Duration, cookieSecure bool, logger *slog.Logger) *Handler {
	return &Handler{
		db:           db,
		jwtKey:       jwtKey,
		tokenTTL:     tokenTTL,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(
			http.StatusBadRequest,
			gin.H{"message": "Missing Request"},
		)
		return
	}

	var user utils.User
	err := h.db.WithContext(ctx.Request.Context()).
		Where("email = ?", utils.NormalizeEmail(req.Email)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same answer as a wrong password so emails cannot be probed.
			apperr.Respond(ctx, apperr.Unauthenticated("Invalid credentials"), h.logger)
		} else {
			apperr.Respond(ctx, apperr.Internal(err, "failed to load user"), h.logger)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		apperr.Respond(ctx, apperr.Unauthenticated("Invalid credentials"), h.logger)
		return
	}

	h.issueToken(ctx, user)
}

func (h *Handler) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(
			http.StatusBadRequest,
			gin.H{"message": "Missing Request"},
		)
		return
	}

	newUser, err := h.createUser(ctx, req)
	if err != nil {
		apperr.Respond(ctx, err, h.logger)
		return
	}
	h.logger.Info("Registered user", "userId", newUser.ID)
	h.issueToken(ctx, newUser)
}

func (h *Handler) createUser(ctx *gin.Context, req RegisterRequest) (utils.User, error) {
	email := utils.NormalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return utils.User{}, apperr.BadRequest("name is required")
	}
	if !utils.ValidEmail(email) {
		return utils.User{}, apperr.BadRequest("invalid email address")
	}
	if len(req.Password) < MinPasswordLength {
		return utils.User{}, apperr.BadRequest("password must be at least %d characters", MinPasswordLength)
	}

	db := h.db.WithContext(ctx.Request.Context())
	var count int64
	if err := db.Model(&utils.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return utils.User{}, apperr.Internal(err, "failed to check user")
	}
	if count > 0 {
		return utils.User{}, apperr.Conflict("User already exists")
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return utils.User{}, apperr.Internal(err, "failed to hash password")
	}
	newUser := utils.User{
		ID:       utils.NewID(),
		Email:    email,
		Name:     name,
		Password: hashedPassword,
	}
	if err := db.Create(&newUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.User{}, apperr.Conflict("User already exists")
		}
		return utils.User{}, apperr.Internal(err, "failed to save user")
	}
	return newUser, nil
}

func (h *Handler) Logout(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(TokenCookie, "", -1, "/", "", h.cookieSecure, true)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) Profile(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, MustPrincipal(ctx))
}

func (h *Handler) issueToken(ctx *gin.Context, user utils.User) {
	token, err := CreateToken(user.ID, h.jwtKey, h.tokenTTL)
	if err != nil {
		apperr.Respond(ctx, apperr.Internal(err, "failed to create token"), h.logger)
		return
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(TokenCookie, token, int(h.tokenTTL.Seconds()), "/", "", h.cookieSecure, true)
	ctx.JSON(
		http.StatusOK,
		gin.H{"token": token, "user": user},
	)
}

func CreateToken(id string, secretKey []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// ParseToken verifies an HS256 token and returns the user id it was issued for.
func ParseToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.ID == "" {
		return "", errors.New("invalid token")
	}
	return claims.ID, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
