package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("share: %w", NotFound("user %s not found", "a@b.c"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindForbidden))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestFromDB(t *testing.T) {
	assert.NoError(t, FromDB(nil, "document"))
	assert.True(t, Is(FromDB(gorm.ErrRecordNotFound, "document"), KindNotFound))
	assert.True(t, Is(FromDB(Forbidden("no"), "document"), KindForbidden))

	err := FromDB(errors.New("conn reset"), "document")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Contains(t, err.Error(), "conn reset")
}

func TestStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindBadRequest, http.StatusBadRequest},
		{KindForbidden, http.StatusForbidden},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Status(tt.kind))
	}
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"tagged", BadRequest("invalid email"), http.StatusBadRequest, "invalid email"},
		{"internal hides cause", Internal(errors.New("dsn leaked"), "failed"), http.StatusInternalServerError, "Internal server error"},
		{"untagged", errors.New("raw"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)
			ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Respond(ctx, tt.err, nil)

			require.Equal(t, tt.code, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["message"])
		})
	}
}
