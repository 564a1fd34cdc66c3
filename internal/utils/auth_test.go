package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lea43010/baustructura-chat/internal/utils/types"
)

var testSecret = []byte("shared-hmac-secret")

func setupSession(t *testing.T, rdb *redis.Client, userID string, expiresAt int64) {
	t.Helper()
	session := types.Session{
		UserID:    userID,
		Role:      "user",
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: expiresAt,
	}
	data, err := json.Marshal(session)
	require.NoError(t, err)
	require.NoError(t, rdb.Set(context.Background(), SessionKey(userID), data, 0).Err())
}

func signedToken(t *testing.T, subject string, secret []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestVerifySession_ValidSessionNoToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	setupSession(t, rdb, "user-1", time.Now().Add(time.Hour).Unix())

	appErr := VerifySession(context.Background(), rdb, "user-1", "", testSecret)
	assert.Nil(t, appErr, "session alone is sufficient, the token is optional")
}

func TestVerifySession_MissingSession(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	appErr := VerifySession(context.Background(), rdb, "ghost", "", testSecret)

	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.Code)
	assert.Contains(t, appErr.Message, "session not found")
}

func TestVerifySession_ExpiredSession(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	setupSession(t, rdb, "user-1", time.Now().Add(-time.Minute).Unix())

	appErr := VerifySession(context.Background(), rdb, "user-1", "", testSecret)

	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.Code)
	assert.Contains(t, appErr.Message, "expired")
}

func TestVerifySession_ValidToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	setupSession(t, rdb, "user-1", time.Now().Add(time.Hour).Unix())
	token := signedToken(t, "user-1", testSecret)

	appErr := VerifySession(context.Background(), rdb, "user-1", token, testSecret)
	assert.Nil(t, appErr)
}

func TestVerifySession_TokenSubjectMismatch(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	setupSession(t, rdb, "user-1", time.Now().Add(time.Hour).Unix())
	token := signedToken(t, "someone-else", testSecret)

	appErr := VerifySession(context.Background(), rdb, "user-1", token, testSecret)

	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Message, "subject mismatch")
}

func TestVerifySession_TokenWrongSecret(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	setupSession(t, rdb, "user-1", time.Now().Add(time.Hour).Unix())
	token := signedToken(t, "user-1", []byte("some-other-secret"))

	appErr := VerifySession(context.Background(), rdb, "user-1", token, testSecret)

	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Message, "invalid token")
}
