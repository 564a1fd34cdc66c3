package utils

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	app_error "github.com/Lea43010/baustructura-chat/internal/errors"
	"github.com/Lea43010/baustructura-chat/internal/utils/types"
)

// VerifySession trusts the session the main web app established: the Redis
// entry under session:<userID> is the source of truth. A token, when the
// client supplies one, is verified against the shared HMAC secret and must
// agree with the claimed user id; its absence is not an error.
func VerifySession(ctx context.Context, rdb *redis.Client, userID, token string, secret []byte) *app_error.AppError {
	session, appErr := GetCacheData[types.Session](ctx, rdb, SessionKey(userID))
	if appErr != nil {
		return appErr
	}
	if session == nil {
		return app_error.NewAppError(http.StatusUnauthorized, "session not found or revoked", "session")
	}
	if session.ExpiresAt > 0 && session.ExpiresAt < time.Now().Unix() {
		return app_error.NewAppError(http.StatusUnauthorized, "session expired", "session")
	}

	if token != "" {
		sub, err := parseTokenSubject(token, secret)
		if err != nil {
			return app_error.NewAppError(http.StatusUnauthorized, "invalid token", "token")
		}
		if sub != userID {
			return app_error.NewAppError(http.StatusUnauthorized, "token subject mismatch", "token")
		}
	}

	return nil
}

func SessionKey(userID string) string {
	return fmt.Sprintf("session:%s", userID)
}

func parseTokenSubject(token string, secret []byte) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}

	if !parsed.Valid {
		return "", fmt.Errorf("invalid token")
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}

	return sub, nil
}
