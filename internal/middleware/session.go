package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	app_error "github.com/Lea43010/baustructura-chat/internal/errors"
	"github.com/Lea43010/baustructura-chat/internal/utils"
)

type userKey string

const UserIDKey userKey = "userID"

// SessionAuth guards the REST surface with the same trust model as the
// socket: the parent app's Redis session is authoritative, a bearer token is
// checked only when present. The user id comes from the X-User-Id header set
// by the reverse proxy in front of this service.
func SessionAuth(rdb *redis.Client, secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-Id")
			if userID == "" {
				writeAppError(w, app_error.NewAppError(http.StatusUnauthorized, "Missing user identity", "auth"))
				return
			}

			token := bearerToken(r)

			if appErr := utils.VerifySession(r.Context(), rdb, userID, token, secret); appErr != nil {
				writeAppError(w, appErr)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}

func writeAppError(w http.ResponseWriter, appErr *app_error.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	_ = appErr.JSON(w)
}
