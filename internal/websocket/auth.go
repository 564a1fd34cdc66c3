package websocket

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/Lea43010/baustructura-chat/internal/utils"
)

// AuthenticatorFunc checks the identity a client claims in its authenticate
// event. Implementations must be safe for concurrent use.
type AuthenticatorFunc func(ctx context.Context, userID, token string) error

// SessionAuthenticator trusts the HTTP session the main web app established:
// the Redis session entry must exist and, if the client sent a token, it must
// verify and match the claimed user. No further credential check happens at
// the socket layer.
func SessionAuthenticator(rdb *redis.Client, secret []byte) AuthenticatorFunc {
	return func(ctx context.Context, userID, token string) error {
		if appErr := utils.VerifySession(ctx, rdb, userID, token, secret); appErr != nil {
			return appErr
		}
		return nil
	}
}
