package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/riskibarqy/futboss/internal/domain/user"
)

type contextKey string

const sessionContextKey contextKey = "auth_session"

func withSession(ctx context.Context, s user.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// sessionFromContext returns nil for anonymous requests.
func sessionFromContext(ctx context.Context) user.Session {
	s, _ := ctx.Value(sessionContextKey).(user.Session)
	return s
}

// bearerToken extracts the token of an "Authorization: Bearer <token>"
// header. ok is false when the header is missing or malformed.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
