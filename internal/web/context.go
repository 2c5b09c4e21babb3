package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/exoplorer/internal/core"
	"github.com/JonMunkholm/exoplorer/internal/logging"
)

// ClientCookie identifies a browser. Every repository is namespaced by it.
const ClientCookie = "exo_client"

const clientCookieMaxAge = 365 * 24 * time.Hour

type clientKey struct{}

// clientIdentity reads the client cookie, issuing a new UUID when it is
// missing or malformed.
func (s *Server) clientIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(ClientCookie); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ClientCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(clientCookieMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   s.cfg.Security.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), clientKey{}, id)
		ctx = logging.ContextWith(ctx, "client", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientID returns the id set by clientIdentity, or "".
func clientID(ctx context.Context) string {
	id, _ := ctx.Value(clientKey{}).(string)
	return id
}

// workspace returns the repositories of the requesting client.
func (s *Server) workspace(r *http.Request) *core.Workspace {
	return s.service.Workspace(clientID(r.Context()))
}
