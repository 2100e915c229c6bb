package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/willemschots/signin/internal/web/sessions"
)

var errNoSession = errors.New("no session in request context")

type sessionCtxKey struct{}

// sessionMiddleware loads the session of every request that isn't for a static
// file and stores it in the request context. Saving it is up to the handlers.
//
// Responses carrying a session are marked as not cacheable, since rendered pages
// contain the anti-forgery token.
func sessionMiddleware(srv *Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := srv.deps.SessionStore.Get(r)
			if err != nil {
				srv.handleError(w, r, err)
				return
			}

			w.Header().Set("Cache-Control", "no-store")

			ctx := context.WithValue(r.Context(), sessionCtxKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromCtx(ctx context.Context) (*sessions.Session, error) {
	sess, ok := ctx.Value(sessionCtxKey{}).(*sessions.Session)
	if !ok {
		return nil, errNoSession
	}

	return sess, nil
}
