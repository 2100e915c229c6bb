package web

import (
	"net/http"

	"github.com/willemschots/signin/internal/krypto"
	"github.com/willemschots/signin/internal/web/sessions"
)

func (s *Server) handle(name, pattern string, handler http.Handler) {
	if s.deps.Metrics != nil {
		handler = s.deps.Metrics.InstrumentRoute(name, handler)
	}
	s.mux.Handle(pattern, handler)
}

func (s *Server) public(name, pattern string, handler http.Handler) {
	s.handle(name, pattern, handler)
}

// publicOnly registers a handler for visitors that are not logged in.
// Logged in users are sent to the homepage.
func (s *Server) publicOnly(name, pattern string, handler http.Handler) {
	s.handle(name, pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromCtx(r.Context())
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		if _, ok := sess.UserID(); ok {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		handler.ServeHTTP(w, r)
	}))
}

// loggedIn registers a handler for logged in users only.
func (s *Server) loggedIn(name, pattern string, handler http.Handler) {
	s.handle(name, pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromCtx(r.Context())
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		if _, ok := sess.UserID(); !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		handler.ServeHTTP(w, r)
	}))
}

// ensureCSRFToken issues an anti-forgery token if the session has none.
func ensureCSRFToken(sess *sessions.Session) error {
	if sess.CSRFToken() != "" {
		return nil
	}

	return rotateCSRFToken(sess)
}

// rotateCSRFToken replaces the anti-forgery token of the session. Tokens are
// rotated when the user logs in or out, a token obtained before that is worthless after.
func rotateCSRFToken(sess *sessions.Session) error {
	tok, err := krypto.GenerateToken()
	if err != nil {
		return err
	}

	sess.SetCSRFToken(tok.String())
	return nil
}
