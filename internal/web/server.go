package web

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/willemschots/signin/internal/auth"
	"github.com/willemschots/signin/internal/errorz"
	"github.com/willemschots/signin/internal/metrics"
	"github.com/willemschots/signin/internal/web/sessions"
)

// ViewRenderer renders named views with the given data.
type ViewRenderer interface {
	Render(w io.Writer, name string, data any) error
}

// Decider decides the outcome of login attempts.
type Decider interface {
	Evaluate(ctx context.Context, token auth.AntiForgeryToken, c auth.Credential) auth.Decision
}

// ServerDeps are the dependencies for the server.
type ServerDeps struct {
	Logger       *slog.Logger
	ViewRenderer ViewRenderer
	Decider      Decider
	SessionStore *sessions.Store
	DistFS       http.FileSystem
	// Metrics is optional, if nil no metrics are exposed.
	Metrics *metrics.Metrics
}

type Server struct {
	deps    *ServerDeps
	mux     *http.ServeMux
	decoder *schema.Decoder
	handler http.Handler
}

func NewServer(deps *ServerDeps) *Server {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	s := &Server{
		deps:    deps,
		mux:     http.NewServeMux(),
		decoder: decoder,
	}

	// Homepage endpoint.
	s.public("index", "GET /{$}", s.viewHandler("index"))

	// Login endpoints.
	s.publicOnly("security_login", "GET /login", s.viewHandler("login"))
	s.publicOnly("security_login_check", "POST /login", handleForm(s, s.login, s.loginResponse))

	// Logout endpoint.
	s.loggedIn("security_logout", "POST /logout", handleForm(s, s.logout,
		func(w http.ResponseWriter, r *http.Request, _ tokenForm, _ struct{}) error {
			return s.redirect(w, r, "/")
		},
	))

	if deps.Metrics != nil {
		s.mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(s.deps.DistFS)))

	// Wrap the mux with global middlewares.
	middlewares := []func(http.Handler) http.Handler{
		sessionMiddleware(s),
	}
	s.handler = s.mux
	for i := len(middlewares) - 1; i >= 0; i-- {
		s.handler = middlewares[i](s.handler)
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) viewHandler(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := s.writeView(w, r, name, nil)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
	})
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request, name string, data any) error {
	sess, err := sessionFromCtx(r.Context())
	if err != nil {
		return err
	}

	err = ensureCSRFToken(sess)
	if err != nil {
		return err
	}

	vd := prepViewData(sess, data)

	// Render before saving, flashes are consumed by now.
	var buf bytes.Buffer
	err = s.deps.ViewRenderer.Render(&buf, name, vd)
	if err != nil {
		return err
	}

	err = s.saveSession(w, r, sess)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}

// redirect saves the session if needed and redirects with a 302.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, url string) error {
	sess, err := sessionFromCtx(r.Context())
	if err != nil {
		return err
	}

	err = s.saveSession(w, r, sess)
	if err != nil {
		return err
	}

	http.Redirect(w, r, url, http.StatusFound)
	return nil
}

func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, sess *sessions.Session) error {
	if !sess.NeedsSave() {
		return nil
	}

	return s.deps.SessionStore.Save(r, w, sess)
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errorz.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var invalidInput errorz.InvalidInput
	if errors.As(err, &invalidInput) {
		s.deps.Logger.Info("invalid input", "url", r.URL.String(), "keys", invalidInput.Keys())
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	if errors.Is(err, errorz.ErrUnavailable) {
		s.deps.Logger.Warn("service unavailable", "url", r.URL.String(), "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	s.deps.Logger.Error("internal server error", "url", r.URL.String(), "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
