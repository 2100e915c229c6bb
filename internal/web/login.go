package web

import (
	"context"
	"net/http"

	"github.com/willemschots/signin/internal/auth"
	"github.com/willemschots/signin/internal/email"
)

const csrfTokenField = "_csrf_token"

type loginForm struct {
	Email     string `schema:"email"`
	Password  string `schema:"password"`
	CSRFToken string `schema:"_csrf_token"`
}

type tokenForm struct {
	CSRFToken string `schema:"_csrf_token"`
}

func (s *Server) login(ctx context.Context, form loginForm) (auth.Decision, error) {
	sess, err := sessionFromCtx(ctx)
	if err != nil {
		return auth.Decision{}, err
	}

	token := auth.AntiForgeryToken{
		Value:    form.CSRFToken,
		Expected: sess.CSRFToken(),
	}

	decision := s.deps.Decider.Evaluate(ctx, token, auth.Credential{
		Identity: form.Email,
		Secret:   auth.NewSecret(form.Password),
	})

	if decision.Outcome == auth.OutcomeTransientFailure {
		s.deps.Logger.Error("failed to evaluate login attempt", "error", decision.Err)
	}

	return decision, nil
}

func (s *Server) loginResponse(w http.ResponseWriter, r *http.Request, form loginForm, decision auth.Decision) error {
	sess, err := sessionFromCtx(r.Context())
	if err != nil {
		return err
	}

	if decision.Outcome == auth.OutcomeSuccess {
		sess.SetUserID(decision.Account.ID)
		sess.SetLastIdentity(string(decision.Account.Identity))

		err = rotateCSRFToken(sess)
		if err != nil {
			return err
		}

		return s.redirect(w, r, "/")
	}

	// Input that isn't an address has no length limit, it's not remembered.
	identity, _ := email.ParseAddress(form.Email)
	sess.SetLastIdentity(string(identity))
	sess.SetFlash(outcomeMessage(decision.Outcome))

	return s.redirect(w, r, "/login")
}

func (s *Server) logout(ctx context.Context, form tokenForm) (struct{}, error) {
	sess, err := sessionFromCtx(ctx)
	if err != nil {
		return struct{}{}, err
	}

	token := auth.AntiForgeryToken{
		Value:    form.CSRFToken,
		Expected: sess.CSRFToken(),
	}

	if !token.Valid() {
		sess.SetFlash(outcomeMessage(auth.OutcomeInvalidToken))
		return struct{}{}, nil
	}

	sess.DeleteUserID()
	return struct{}{}, rotateCSRFToken(sess)
}

// outcomeMessage returns the message shown to the user for a failed login attempt.
func outcomeMessage(o auth.Outcome) string {
	switch o {
	case auth.OutcomeIdentityNotFound:
		return "Email could not be found."
	case auth.OutcomeInvalidSecret:
		return "Invalid credentials."
	case auth.OutcomeAccountSuspended:
		return "Your account is suspended."
	case auth.OutcomeInvalidToken:
		return "Invalid CSRF token."
	case auth.OutcomeTransientFailure:
		return "Something went wrong, please try again later."
	default:
		return ""
	}
}
