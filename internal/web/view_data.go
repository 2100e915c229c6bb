package web

import (
	"github.com/google/uuid"
	"github.com/willemschots/signin/internal"
	"github.com/willemschots/signin/internal/web/sessions"
)

type viewData struct {
	Version    string
	CSRFToken  string
	CSRFField  string
	IsLoggedIn bool
	UserID     uuid.UUID
	// Identity is the identity of the logged in user, or the identity used in
	// the last failed login attempt.
	Identity string
	Flashes  []string
	Data     any
}

// prepViewData prepares the data that will be passed to the view.
// It consumes the flashes, so the session needs to be saved afterwards.
func prepViewData(sess *sessions.Session, data any) *viewData {
	userID, loggedIn := sess.UserID()

	return &viewData{
		Version:    internal.Version(),
		CSRFToken:  sess.CSRFToken(),
		CSRFField:  csrfTokenField,
		IsLoggedIn: loggedIn,
		UserID:     userID,
		Identity:   sess.LastIdentity(),
		Flashes:    sess.ConsumeFlashes(),
		Data:       data,
	}
}
