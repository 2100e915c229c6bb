package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/willemschots/signin/internal/errorz"
)

// formHandler decodes a posted form into FORM, passes it to an action and
// lets respond write the response for the action's output.
type formHandler[FORM, OUT any] struct {
	s       *Server
	action  func(context.Context, FORM) (OUT, error)
	respond func(w http.ResponseWriter, r *http.Request, form FORM, out OUT) error
}

// handleForm creates a formHandler. Errors of any of the steps are written
// by the server error handler.
func handleForm[FORM, OUT any](
	s *Server,
	action func(context.Context, FORM) (OUT, error),
	respond func(w http.ResponseWriter, r *http.Request, form FORM, out OUT) error,
) http.Handler {
	return &formHandler[FORM, OUT]{
		s:       s,
		action:  action,
		respond: respond,
	}
}

func (h *formHandler[FORM, OUT]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	form, err := decodeForm[FORM](h.s.decoder, r)
	if err != nil {
		h.s.handleError(w, r, err)
		return
	}

	out, err := h.action(r.Context(), form)
	if err != nil {
		h.s.handleError(w, r, err)
		return
	}

	err = h.respond(w, r, form, out)
	if err != nil {
		h.s.handleError(w, r, err)
	}
}

func decodeForm[FORM any](dec *schema.Decoder, r *http.Request) (FORM, error) {
	var form FORM
	if err := r.ParseForm(); err != nil {
		return form, errorz.InvalidInput{err}
	}

	err := dec.Decode(&form, r.PostForm)
	if err == nil {
		return form, nil
	}

	// schema reports a MultiError keyed by form field.
	var multiErr schema.MultiError
	if !errors.As(err, &multiErr) {
		return form, err
	}

	invalid := make(errorz.InvalidInput, 0, len(multiErr))
	for field, fieldErr := range multiErr {
		invalid = append(invalid, errorz.Keyed{Key: field, Err: fieldErr})
	}

	return form, invalid
}
