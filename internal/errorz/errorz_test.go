package errorz_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/willemschots/signin/internal/errorz"
)

func Test_MapDBErr(t *testing.T) {
	otherErr := errors.New("other")

	tests := map[string]struct {
		err  error
		want error
	}{
		"ok, nil":                {err: nil, want: nil},
		"ok, no rows":            {err: sql.ErrNoRows, want: errorz.ErrNotFound},
		"ok, wrapped no rows":    {err: fmt.Errorf("query: %w", sql.ErrNoRows), want: errorz.ErrNotFound},
		"ok, constraint":         {err: sqlite3.Error{Code: sqlite3.ErrConstraint}, want: errorz.ErrConstraintViolated},
		"ok, busy":               {err: sqlite3.Error{Code: sqlite3.ErrBusy}, want: errorz.ErrUnavailable},
		"ok, locked":             {err: sqlite3.Error{Code: sqlite3.ErrLocked}, want: errorz.ErrUnavailable},
		"ok, other sqlite error": {err: sqlite3.Error{Code: sqlite3.ErrCorrupt}, want: sqlite3.Error{Code: sqlite3.ErrCorrupt}},
		"ok, other error":        {err: otherErr, want: otherErr},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := errorz.MapDBErr(tc.err)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("got %v, want nil", got)
				}
				return
			}

			if !errors.Is(got, tc.want) {
				t.Errorf("got %v, want %v (via errors.Is)", got, tc.want)
			}
		})
	}
}

func Test_InvalidInput(t *testing.T) {
	errA := errors.New("a")

	err := error(errorz.InvalidInput{
		errorz.Keyed{Key: "password", Err: errA},
		errors.New("unkeyed"),
		errorz.Keyed{Key: "email", Err: errors.New("b")},
	})

	want := "invalid input: password: a; unkeyed; email: b"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}

	if !errors.Is(err, errA) {
		t.Errorf("expected %v in error chain", errA)
	}

	var invalidInput errorz.InvalidInput
	if !errors.As(err, &invalidInput) {
		t.Fatalf("expected errors.As to find InvalidInput")
	}

	keys := invalidInput.Keys()
	if len(keys) != 2 || keys[0] != "email" || keys[1] != "password" {
		t.Errorf("got keys %v, want [email password]", keys)
	}
}
