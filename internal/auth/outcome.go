package auth

// Outcome is the result of evaluating a login attempt. Every evaluation
// produces exactly one outcome.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeIdentityNotFound Outcome = "identity_not_found"
	OutcomeInvalidSecret    Outcome = "invalid_secret"
	OutcomeAccountSuspended Outcome = "account_suspended"
	OutcomeInvalidToken     Outcome = "invalid_token"
	// OutcomeTransientFailure indicates the account store could not be
	// reached. It's never reported as OutcomeIdentityNotFound.
	OutcomeTransientFailure Outcome = "transient_failure"
)

// Outcomes lists all outcomes.
var Outcomes = []Outcome{
	OutcomeInvalidToken,
	OutcomeTransientFailure,
	OutcomeIdentityNotFound,
	OutcomeAccountSuspended,
	OutcomeInvalidSecret,
	OutcomeSuccess,
}

func (o Outcome) String() string {
	return string(o)
}

// Decision is returned by the Decider.
type Decision struct {
	Outcome Outcome
	// Account is only set when Outcome is OutcomeSuccess.
	Account *Account
	// Err is only set when Outcome is OutcomeTransientFailure.
	Err error
}

// Succeeded reports whether the login attempt was successful.
func (d Decision) Succeeded() bool {
	return d.Outcome == OutcomeSuccess
}
