package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// AuditLog records the outcome of every login attempt.
// Implementations must never receive or record the submitted secret.
type AuditLog interface {
	Record(ctx context.Context, identity string, outcome Outcome)
}

// ErrFunc is a function that handles errors.
type ErrFunc func(error)

// LogAudit writes login attempts to a structured logger.
type LogAudit struct {
	logger *slog.Logger
}

// NewLogAudit creates a new LogAudit.
func NewLogAudit(logger *slog.Logger) *LogAudit {
	return &LogAudit{
		logger: logger,
	}
}

func (a *LogAudit) Record(ctx context.Context, identity string, outcome Outcome) {
	level := slog.LevelInfo
	if outcome == OutcomeTransientFailure {
		level = slog.LevelWarn
	}

	a.logger.Log(ctx, level, "login attempt",
		"identity", identity,
		"outcome", outcome,
	)
}

// LoginAttempt is a persisted record of a login attempt.
type LoginAttempt struct {
	Identity  string
	Outcome   Outcome
	CreatedAt time.Time
}

// AttemptRecorder persists login attempts.
type AttemptRecorder interface {
	RecordLoginAttempt(ctx context.Context, attempt LoginAttempt) error
}

// StoreAudit persists login attempts using an AttemptRecorder.
// Failing to record an attempt does not influence the outcome of the
// attempt itself, errors are reported to the ErrFunc instead.
type StoreAudit struct {
	recorder   AttemptRecorder
	errHandler ErrFunc

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

// NewStoreAudit creates a new StoreAudit.
func NewStoreAudit(recorder AttemptRecorder, errHandler ErrFunc) *StoreAudit {
	return &StoreAudit{
		recorder:   recorder,
		errHandler: errHandler,
		NowFunc:    time.Now,
	}
}

func (a *StoreAudit) Record(ctx context.Context, identity string, outcome Outcome) {
	err := a.recorder.RecordLoginAttempt(ctx, LoginAttempt{
		Identity:  strings.ToLower(strings.TrimSpace(identity)),
		Outcome:   outcome,
		CreatedAt: a.NowFunc(),
	})
	if err != nil {
		a.errHandler(err)
	}
}

// MultiAudit records to multiple audit logs, in order.
type MultiAudit []AuditLog

func (m MultiAudit) Record(ctx context.Context, identity string, outcome Outcome) {
	for _, a := range m {
		a.Record(ctx, identity, outcome)
	}
}
