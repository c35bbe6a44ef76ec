package usecase

import (
	"context"
	"time"

	"pdfsync/internal/domain"
)

// SessionRegistry is the process-wide store of sync sessions and their
// connected clients. A session is created on first publish or first register
// for a given id; it is removed only by SweepIdle.
type SessionRegistry interface {
	// Publish appends cmd to the session's bounded queue and fans it out to
	// every currently registered client of the session. Append and fan-out run
	// as one critical section per session, so sequential publishes reach every
	// client in publish order. Clients whose buffer is full are skipped and
	// reported in dropped.
	Publish(ctx context.Context, sessionID, userID string, cmd domain.Command) (delivered, dropped int, err error)

	// Register adds a new client to the session (creating it if needed) and
	// returns the handle carrying its frame channel.
	Register(ctx context.Context, sessionID, userID string) (*domain.Client, error)

	// Deregister removes the client from its session and closes its frame
	// channel. Safe to call more than once.
	Deregister(ctx context.Context, c *domain.Client) error

	// Snapshot returns a diagnostics view of every session. It locks one
	// session at a time, not the whole registry for the full copy.
	Snapshot(ctx context.Context) (domain.DebugReport, error)

	// SessionCount returns the number of live sessions.
	SessionCount(ctx context.Context) (int, error)

	// SweepIdle removes sessions with zero clients whose last activity is
	// older than the registry's idle TTL, returning how many were removed.
	SweepIdle(ctx context.Context, now time.Time) (int, error)
}
