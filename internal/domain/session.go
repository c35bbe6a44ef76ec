package domain

import "time"

// Fallback identity when the caller supplies neither a body/query field nor a
// header. Free-form ids are accepted verbatim; there is no entitlement check
// tying a caller to a session (known gap).
const (
	DefaultSessionID = "default"
	DefaultUserID    = "anonymous"
)

// Client is one open push channel to a single viewer instance. Frames carries
// broadcast commands to the transport handler; it is buffered so one stalled
// viewer cannot block fan-out, and closed exactly once on deregistration.
// A client belongs to exactly one session for its whole lifetime.
type Client struct {
	ID          string
	SessionID   string
	UserID      string
	Frames      chan Command
	ConnectedAt time.Time
}

// SessionView is a diagnostics snapshot of one sync session.
type SessionView struct {
	SessionID        string    `json:"sessionId"`
	UserID           string    `json:"userId"`
	ConnectedClients int       `json:"connectedClients"`
	QueuedCommands   int       `json:"queuedCommands"`
	LastActivity     time.Time `json:"lastActivity"`
	Commands         []Command `json:"commands"`
}

// DebugReport is the registry-wide snapshot served by the debug endpoint.
type DebugReport struct {
	TotalSessions         int           `json:"totalSessions"`
	TotalConnectedClients int           `json:"totalConnectedClients"`
	TotalQueuedCommands   int           `json:"totalQueuedCommands"`
	Sessions              []SessionView `json:"sessions"`
	Timestamp             time.Time     `json:"timestamp"`
}
