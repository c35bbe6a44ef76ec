package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pdfsync/internal/domain"
)

// session is one registry entry. mu guards clients, queue and the activity
// fields; the queue append and client fan-out for a publish happen under a
// single acquisition so concurrent publishes to the same session cannot
// interleave between clients.
type session struct {
	mu           sync.Mutex
	id           string
	userID       string
	clients      map[string]*domain.Client
	queue        []domain.Command
	lastActivity time.Time
}

// Registry is the process-wide in-memory session registry. There is exactly
// one per running server; it starts empty and only SweepIdle removes entries.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session

	queueSize    int
	clientBuffer int
	idleTTL      time.Duration
}

// NewRegistry creates an empty registry. queueSize bounds the per-session
// diagnostics queue (most-recent-N, oldest evicted), clientBuffer sizes each
// client's frame channel, idleTTL is the zero-client eviction threshold used
// by SweepIdle.
func NewRegistry(queueSize, clientBuffer int, idleTTL time.Duration) *Registry {
	if queueSize <= 0 {
		queueSize = 100
	}
	if clientBuffer <= 0 {
		clientBuffer = 32
	}
	return &Registry{
		sessions:     make(map[string]*session),
		queueSize:    queueSize,
		clientBuffer: clientBuffer,
		idleTTL:      idleTTL,
	}
}

// getOrCreate returns the session for id, inserting a new empty one on first
// reference. Safe under concurrent publish and register callers.
func (r *Registry) getOrCreate(sessionID, userID string) *session {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// another caller may have won the race between the two locks
	if s, ok := r.sessions[sessionID]; ok {
		return s
	}
	s = &session{
		id:           sessionID,
		userID:       userID,
		clients:      make(map[string]*domain.Client),
		queue:        make([]domain.Command, 0, r.queueSize),
		lastActivity: time.Now().UTC(),
	}
	r.sessions[sessionID] = s
	return s
}

func (r *Registry) Publish(ctx context.Context, sessionID, userID string, cmd domain.Command) (delivered, dropped int, err error) {
	s := r.getOrCreate(sessionID, userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) >= r.queueSize {
		s.queue = s.queue[1:]
	}
	s.queue = append(s.queue, cmd)
	s.userID = userID
	s.lastActivity = time.Now().UTC()

	// Fan-out stays inside the critical section so per-session ordering holds;
	// sends are non-blocking, a full buffer means the frame is dropped for
	// that client only.
	for _, c := range s.clients {
		select {
		case c.Frames <- cmd:
			delivered++
		default:
			dropped++
		}
	}
	return delivered, dropped, nil
}

func (r *Registry) Register(ctx context.Context, sessionID, userID string) (*domain.Client, error) {
	s := r.getOrCreate(sessionID, userID)

	c := &domain.Client{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		UserID:      userID,
		Frames:      make(chan domain.Command, r.clientBuffer),
		ConnectedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.clients[c.ID] = c
	s.userID = userID
	s.lastActivity = c.ConnectedAt
	s.mu.Unlock()
	return c, nil
}

func (r *Registry) Deregister(ctx context.Context, c *domain.Client) error {
	if c == nil {
		return nil
	}
	r.mu.RLock()
	s, ok := r.sessions[c.SessionID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// the map check makes a second Deregister a no-op; the channel is closed
	// exactly once, under the same lock that guards fan-out sends
	if _, ok := s.clients[c.ID]; !ok {
		return nil
	}
	delete(s.clients, c.ID)
	close(c.Frames)
	s.lastActivity = time.Now().UTC()
	return nil
}

func (r *Registry) Snapshot(ctx context.Context) (domain.DebugReport, error) {
	r.mu.RLock()
	sessions := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	report := domain.DebugReport{
		Sessions:  make([]domain.SessionView, 0, len(sessions)),
		Timestamp: time.Now().UTC(),
	}
	for _, s := range sessions {
		s.mu.Lock()
		view := domain.SessionView{
			SessionID:        s.id,
			UserID:           s.userID,
			ConnectedClients: len(s.clients),
			QueuedCommands:   len(s.queue),
			LastActivity:     s.lastActivity,
			Commands:         append([]domain.Command(nil), s.queue...),
		}
		s.mu.Unlock()
		report.Sessions = append(report.Sessions, view)
		report.TotalConnectedClients += view.ConnectedClients
		report.TotalQueuedCommands += view.QueuedCommands
	}
	sort.Slice(report.Sessions, func(i, j int) bool {
		return report.Sessions[i].SessionID < report.Sessions[j].SessionID
	})
	report.TotalSessions = len(report.Sessions)
	return report, nil
}

func (r *Registry) SessionCount(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}

func (r *Registry) SweepIdle(ctx context.Context, now time.Time) (int, error) {
	if r.idleTTL <= 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		s.mu.Lock()
		idle := len(s.clients) == 0 && now.Sub(s.lastActivity) > r.idleTTL
		s.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}
