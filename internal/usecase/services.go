package usecase

import (
	"context"
	"time"

	"pdfsync/internal/domain"
)

// SyncService is the application facade over the session registry: it builds
// and validates commands at the boundary and broadcasts them, and owns client
// channel lifecycle for the push endpoints.
type SyncService struct {
	registry SessionRegistry
}

func NewSyncService(registry SessionRegistry) *SyncService {
	return &SyncService{registry: registry}
}

// PublishResult reports the outcome of one broadcast.
type PublishResult struct {
	Command   domain.Command
	Delivered int
	Dropped   int
}

// PageChange validates page and broadcasts a changePage command.
func (s *SyncService) PageChange(ctx context.Context, sessionID, userID string, page int) (PublishResult, error) {
	cmd, err := domain.NewChangePage(page)
	if err != nil {
		return PublishResult{}, err
	}
	return s.publish(ctx, sessionID, userID, cmd)
}

// ZoomX validates the horizontal bounds and broadcasts a zoomToX command.
func (s *SyncService) ZoomX(ctx context.Context, sessionID, userID string, left, right float64) (PublishResult, error) {
	cmd, err := domain.NewZoomToX(left, right)
	if err != nil {
		return PublishResult{}, err
	}
	return s.publish(ctx, sessionID, userID, cmd)
}

// ZoomY validates the vertical bounds and broadcasts a zoomToY command.
func (s *SyncService) ZoomY(ctx context.Context, sessionID, userID string, top, bottom float64) (PublishResult, error) {
	cmd, err := domain.NewZoomToY(top, bottom)
	if err != nil {
		return PublishResult{}, err
	}
	return s.publish(ctx, sessionID, userID, cmd)
}

func (s *SyncService) publish(ctx context.Context, sessionID, userID string, cmd domain.Command) (PublishResult, error) {
	delivered, dropped, err := s.registry.Publish(ctx, sessionID, userID, cmd)
	if err != nil {
		return PublishResult{}, err
	}
	return PublishResult{Command: cmd, Delivered: delivered, Dropped: dropped}, nil
}

// Subscribe registers a new client channel on the session.
func (s *SyncService) Subscribe(ctx context.Context, sessionID, userID string) (*domain.Client, error) {
	return s.registry.Register(ctx, sessionID, userID)
}

// Unsubscribe tears the client down. Idempotent; called on every exit path of
// a push handler.
func (s *SyncService) Unsubscribe(ctx context.Context, c *domain.Client) error {
	return s.registry.Deregister(ctx, c)
}

// Debug returns the registry-wide diagnostics snapshot.
func (s *SyncService) Debug(ctx context.Context) (domain.DebugReport, error) {
	return s.registry.Snapshot(ctx)
}

// SessionCount returns the number of live sessions.
func (s *SyncService) SessionCount(ctx context.Context) (int, error) {
	return s.registry.SessionCount(ctx)
}

// SweepIdle evicts idle, clientless sessions.
func (s *SyncService) SweepIdle(ctx context.Context, now time.Time) (int, error) {
	return s.registry.SweepIdle(ctx, now)
}
