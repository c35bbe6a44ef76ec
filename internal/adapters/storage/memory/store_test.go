package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfsync/internal/domain"
)

func mustPage(t *testing.T, page int) domain.Command {
	t.Helper()
	cmd, err := domain.NewChangePage(page)
	require.NoError(t, err)
	return cmd
}

func TestPublishCreatesSession(t *testing.T) {
	r := NewRegistry(100, 32, 0)
	ctx := context.Background()

	delivered, dropped, err := r.Publish(ctx, "default", "anonymous", mustPage(t, 1))
	require.NoError(t, err)
	assert.Zero(t, delivered)
	assert.Zero(t, dropped)

	report, err := r.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, report.Sessions, 1)
	assert.Equal(t, "default", report.Sessions[0].SessionID)
	assert.Equal(t, "anonymous", report.Sessions[0].UserID)
	assert.Equal(t, 1, report.Sessions[0].QueuedCommands)
	assert.Equal(t, 1, report.TotalQueuedCommands)
}

func TestFanOutOrderAcrossClients(t *testing.T) {
	r := NewRegistry(100, 32, 0)
	ctx := context.Background()

	a, err := r.Register(ctx, "doc-1", "alice")
	require.NoError(t, err)
	b, err := r.Register(ctx, "doc-1", "bob")
	require.NoError(t, err)

	const n = 10
	for i := 1; i <= n; i++ {
		delivered, dropped, err := r.Publish(ctx, "doc-1", "alice", mustPage(t, i))
		require.NoError(t, err)
		assert.Equal(t, 2, delivered)
		assert.Zero(t, dropped)
	}

	for _, c := range []*domain.Client{a, b} {
		for i := 1; i <= n; i++ {
			cmd := <-c.Frames
			assert.Equal(t, i, cmd.Page, "client %s out of order", c.UserID)
		}
	}
}

func TestConcurrentPublishOrderIsConsistent(t *testing.T) {
	r := NewRegistry(200, 200, 0)
	ctx := context.Background()

	a, err := r.Register(ctx, "doc-1", "alice")
	require.NoError(t, err)
	b, err := r.Register(ctx, "doc-1", "bob")
	require.NoError(t, err)

	const n = 100
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			_, _, _ = r.Publish(ctx, "doc-1", "alice", mustPage(t, page))
		}(i)
	}
	wg.Wait()

	// fan-out runs inside the per-session critical section, so both clients
	// must observe the same relative order whatever it is
	seqA := make([]int, 0, n)
	seqB := make([]int, 0, n)
	for i := 0; i < n; i++ {
		seqA = append(seqA, (<-a.Frames).Page)
		seqB = append(seqB, (<-b.Frames).Page)
	}
	assert.Equal(t, seqA, seqB)
}

func TestQueueIsBounded(t *testing.T) {
	r := NewRegistry(5, 32, 0)
	ctx := context.Background()

	for i := 1; i <= 8; i++ {
		_, _, err := r.Publish(ctx, "doc-1", "alice", mustPage(t, i))
		require.NoError(t, err)
	}

	report, err := r.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, report.Sessions, 1)
	view := report.Sessions[0]
	require.Equal(t, 5, view.QueuedCommands)
	// oldest evicted: pages 4..8 remain
	assert.Equal(t, 4, view.Commands[0].Page)
	assert.Equal(t, 8, view.Commands[4].Page)
}

func TestSlowClientDropsFramesOthersUnaffected(t *testing.T) {
	r := NewRegistry(100, 2, 0)
	ctx := context.Background()

	slow, err := r.Register(ctx, "doc-1", "slow")
	require.NoError(t, err)
	fast, err := r.Register(ctx, "doc-1", "fast")
	require.NoError(t, err)

	totalDropped := 0
	for i := 1; i <= 4; i++ {
		_, dropped, err := r.Publish(ctx, "doc-1", "alice", mustPage(t, i))
		require.NoError(t, err)
		totalDropped += dropped
		// drain fast client so its buffer never fills
		cmd := <-fast.Frames
		assert.Equal(t, i, cmd.Page)
	}

	// slow client's buffer holds 2, the rest were dropped
	assert.Equal(t, 2, totalDropped)
	assert.Len(t, slow.Frames, 2)
}

func TestSessionIsolation(t *testing.T) {
	r := NewRegistry(100, 32, 0)
	ctx := context.Background()

	a, err := r.Register(ctx, "A", "alice")
	require.NoError(t, err)
	b, err := r.Register(ctx, "B", "bob")
	require.NoError(t, err)

	_, _, err = r.Publish(ctx, "A", "alice", mustPage(t, 2))
	require.NoError(t, err)

	cmd := <-a.Frames
	assert.Equal(t, 2, cmd.Page)
	assert.Empty(t, b.Frames)
}

func TestDeregisterIsIdempotent(t *testing.T) {
	r := NewRegistry(100, 32, 0)
	ctx := context.Background()

	c, err := r.Register(ctx, "doc-1", "alice")
	require.NoError(t, err)

	require.NoError(t, r.Deregister(ctx, c))
	require.NoError(t, r.Deregister(ctx, c))
	require.NoError(t, r.Deregister(ctx, nil))

	_, open := <-c.Frames
	assert.False(t, open, "frame channel should be closed")

	// no further deliveries after deregistration
	delivered, _, err := r.Publish(ctx, "doc-1", "alice", mustPage(t, 9))
	require.NoError(t, err)
	assert.Zero(t, delivered)
}

func TestSweepIdleRemovesOnlyIdleClientlessSessions(t *testing.T) {
	r := NewRegistry(100, 32, time.Minute)
	ctx := context.Background()

	// busy keeps a client connected; stale has none
	_, err := r.Register(ctx, "busy", "alice")
	require.NoError(t, err)
	_, _, err = r.Publish(ctx, "stale", "bob", mustPage(t, 1))
	require.NoError(t, err)

	// not yet past the TTL: nothing to evict
	removed, err := r.SweepIdle(ctx, time.Now().UTC().Add(30*time.Second))
	require.NoError(t, err)
	assert.Zero(t, removed)

	// past the TTL: stale goes, busy stays because it still has a client
	removed, err = r.SweepIdle(ctx, time.Now().UTC().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err := r.SessionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	report, err := r.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, report.Sessions, 1)
	assert.Equal(t, "busy", report.Sessions[0].SessionID)
}

func TestSweepDisabledWithZeroTTL(t *testing.T) {
	r := NewRegistry(100, 32, 0)
	ctx := context.Background()

	_, _, err := r.Publish(ctx, "doc-1", "alice", mustPage(t, 1))
	require.NoError(t, err)

	removed, err := r.SweepIdle(ctx, time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestConcurrentRegisterPublishDeregister(t *testing.T) {
	r := NewRegistry(100, 64, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessionID := fmt.Sprintf("doc-%d", i%4)
			c, err := r.Register(ctx, sessionID, "user")
			if err != nil {
				t.Error(err)
				return
			}
			_, _, _ = r.Publish(ctx, sessionID, "user", mustPage(t, i+1))
			_ = r.Deregister(ctx, c)
			_ = r.Deregister(ctx, c)
		}(i)
	}
	wg.Wait()

	report, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalSessions)
	assert.Zero(t, report.TotalConnectedClients)
}
