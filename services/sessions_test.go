package services

import (
	"context"
	"sync"
	"testing"

	"audionav/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedState struct {
	session string
	seq     uint64
	state   types.BrowserState
}

type recordingPublisher struct {
	mu     sync.Mutex
	states []publishedState
	closed []string
}

func (p *recordingPublisher) PublishState(sessionID string, seq uint64, state types.BrowserState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, publishedState{session: sessionID, seq: seq, state: state})
}

func (p *recordingPublisher) CloseSession(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, sessionID)
}

func newTestSessionManager(t *testing.T, publisher SnapshotPublisher) *SessionManager {
	fs := musicFS(t)
	return NewSessionManager(func(opts ...NavigatorOption) *Navigator {
		return NewNavigator(fs, testVolumes, &fakeGate{allow: true}, opts...)
	}, publisher)
}

func TestSessionLifecycle(t *testing.T) {
	publisher := &recordingPublisher{}
	manager := newTestSessionManager(t, publisher)
	ctx := context.Background()

	first := manager.Create(ctx)
	second := manager.Create(ctx)
	require.NotEqual(t, first.ID, second.ID)

	state := first.State()
	assert.True(t, state.IsRootScreen)
	assert.False(t, state.IsLoading)
	assert.Len(t, state.Items, 2)

	got, ok := manager.Get(first.ID)
	require.True(t, ok)
	assert.Same(t, first, got)

	sessions := manager.List()
	require.Len(t, sessions, 2)
	assert.Equal(t, first.ID, sessions[0].ID)
	assert.Equal(t, second.ID, sessions[1].ID)

	assert.True(t, manager.Close(ctx, first.ID))
	assert.False(t, manager.Close(ctx, first.ID))
	_, ok = manager.Get(first.ID)
	assert.False(t, ok)
	assert.Len(t, manager.List(), 1)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	assert.Equal(t, []string{first.ID}, publisher.closed)
}

func TestSessionPublishesSnapshots(t *testing.T) {
	publisher := &recordingPublisher{}
	manager := newTestSessionManager(t, publisher)
	ctx := context.Background()

	session := manager.Create(ctx)
	session.NavigateTo(ctx, musicDir, true)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	require.Len(t, publisher.states, 4)
	var lastSeq uint64
	for _, p := range publisher.states {
		assert.Equal(t, session.ID, p.session)
		assert.GreaterOrEqual(t, p.seq, lastSeq)
		lastSeq = p.seq
	}
	last := publisher.states[len(publisher.states)-1].state
	assert.Equal(t, musicDir, last.CurrentPath)
	assert.Equal(t, []string{"A", "a.flac", "b.mp3"}, itemNames(last.Items))
}

func TestSessionsAreIndependent(t *testing.T) {
	manager := newTestSessionManager(t, nil)
	ctx := context.Background()

	a := manager.Create(ctx)
	b := manager.Create(ctx)

	a.NavigateTo(ctx, musicDir, true)

	assert.Equal(t, musicDir, a.State().CurrentPath)
	assert.True(t, b.State().IsRootScreen)
}
