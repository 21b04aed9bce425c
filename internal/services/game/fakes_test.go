package game

import (
	"sync"

	"github.com/mcoot/flippo/internal/model"
)

type fakeConn struct {
	mu     sync.Mutex
	states []model.PlayerSnapshot
	closes []int
}

func (c *fakeConn) SendPlayerState(state model.PlayerSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = append(c.states, state)
}

func (c *fakeConn) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes = append(c.closes, code)
}

func (c *fakeConn) stateCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.states)
}

func (c *fakeConn) lastState() model.PlayerSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[len(c.states)-1]
}

type fakeBroadcaster struct {
	mu        sync.Mutex
	snapshots []model.LobbySnapshot
}

func (b *fakeBroadcaster) BroadcastLobbyState(state model.LobbySnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshots = append(b.snapshots, state)
}

func (b *fakeBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.snapshots)
}

func (b *fakeBroadcaster) last() model.LobbySnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshots[len(b.snapshots)-1]
}

func (b *fakeBroadcaster) phases() []model.Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.Phase
	for _, s := range b.snapshots {
		out = append(out, s.Phase)
	}
	return out
}

type fakeRecorder struct {
	mu        sync.Mutex
	summaries []model.GameSummary
}

func (r *fakeRecorder) RecordGame(summary model.GameSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, summary)
}
