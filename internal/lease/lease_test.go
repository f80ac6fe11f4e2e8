package lease

import (
	"context"
	"testing"
	"time"

	"github.com/lprior-repo/mergequeue/internal/clock"
	"github.com/lprior-repo/mergequeue/internal/queueid"
	"github.com/lprior-repo/mergequeue/internal/queuestate"
	"github.com/lprior-repo/mergequeue/internal/store"
)

type fakeStore struct {
	entry     store.Entry
	heartbeat struct {
		ws     queueid.Workspace
		agent  queueid.AgentID
		expiry clock.Timestamp
	}
}

func (f *fakeStore) Heartbeat(ctx context.Context, ws queueid.Workspace, agent queueid.AgentID, newExpiresAt clock.Timestamp) (store.Entry, error) {
	f.heartbeat.ws = ws
	f.heartbeat.agent = agent
	f.heartbeat.expiry = newExpiresAt
	f.entry.LeaseExpiresAt = newExpiresAt
	return f.entry, nil
}

func (f *fakeStore) ReleaseLease(ctx context.Context, ws queueid.Workspace, agent queueid.AgentID) (store.Entry, error) {
	f.entry.Status = queuestate.Pending
	f.entry.Owner = ""
	return f.entry, nil
}

func TestManager_HeartbeatUsesConfiguredTTL(t *testing.T) {
	fixed := clock.Fixed{At: clock.Now()}
	fs := &fakeStore{}
	m := NewManager(fs, fixed, 90*time.Second)

	if _, err := m.Heartbeat(context.Background(), "ws-1", "agent-1"); err != nil {
		t.Fatalf("Heartbeat() error = %v", err)
	}

	want := fixed.At.Add(90 * time.Second)
	if !fs.heartbeat.expiry.Time().Equal(want.Time()) {
		t.Errorf("Heartbeat() set expiry %v, want %v", fs.heartbeat.expiry, want)
	}
}

func TestExpired(t *testing.T) {
	now := clock.Now()
	e := store.Entry{Owner: "agent-1", LeaseExpiresAt: now.Add(-time.Second)}
	if !Expired(e, now) {
		t.Error("Expired() = false, want true for a lease expiring in the past")
	}

	e.LeaseExpiresAt = now.Add(time.Minute)
	if Expired(e, now) {
		t.Error("Expired() = true, want false for a lease expiring in the future")
	}
}
