package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/strangerchat-server/internal/config"
	"github.com/vovakirdan/strangerchat-server/internal/core"
	"github.com/vovakirdan/strangerchat-server/internal/store"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestNewRejectsUnknownPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Matching.Policy = "random"

	_, err := New(&cfg, nopLogger())
	require.Error(t, err)
}

func TestNewRejectsBadAccessEntry(t *testing.T) {
	cfg := config.Default()
	cfg.Access.Allowed = []string{"10.0.0.0/99"}

	_, err := New(&cfg, nopLogger())
	require.Error(t, err)
}

func TestHistoryRouteFollowsConfig(t *testing.T) {
	cfg := config.Default()
	a, err := New(&cfg, nopLogger())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	cfg.History.Enabled = true
	cfg.History.DatabasePath = filepath.Join(t.TempDir(), "history.db")
	a, err = New(&cfg, nopLogger())
	require.NoError(t, err)
	t.Cleanup(a.cleanup)

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var sum store.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Zero(t, sum.TotalSessions)
}

func TestApplyConfigUpdatesAccessList(t *testing.T) {
	cfg := config.Default()
	a, err := New(&cfg, nopLogger())
	require.NoError(t, err)

	assert.True(t, a.access.Allowed("203.0.113.1"))

	cfg.Access.Enabled = true
	cfg.Access.Allowed = []string{"10.0.0.0/8"}
	a.ApplyConfig(cfg)
	assert.False(t, a.access.Allowed("203.0.113.1"))
	assert.True(t, a.access.Allowed("10.9.9.9"))

	// An invalid reload keeps the previous list.
	cfg.Access.Allowed = []string{"nonsense"}
	a.ApplyConfig(cfg)
	assert.True(t, a.access.Allowed("10.9.9.9"))
}

func TestEndedChatIsRecorded(t *testing.T) {
	cfg := config.Default()
	cfg.History.Enabled = true
	cfg.History.DatabasePath = filepath.Join(t.TempDir(), "history.db")

	a, err := New(&cfg, nopLogger())
	require.NoError(t, err)
	t.Cleanup(a.cleanup)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.recorder.Start(ctx, a.bus))
	go a.hub.Run(ctx)

	alice := core.NewClient("a", 64)
	bob := core.NewClient("b", 64)
	a.hub.RegisterClient(alice)
	a.hub.RegisterClient(bob)

	alice.Commands <- &core.Command{Kind: core.CommandJoin, UserID: "alice", Interests: []string{"jazz"}}
	bob.Commands <- &core.Command{Kind: core.CommandJoin, UserID: "bob", Interests: []string{"Jazz"}}
	waitFor(t, bob.Events, core.EventPaired)

	bob.Commands <- &core.Command{Kind: core.CommandLeave}
	waitFor(t, alice.Events, core.EventStrangerLeft)

	require.Eventually(t, func() bool {
		sum, err := a.store.Summary(ctx, 5)
		return err == nil && sum.TotalSessions == 1 &&
			len(sum.TopInterests) == 1 && sum.TopInterests[0].Interest == "jazz"
	}, 3*time.Second, 20*time.Millisecond)
}

func waitFor(t *testing.T, ch <-chan *core.Event, kind core.EventKind) {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				return
			}
		case <-timeout:
			t.Fatalf("expected event kind %v not received", kind)
		}
	}
}
