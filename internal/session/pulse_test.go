package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPulseSchedulerFiresThroughLoopback(t *testing.T) {
	bodies := make(chan map[string]any, 64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/walker/pulse", r.URL.Path)
		require.Equal(t, "Bearer cached-token", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	lb, _ := seededLoopback(t, srv.URL)
	sched := NewPulseScheduler(lb, 5*time.Millisecond)
	sched.Add("PollerAction", "agent-5")
	sched.Start()
	defer sched.Stop()

	select {
	case body := <-bodies:
		assert.Equal(t, "PollerAction", body["action_label"])
		assert.Equal(t, "agent-5", body["agent_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("no pulse fired within the deadline")
	}
}

func TestPulseSchedulerStopHaltsFiring(t *testing.T) {
	calls := make(chan struct{}, 64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls <- struct{}{}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	lb, _ := seededLoopback(t, srv.URL)
	sched := NewPulseScheduler(lb, 5*time.Millisecond)
	sched.Add("PollerAction", "")
	sched.Start()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("no pulse fired within the deadline")
	}

	// Stop waits for the loop to exit; nothing may fire afterwards.
	sched.Stop()
	sched.Stop()
	for len(calls) > 0 {
		<-calls
	}
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, calls)
}

func TestPulseSchedulerWithoutEntries(t *testing.T) {
	lb, _ := seededLoopback(t, "http://127.0.0.1:1")
	sched := NewPulseScheduler(lb, time.Millisecond)
	sched.Start()
	sched.Start()
	time.Sleep(10 * time.Millisecond)
	sched.Stop()
}
