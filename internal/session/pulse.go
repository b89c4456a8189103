package session

import (
	"context"
	"sync"
	"time"

	"github.com/TrueSelph/jvserve/internal/logger"
)

// PulseEntry names one scheduled trigger: the action to pulse and the agent
// it belongs to.
type PulseEntry struct {
	ActionLabel string
	AgentID     string
}

// PulseScheduler periodically fires registered triggers through the loopback
// layer, so scheduled walkers run through the full request pipeline (auth
// middleware included) rather than being dispatched in-process.
type PulseScheduler struct {
	loopback *Loopback
	interval time.Duration

	mu      sync.Mutex
	entries []PulseEntry
	stop    chan struct{}
	done    chan struct{}
}

// NewPulseScheduler builds a scheduler ticking at interval. A non-positive
// interval falls back to one minute.
func NewPulseScheduler(loopback *Loopback, interval time.Duration) *PulseScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PulseScheduler{loopback: loopback, interval: interval}
}

// Add registers a trigger. Safe while the scheduler is running; the entry is
// picked up on the next tick.
func (p *PulseScheduler) Add(actionLabel, agentID string) {
	p.mu.Lock()
	p.entries = append(p.entries, PulseEntry{ActionLabel: actionLabel, AgentID: agentID})
	p.mu.Unlock()
}

// Start launches the tick loop. Starting a running scheduler is a no-op.
func (p *PulseScheduler) Start() {
	p.mu.Lock()
	if p.stop != nil {
		p.mu.Unlock()
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	stop, done := p.stop, p.done
	p.mu.Unlock()

	go p.run(stop, done)
}

// Stop halts the tick loop and waits for any in-flight pulse round to finish.
// Idempotent.
func (p *PulseScheduler) Stop() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (p *PulseScheduler) run(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.fire()
		}
	}
}

func (p *PulseScheduler) fire() {
	p.mu.Lock()
	entries := make([]PulseEntry, len(p.entries))
	copy(entries, p.entries)
	p.mu.Unlock()

	for _, entry := range entries {
		logger.Logger.Debug().
			Str("action_label", entry.ActionLabel).
			Str("agent_id", entry.AgentID).
			Msg("firing scheduled pulse")
		p.loopback.Pulse(context.Background(), entry.ActionLabel, entry.AgentID)
	}
}
