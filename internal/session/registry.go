// Package session keeps one transfer workflow per operator and hackathon.
//
// Workflows hold queued transfer notifications in memory only. The Registry
// hands out the workflow for an (operator, hackathon) pair, creating it on
// first use, and a background reaper drops sessions that have been idle past
// a threshold. Moves behind a reaped session's queue were already applied;
// only their notifications are lost, and the reaper logs each one.
package session

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alfredjeanlab/hackops/internal/model"
	"github.com/alfredjeanlab/hackops/internal/transfer"
)

// Key identifies an operator session.
type Key struct {
	Operator    string `json:"operator"`
	HackathonID string `json:"hackathon_id"`
}

// Entry is a snapshot of one session.
type Entry struct {
	Key
	State     transfer.State `json:"state"`
	Pending   int            `json:"pending"`
	FirstSeen time.Time      `json:"first_seen"`
	LastSeen  time.Time      `json:"last_seen"`
	IdleSecs  float64        `json:"idle_secs"`
}

// ReaperConfig configures the background idle-session reaper.
type ReaperConfig struct {
	// IdleThreshold is how long a session may go unused before it is dropped.
	// Default: 30 minutes.
	IdleThreshold time.Duration

	// SweepInterval is how often the reaper scans for idle sessions.
	// Default: 60 seconds.
	SweepInterval time.Duration

	// OnDiscard is called for each reaped session that still had queued
	// transfers. Called outside the lock.
	OnDiscard func(key Key, discarded []model.PendingTransfer)
}

// Registry maps operator sessions to their transfer workflows.
type Registry struct {
	mu          sync.Mutex
	sessions    map[Key]*sessionState
	newWorkflow func() *transfer.Workflow
	now         func() time.Time

	reaperStop chan struct{}
	reaperDone chan struct{}
}

type sessionState struct {
	workflow  *transfer.Workflow
	firstSeen time.Time
	lastSeen  time.Time
}

// New creates a registry that builds workflows with newWorkflow.
func New(newWorkflow func() *transfer.Workflow) *Registry {
	return &Registry{
		sessions:    make(map[Key]*sessionState),
		newWorkflow: newWorkflow,
		now:         time.Now,
	}
}

// Workflow returns the workflow for the operator's session on a hackathon,
// creating the session if needed, and marks the session as used.
func (r *Registry) Workflow(operator, hackathonID string) *transfer.Workflow {
	key := Key{Operator: operator, HackathonID: hackathonID}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if !ok {
		s = &sessionState{workflow: r.newWorkflow(), firstSeen: now}
		r.sessions[key] = s
		slog.Debug("session: opened", "operator", operator, "hackathon", hackathonID)
	}
	s.lastSeen = now
	return s.workflow
}

// List returns a snapshot of every session, most recently used first.
// A non-empty hackathonID restricts the list to that hackathon. Workflows
// are queried after the registry lock is released, so a workflow busy in
// a store or mail call does not hold up other sessions.
func (r *Registry) List(hackathonID string) []Entry {
	now := r.now()

	r.mu.Lock()
	entries := make([]Entry, 0, len(r.sessions))
	workflows := make([]*transfer.Workflow, 0, len(r.sessions))
	for key, s := range r.sessions {
		if hackathonID != "" && key.HackathonID != hackathonID {
			continue
		}
		entries = append(entries, Entry{
			Key:       key,
			FirstSeen: s.firstSeen,
			LastSeen:  s.lastSeen,
			IdleSecs:  now.Sub(s.lastSeen).Seconds(),
		})
		workflows = append(workflows, s.workflow)
	}
	r.mu.Unlock()

	for i, wf := range workflows {
		entries[i].State = wf.State()
		entries[i].Pending = len(wf.Pending())
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].LastSeen.Equal(entries[j].LastSeen) {
			return entries[i].LastSeen.After(entries[j].LastSeen)
		}
		if entries[i].Operator != entries[j].Operator {
			return entries[i].Operator < entries[j].Operator
		}
		return entries[i].HackathonID < entries[j].HackathonID
	})
	return entries
}

// StartReaper launches a background goroutine that periodically drops idle
// sessions. Call Stop() to shut it down.
func (r *Registry) StartReaper(cfg *ReaperConfig) {
	if cfg == nil {
		cfg = &ReaperConfig{}
	}
	if cfg.IdleThreshold == 0 {
		cfg.IdleThreshold = 30 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 60 * time.Second
	}

	r.reaperStop = make(chan struct{})
	r.reaperDone = make(chan struct{})

	go r.reapLoop(cfg)
	slog.Info("session: reaper started",
		"idle_threshold", cfg.IdleThreshold,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper goroutine.
func (r *Registry) Stop() {
	if r.reaperStop != nil {
		close(r.reaperStop)
		<-r.reaperDone
		r.reaperStop = nil
		r.reaperDone = nil
	}
}

func (r *Registry) reapLoop(cfg *ReaperConfig) {
	defer close(r.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.reaperStop:
			return
		case <-ticker.C:
			r.sweep(cfg)
		}
	}
}

func (r *Registry) sweep(cfg *ReaperConfig) {
	now := r.now()

	type reaped struct {
		key       Key
		workflow  *transfer.Workflow
		discarded []model.PendingTransfer
	}
	var dropped []reaped

	r.mu.Lock()
	for key, s := range r.sessions {
		if now.Sub(s.lastSeen) <= cfg.IdleThreshold {
			continue
		}
		delete(r.sessions, key)
		dropped = append(dropped, reaped{key: key, workflow: s.workflow})
	}
	r.mu.Unlock()

	for i := range dropped {
		d := &dropped[i]
		d.discarded = d.workflow.CancelAll()
		slog.Info("session: reaped idle session",
			"operator", d.key.Operator,
			"hackathon", d.key.HackathonID,
			"threshold", cfg.IdleThreshold)
		if len(d.discarded) == 0 {
			continue
		}
		for _, t := range d.discarded {
			slog.Warn("session: discarded transfer notification",
				"operator", d.key.Operator,
				"transfer", t.ID,
				"participant", t.ParticipantID,
				"to_team", t.ToTeamName)
		}
		if cfg.OnDiscard != nil {
			cfg.OnDiscard(d.key, d.discarded)
		}
	}
}
