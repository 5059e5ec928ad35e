package api

import "sync"

// Monitor is a Hook that additionally accepts scalar measurements. Writers
// (console, JSON, SQLite, Prometheus) implement it; the loop collects all
// registered monitors into a MonitorGroup reachable via Trainer.Monitors.
type Monitor interface {
	Hook

	// AddScalar records one measurement. Implementations typically buffer
	// and flush on Trigger.
	AddScalar(name string, value float64)
}

// ScalarEntry is one recorded measurement, stamped with the global step at
// which it was added.
type ScalarEntry struct {
	Step  int
	Value float64
}

// MonitorGroup routes scalars to member monitors and keeps an in-memory
// history per name. Hooks use it both ways: trackers add scalars, savers
// read the recorded history to find the latest or best value.
//
// The group does not dispatch lifecycle notifications; members are ordinary
// hooks and receive those through their own registration.
type MonitorGroup struct {
	mu      sync.Mutex
	trainer Trainer
	members []Monitor
	history map[string][]ScalarEntry
}

// NewMonitorGroup creates a group over the given members. Members may be
// nil-filtered by the caller; a group with no members still records history.
func NewMonitorGroup(members ...Monitor) *MonitorGroup {
	return &MonitorGroup{
		members: members,
		history: make(map[string][]ScalarEntry),
	}
}

// SetTrainer binds the trainer whose global step stamps new entries.
// The loop calls it during hook registration.
func (g *MonitorGroup) SetTrainer(t Trainer) {
	g.mu.Lock()
	g.trainer = t
	g.mu.Unlock()
}

// AddScalar records the measurement in the history and fans it out to every
// member monitor.
func (g *MonitorGroup) AddScalar(name string, value float64) {
	g.mu.Lock()
	step := 0
	if g.trainer != nil {
		step = g.trainer.GlobalStep()
	}
	g.history[name] = append(g.history[name], ScalarEntry{Step: step, Value: value})
	members := g.members
	g.mu.Unlock()

	for _, m := range members {
		m.AddScalar(name, value)
	}
}

// History returns a copy of all entries recorded under name, oldest first.
func (g *MonitorGroup) History(name string) []ScalarEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	h := g.history[name]
	if len(h) == 0 {
		return nil
	}
	out := make([]ScalarEntry, len(h))
	copy(out, h)
	return out
}

// Latest returns the most recent entry recorded under name.
func (g *MonitorGroup) Latest(name string) (ScalarEntry, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	h := g.history[name]
	if len(h) == 0 {
		return ScalarEntry{}, false
	}
	return h[len(h)-1], true
}

// Scalar returns the most recent value recorded under name.
func (g *MonitorGroup) Scalar(name string) (float64, bool) {
	e, ok := g.Latest(name)
	return e.Value, ok
}

// Seed inserts an entry without fanning it out to members. Restore hooks use
// it to rebuild derived series (e.g. a best-so-far value) before training
// resumes.
func (g *MonitorGroup) Seed(name string, e ScalarEntry) {
	g.mu.Lock()
	g.history[name] = append(g.history[name], e)
	g.mu.Unlock()
}

// Snapshot returns the most recent value of every recorded scalar.
func (g *MonitorGroup) Snapshot() map[string]float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]float64, len(g.history))
	for name, h := range g.history {
		if len(h) > 0 {
			out[name] = h[len(h)-1].Value
		}
	}
	return out
}
