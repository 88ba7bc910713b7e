// Package jobs tracks exclusive long-running backend jobs, such as podcast
// generation, that outlive the turn that started them.
package jobs

import (
	"errors"
	"sync"
	"time"
)

// ErrJobInFlight is returned when a job of the same kind is already running.
var ErrJobInFlight = errors.New("job of this kind is already in flight")

// Job is one in-flight long-running task.
type Job struct {
	Kind      string
	TaskID    string
	StartedAt time.Time
}

// Tracker keeps at most one active job per kind.
type Tracker struct {
	mu     sync.RWMutex
	active map[string]Job
}

func NewTracker() *Tracker {
	return &Tracker{active: make(map[string]Job)}
}

// Begin records a job as in flight. Beginning the same task id again is a
// no-op; a different task of an already-occupied kind fails with
// ErrJobInFlight.
func (t *Tracker) Begin(kind, taskID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if job, exists := t.active[kind]; exists {
		if job.TaskID == taskID {
			return nil
		}
		return ErrJobInFlight
	}
	t.active[kind] = Job{Kind: kind, TaskID: taskID, StartedAt: time.Now()}
	return nil
}

// Active returns the in-flight job of the given kind, if any.
func (t *Tracker) Active(kind string) (Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, exists := t.active[kind]
	return job, exists
}

// Resolve clears the job of the given kind.
func (t *Tracker) Resolve(kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, kind)
}

// ResolveTask clears the job holding the given task id, reporting whether
// one was found.
func (t *Tracker) ResolveTask(taskID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for kind, job := range t.active {
		if job.TaskID == taskID {
			delete(t.active, kind)
			return true
		}
	}
	return false
}

// ActiveJobs returns a copy of every in-flight job.
func (t *Tracker) ActiveJobs() []Job {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Job, 0, len(t.active))
	for _, job := range t.active {
		out = append(out, job)
	}
	return out
}
