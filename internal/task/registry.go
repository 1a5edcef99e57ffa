package task

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const registryShards = 32

type registryShard struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// Registry maps task ids to tasks. It is striped into shards so updates to
// distinct ids rarely contend. Entries are never removed.
type Registry struct {
	shards [registryShards]registryShard
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].tasks = make(map[string]*Task)
	}
	return r
}

func (r *Registry) shard(id string) *registryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &r.shards[h.Sum32()%registryShards]
}

// Create registers a new processing task under a fresh random id and returns
// a snapshot of it.
func (r *Registry) Create(filename, location string) Task {
	now := time.Now()
	for {
		newTask := &Task{
			ID:        uuid.NewString(),
			Status:    StatusProcessing,
			Filename:  filename,
			Location:  location,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s := r.shard(newTask.ID)
		s.mu.Lock()
		if _, exists := s.tasks[newTask.ID]; exists {
			s.mu.Unlock()
			continue
		}
		s.tasks[newTask.ID] = newTask
		s.mu.Unlock()
		return *newTask
	}
}

// SetStatus moves a processing task to status. Unknown ids and tasks already
// in a terminal state are left untouched; the result reports whether the
// entry changed.
func (r *Registry) SetStatus(id string, status Status, reason string) bool {
	s := r.shard(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[id]
	if !ok || existing.Status.Terminal() {
		return false
	}
	existing.Status = status
	if status == StatusFailed {
		if reason == "" {
			reason = "unknown error"
		}
		existing.Reason = reason
	}
	existing.UpdatedAt = time.Now()
	return true
}

// Get returns a copy of the task stored under id.
func (r *Registry) Get(id string) (Task, bool) {
	s := r.shard(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	found, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *found, true
}

func (r *Registry) Len() int {
	total := 0
	for i := range r.shards {
		r.shards[i].mu.RLock()
		total += len(r.shards[i].tasks)
		r.shards[i].mu.RUnlock()
	}
	return total
}
