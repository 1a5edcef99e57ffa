package task

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"uploader/internal/storage"
)

// Manager registers uploads and writes them to storage in the background.
type Manager struct {
	mu         sync.RWMutex
	registry   *Registry
	writer     storage.Writer
	compressed storage.Writer
	semaphore  chan struct{}
	workersWG  sync.WaitGroup
}

// NewManagerWithOptions creates a manager with provided configuration
func NewManagerWithOptions(opts Options) *Manager {
	if opts.MaxConcurrentWrites <= 0 {
		opts.MaxConcurrentWrites = defaultMaxConcurrent
	}
	return &Manager{
		registry:   NewRegistry(),
		writer:     opts.Writer,
		compressed: opts.Compressed,
		semaphore:  make(chan struct{}, opts.MaxConcurrentWrites),
	}
}

// IsBusy reports whether every write slot is currently taken
func (m *Manager) IsBusy() bool {
	return len(m.semaphore) >= cap(m.semaphore)
}

// Submit registers a processing task for filename and hands data to a
// background writer. It returns as soon as the task is registered; the
// filename must already be sanitized.
func (m *Manager) Submit(filename string, data []byte) (Task, error) {
	writer := m.blobWriter()
	if writer == nil {
		return Task{}, ErrNoWriter
	}
	created := m.registry.Create(filename, writer.Location(filename))
	log.Info().
		Str("task_id", created.ID).
		Str("filename", filename).
		Int("bytes", len(data)).
		Msg("upload accepted")

	if m.IsBusy() {
		log.Debug().Str("task_id", created.ID).Msg("all write slots busy, write queued")
	}

	m.workersWG.Add(1)
	go func() {
		defer m.workersWG.Done()
		m.runWrite(writer, created, data)
	}()
	return created, nil
}

// GetTask returns a snapshot of the task with the given id
func (m *Manager) GetTask(taskID string) (Task, bool) {
	return m.registry.Get(taskID)
}

// Status returns the current status of a task or ErrTaskNotFound.
func (m *Manager) Status(taskID string) (Status, error) {
	found, ok := m.registry.Get(taskID)
	if !ok {
		return "", ErrTaskNotFound
	}
	return found.Status, nil
}

// Len returns the number of tasks registered so far.
func (m *Manager) Len() int { return m.registry.Len() }

// WaitAll blocks until all in-flight writes finish or the context is done.
// Returns true if all workers finished, false if timed out.
func (m *Manager) WaitAll(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		m.workersWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// UseBlobWriter allows tests to inject a fake writer.
// Writes already dispatched keep the writer they started with.
func (m *Manager) UseBlobWriter(w storage.Writer) {
	m.mu.Lock()
	m.writer = w
	m.mu.Unlock()
}

func (m *Manager) blobWriter() storage.Writer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writer
}
