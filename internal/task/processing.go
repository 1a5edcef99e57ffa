package task

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"uploader/internal/archive"
	"uploader/internal/storage"
)

// runWrite persists one upload and records the outcome. It waits for a write
// slot, never returns an error and never panics out of the goroutine.
func (m *Manager) runWrite(writer storage.Writer, uploadTask Task, data []byte) {
	m.semaphore <- struct{}{}
	defer func() { <-m.semaphore }()

	defer func() {
		if r := recover(); r != nil {
			m.failTask(uploadTask, fmt.Sprintf("panic during write: %v", r))
		}
	}()

	start := time.Now()
	// Writes are not cancellable once dispatched.
	ctx := context.Background()
	if err := writer.Write(ctx, uploadTask.Filename, data); err != nil {
		m.failTask(uploadTask, err.Error())
		return
	}

	if m.compressed != nil {
		compressed, err := archive.GzipBytes(data, uploadTask.Filename)
		if err != nil {
			m.failTask(uploadTask, "gzip: "+err.Error())
			return
		}
		if err := m.compressed.Write(ctx, archive.SidecarName(uploadTask.Filename), compressed); err != nil {
			m.failTask(uploadTask, err.Error())
			return
		}
	}

	m.registry.SetStatus(uploadTask.ID, StatusCompleted, "")
	log.Info().
		Str("task_id", uploadTask.ID).
		Str("filename", uploadTask.Filename).
		Str("location", uploadTask.Location).
		Int("bytes", len(data)).
		Dur("took", time.Since(start)).
		Msg("upload stored")
}

func (m *Manager) failTask(uploadTask Task, reason string) {
	m.registry.SetStatus(uploadTask.ID, StatusFailed, reason)
	log.Error().
		Str("task_id", uploadTask.ID).
		Str("filename", uploadTask.Filename).
		Str("reason", reason).
		Msg("upload write failed")
}
