package orchestrator

import (
	"context"
	"sync"

	"github.com/DanielBelovol/ThumbnailTester/internal/logger"
	"github.com/DanielBelovol/ThumbnailTester/internal/models"
)

// Manager launches session runs on their own goroutines and keeps the cancel
// handles so a running session can be aborted from the API.
type Manager struct {
	orc *Orchestrator
	log *logger.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewManager(orc *Orchestrator, log *logger.Logger) *Manager {
	return &Manager{
		orc:     orc,
		log:     log,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Launch starts the session's drain loop in the background. Failures surface
// through the session state and the event sink, not through Launch.
func (m *Manager) Launch(sess *models.TestSession) {
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	m.cancels[sess.ID] = cancel
	m.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			m.mu.Lock()
			delete(m.cancels, sess.ID)
			m.mu.Unlock()
		}()
		if err := m.orc.Run(ctx, sess); err != nil {
			m.log.Error("Session %s ended with error: %v", sess.ID, err)
		}
	}()
}

// Cancel aborts a running session. It reports false when the session is not
// running (unknown, finished, or never launched here).
func (m *Manager) Cancel(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cancel, ok := m.cancels[sessionID]
	if !ok {
		return false
	}
	cancel()
	return true
}

// RunningCount returns how many sessions this manager is currently driving.
func (m *Manager) RunningCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cancels)
}
