package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
)

const (
	defaultSessionTimeout = 30 * time.Minute
	cleanupEvery          = time.Minute
)

// ConnectionManager tracks live watch sessions and closes the ones whose
// client went silent.
type ConnectionManager struct {
	logger         *Logger.Logger
	sessions       map[uuid.UUID]*Session
	mutex          sync.RWMutex
	cleanupTicker  *time.Ticker
	stopCleanup    chan struct{}
	stopOnce       sync.Once
	sessionTimeout time.Duration
}

func NewConnectionManager(timeout time.Duration, logger *Logger.Logger) *ConnectionManager {
	if timeout <= 0 {
		timeout = defaultSessionTimeout
	}
	cm := &ConnectionManager{
		logger:         logger,
		sessions:       make(map[uuid.UUID]*Session),
		stopCleanup:    make(chan struct{}),
		sessionTimeout: timeout,
	}
	cm.startCleanupRoutine()
	return cm
}

func (cm *ConnectionManager) RegisterConnection(session *Session) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.sessions[session.ID()] = session
	cm.logger.Infow("watch session registered", "session", session.ID(), "item", session.ItemID)
}

// UnregisterConnection removes and closes a session.
func (cm *ConnectionManager) UnregisterConnection(sessionID uuid.UUID) {
	cm.mutex.Lock()
	session, exists := cm.sessions[sessionID]
	delete(cm.sessions, sessionID)
	cm.mutex.Unlock()

	if !exists {
		return
	}
	if err := session.Close(); err != nil {
		cm.logger.Debugw("closing watch session", "session", sessionID, "error", err)
	}
	cm.logger.Infow("watch session unregistered", "session", sessionID, "item", session.ItemID,
		"duration", time.Since(session.ConnectedAt).String())
}

func (cm *ConnectionManager) GetSessionCount() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.sessions)
}

func (cm *ConnectionManager) startCleanupRoutine() {
	cm.cleanupTicker = time.NewTicker(cleanupEvery)

	go func() {
		for {
			select {
			case <-cm.cleanupTicker.C:
				cm.cleanupExpiredSessions()
			case <-cm.stopCleanup:
				cm.cleanupTicker.Stop()
				return
			}
		}
	}()
}

// cleanupExpiredSessions drops sessions whose client stayed silent past the
// timeout or no longer answers a ping. Pongs count as activity.
func (cm *ConnectionManager) cleanupExpiredSessions() {
	cm.mutex.RLock()
	sessions := make([]*Session, 0, len(cm.sessions))
	for _, session := range cm.sessions {
		sessions = append(sessions, session)
	}
	cm.mutex.RUnlock()

	expired := 0
	for _, session := range sessions {
		if session.IsExpired(cm.sessionTimeout) || !session.Endpoint.IsAlive() {
			cm.UnregisterConnection(session.ID())
			expired++
		}
	}
	if expired > 0 {
		cm.logger.Infow("expired watch sessions cleaned", "count", expired)
	}
}

// Close stops the cleanup routine and closes every session.
func (cm *ConnectionManager) Close() error {
	cm.stopOnce.Do(func() { close(cm.stopCleanup) })

	cm.mutex.Lock()
	sessions := cm.sessions
	cm.sessions = make(map[uuid.UUID]*Session)
	cm.mutex.Unlock()

	for _, session := range sessions {
		_ = session.Close()
	}
	cm.logger.Infow("connection manager closed", "sessions", len(sessions))
	return nil
}

func (cm *ConnectionManager) GetStats() StatsResponse {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	stats := StatsResponse{
		ActiveSessions: len(cm.sessions),
		SessionTimeout: cm.sessionTimeout.String(),
		Sessions:       make([]SessionStats, 0, len(cm.sessions)),
	}
	for _, session := range cm.sessions {
		stats.Sessions = append(stats.Sessions, session.Stats())
	}
	return stats
}
