package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/convoinfer/pkg/io/device"
)

// Session is one websocket watching one item.
type Session struct {
	ItemID      uuid.UUID
	Endpoint    device.Endpoint
	ConnectedAt time.Time

	once   sync.Once
	detach func()
}

func NewSession(itemID uuid.UUID, ep device.Endpoint, detach func()) *Session {
	return &Session{
		ItemID:      itemID,
		Endpoint:    ep,
		ConnectedAt: time.Now(),
		detach:      detach,
	}
}

func (s *Session) ID() uuid.UUID {
	return uuid.UUID(s.Endpoint.ID())
}

// Close detaches the session from the item and closes its connection. Safe
// to call more than once.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		if s.detach != nil {
			s.detach()
		}
		err = s.Endpoint.Close()
	})
	return err
}

// IsExpired reports whether the client has been silent for longer than
// timeout.
func (s *Session) IsExpired(timeout time.Duration) bool {
	return time.Since(s.Endpoint.LastActive()) > timeout
}

func (s *Session) Stats() SessionStats {
	return SessionStats{
		SessionID:   s.ID(),
		ItemID:      s.ItemID,
		ConnectedAt: s.ConnectedAt,
		LastActive:  s.Endpoint.LastActive(),
	}
}
