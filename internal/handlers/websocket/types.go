package websocket

import (
	"time"

	"github.com/google/uuid"
)

const maxClientFrame = 512

// SessionStats describes one live watch session
type SessionStats struct {
	SessionID   uuid.UUID `json:"session_id" swaggertype:"string" format:"uuid"`
	ItemID      uuid.UUID `json:"item_id" swaggertype:"string" format:"uuid"`
	ConnectedAt time.Time `json:"connected_at"`
	LastActive  time.Time `json:"last_active"`
}

// StatsResponse is returned by the watch stats route
type StatsResponse struct {
	ActiveSessions int            `json:"active_sessions" example:"2"`
	Watchers       int            `json:"watchers" example:"2"`
	SessionTimeout string         `json:"session_timeout" example:"30m0s"`
	Sessions       []SessionStats `json:"sessions"`
}
