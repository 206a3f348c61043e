package device

import (
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/convoinfer/internal/types"
)

type Transport string

const (
	TransportWS Transport = "ws"
)

type EndpointID uuid.UUID

func (id EndpointID) String() string {
	return uuid.UUID(id).String()
}

// Endpoint is one live watcher of a prompt item.
type Endpoint interface {
	// Identity
	ID() EndpointID
	Transport() Transport
	// abstraction for publisher
	SendTurn(turn types.PublishedTurn) error
	Touch()
	// lifecyle
	IsAlive() bool
	Close() error
	LastActive() time.Time
}
