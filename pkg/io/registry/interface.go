package registry

import (
	"github.com/google/uuid"
	"github.com/xpanvictor/convoinfer/pkg/io/device"
)

// Registry tracks the endpoints watching each prompt item.
type Registry interface {
	// endpoint lifecycle
	AttachEndpoint(itemID uuid.UUID, ep device.Endpoint) error
	DetachEndpoint(itemID uuid.UUID, id device.EndpointID) (device.Endpoint, bool)
	// queries
	ListItemEndpoints(itemID uuid.UUID) []device.Endpoint
	CountEndpoints() int
}
