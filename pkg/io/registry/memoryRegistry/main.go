package memoryregistry

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/xpanvictor/convoinfer/pkg/io/device"
	"github.com/xpanvictor/convoinfer/pkg/io/registry"
)

type mmrRegistry struct {
	mu    sync.RWMutex
	epMap map[uuid.UUID]map[device.EndpointID]device.Endpoint
}

// AttachEndpoint implements registry.Registry.
func (m *mmrRegistry) AttachEndpoint(itemID uuid.UUID, ep device.Endpoint) error {
	if ep == nil {
		return fmt.Errorf("couldn't attach nil endpoint")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epMap[itemID] == nil {
		m.epMap[itemID] = make(map[device.EndpointID]device.Endpoint)
	}
	m.epMap[itemID][ep.ID()] = ep
	return nil
}

// DetachEndpoint implements registry.Registry.
func (m *mmrRegistry) DetachEndpoint(itemID uuid.UUID, id device.EndpointID) (device.Endpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	eps := m.epMap[itemID]
	ep, ok := eps[id]
	if !ok {
		return nil, false
	}
	delete(eps, id)
	if len(eps) == 0 {
		delete(m.epMap, itemID)
	}
	return ep, true
}

// ListItemEndpoints implements registry.Registry.
func (m *mmrRegistry) ListItemEndpoints(itemID uuid.UUID) []device.Endpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eps := make([]device.Endpoint, 0, len(m.epMap[itemID]))
	for _, ep := range m.epMap[itemID] {
		eps = append(eps, ep)
	}
	return eps
}

// CountEndpoints implements registry.Registry.
func (m *mmrRegistry) CountEndpoints() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, eps := range m.epMap {
		n += len(eps)
	}
	return n
}

func New() registry.Registry {
	return &mmrRegistry{
		epMap: make(map[uuid.UUID]map[device.EndpointID]device.Endpoint),
	}
}
