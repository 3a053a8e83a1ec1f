package appliance

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// Domain errors for the appliance package.
var (
	// ErrApplianceNotFound is returned when no appliance has the given MAC.
	ErrApplianceNotFound = errors.New("appliance: not found")

	// ErrApplianceExists is returned when registering a duplicate MAC.
	ErrApplianceExists = errors.New("appliance: already registered")

	// ErrNoAPI is returned when a remote operation is attempted without an API client.
	ErrNoAPI = errors.New("appliance: no API client configured")
)

// Registry holds appliances keyed by MAC address.
//
// All public methods are thread-safe.
type Registry struct {
	mu         sync.RWMutex
	appliances map[string]*Appliance
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{appliances: make(map[string]*Appliance)}
}

func normaliseMAC(mac string) string {
	return strings.ToLower(strings.TrimSpace(mac))
}

// Add registers a.
func (r *Registry) Add(a *Appliance) error {
	key := normaliseMAC(a.MacAddress())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appliances[key]; ok {
		return ErrApplianceExists
	}
	r.appliances[key] = a
	return nil
}

// Get returns the appliance with the given MAC address.
func (r *Registry) Get(mac string) (*Appliance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appliances[normaliseMAC(mac)]
	if !ok {
		return nil, ErrApplianceNotFound
	}
	return a, nil
}

// List returns all appliances ordered by MAC address.
func (r *Registry) List() []*Appliance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Appliance, 0, len(r.appliances))
	for _, a := range r.appliances {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MacAddress() < out[j].MacAddress() })
	return out
}

// Len returns the number of registered appliances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.appliances)
}
