package gfx

import (
	"sort"
	"sync"
)

// FactoryFunc creates a Factory for one backend.
type FactoryFunc func() Factory

// registry holds registered backend factories.
var (
	registryMu sync.RWMutex
	factories  = make(map[DeviceType]FactoryFunc)
	// Priority order for implicit selection (first registered wins).
	selectionPriority = []DeviceType{DeviceTypeWebGPU, DeviceTypeVulkan, DeviceTypeOpenGL, DeviceTypeNull}
)

// Register registers a factory for the given device type. This is typically
// called from init() functions in backend packages. Registering the same type
// twice replaces the earlier factory.
func Register(t DeviceType, factory FactoryFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[t] = factory
}

// Unregister removes a backend from the registry. This is useful for testing.
func Unregister(t DeviceType) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, t)
}

// Available returns the registered device types in priority order.
func Available() []DeviceType {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]DeviceType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return priorityRank(types[i]) < priorityRank(types[j]) })
	return types
}

// IsRegistered reports whether a factory exists for the given device type.
func IsRegistered(t DeviceType) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[t]
	return ok
}

// Select returns the factory for the requested device type.
// DeviceTypeUndefined selects the highest-priority registered backend.
// Returns UnsupportedBackendError when nothing is registered for the request;
// the caller decides whether to fall back or abort.
func Select(t DeviceType) (Factory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if t == DeviceTypeUndefined {
		for _, candidate := range selectionPriority {
			if factory, ok := factories[candidate]; ok {
				return factory(), nil
			}
		}
		return nil, &UnsupportedBackendError{Type: t}
	}

	factory, ok := factories[t]
	if !ok {
		return nil, &UnsupportedBackendError{Type: t}
	}
	return factory(), nil
}

func priorityRank(t DeviceType) int {
	for i, candidate := range selectionPriority {
		if candidate == t {
			return i
		}
	}
	return len(selectionPriority)
}
