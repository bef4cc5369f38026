// Package telemetry is the boundary between the dashboard and the robot's key-value telemetry
// table. Module readings are published as doubles under <prefix>/Module<i>Angle (degrees) and
// <prefix>/Module<i>Velocity (meters per second).
package telemetry

import (
	"fmt"
	"sort"
	"sync"
)

// Store is a read-only view of the telemetry table.
type Store interface {
	Double(key string) (float64, bool)
}

// Writer is a telemetry table that can be published to.
type Writer interface {
	SetDouble(key string, value float64)
}

// ModuleAngleKey is the key of module i's steer angle in degrees.
func ModuleAngleKey(prefix string, i int) string {
	return fmt.Sprintf("%s/Module%dAngle", prefix, i)
}

// ModuleVelocityKey is the key of module i's wheel velocity in meters per second.
func ModuleVelocityKey(prefix string, i int) string {
	return fmt.Sprintf("%s/Module%dVelocity", prefix, i)
}

// ArmPivotKey is the key of the arm pivot angle in degrees, 90 when the arm is level.
func ArmPivotKey(prefix string) string {
	return prefix + "/ArmPivot"
}

// ArmExtensionKey is the key of the arm extension in raw sensor units.
func ArmExtensionKey(prefix string) string {
	return prefix + "/ArmExtension"
}

// MemoryStore is an in-process table, safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]float64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]float64{}}
}

// Double returns the value of key, if set.
func (s *MemoryStore) Double(key string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// SetDouble sets key to value.
func (s *MemoryStore) SetDouble(key string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Keys returns every key that has been set, sorted.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
