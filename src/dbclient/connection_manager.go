package dbclient

import (
	"sync"

	"go.uber.org/zap"
)

// Private instance and mutex for thread safety
var (
	instance *Manager
	mu       sync.RWMutex
)

// InitConnectionManager creates the process-wide manager.
// Later calls return the existing instance and ignore their arguments.
func InitConnectionManager(logger *zap.SugaredLogger, opts ...Option) *Manager {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		instance = NewManager(logger, opts...)
	}
	return instance
}

// GetConnectionManager returns the process-wide manager
func GetConnectionManager() (*Manager, error) {
	mu.RLock()
	defer mu.RUnlock()

	if instance == nil {
		return nil, ErrNotInitialized
	}
	return instance, nil
}

// ResetConnectionManager is useful for testing - it resets the singleton
func ResetConnectionManager() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
}
