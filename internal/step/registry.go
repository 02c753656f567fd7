package step

import (
	"fmt"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   []Class
	registered = make(map[string]bool)
)

// Register appends a Step class to the global ordered registry. The
// registration order is the order the planner instantiates classes in, so
// init-time registration doubles as the user-supplied step ordering.
func Register(class Class) error {
	if class == nil {
		return fmt.Errorf("step class is nil")
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if registered[class.Name()] {
		return fmt.Errorf("step class %q already registered", class.Name())
	}

	registered[class.Name()] = true
	registry = append(registry, class)
	return nil
}

// MustRegister registers a class and panics on a duplicate; intended for
// package init functions.
func MustRegister(class Class) {
	if err := Register(class); err != nil {
		panic(err)
	}
}

// Registered returns the Step classes in registration order.
func Registered() []Class {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return append([]Class(nil), registry...)
}

// ResetRegistry clears registrations (for tests).
func ResetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = nil
	registered = make(map[string]bool)
}
