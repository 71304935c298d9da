package tracklib

import (
	"sync"
)

// VMap is a thread-safe generic map with read-write mutex protection.
type VMap[kT comparable, vT any] struct {
	kv map[kT]vT
	mu sync.RWMutex
}

// NewVMap creates and returns a new empty VMap instance.
func NewVMap[kT comparable, vT any]() VMap[kT, vT] {
	return VMap[kT, vT]{
		kv: make(map[kT]vT),
	}
}

// Make initializes the internal map. Call this to reset the map or if
// using a zero-value VMap.
func (vm *VMap[kT, vT]) Make() {
	vm.kv = make(map[kT]vT)
}

// Set stores a value for the given key.
func (vm *VMap[kT, vT]) Set(key kT, val vT) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.kv[key] = val
}

// Get retrieves a value for the given key.
func (vm *VMap[kT, vT]) Get(key kT) (val vT) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	val = vm.kv[key]
	return
}

// Len returns the number of stored entries.
func (vm *VMap[kT, vT]) Len() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return len(vm.kv)
}

// Dump returns all keys and values as separate slices.
// The lock is held while reading the length so concurrent writers
// cannot change the map under the copy.
func (vm *VMap[kT, vT]) Dump() (keys []kT, vals []vT) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	n := len(vm.kv)
	keys = make([]kT, n)
	vals = make([]vT, n)

	var i int
	for key, val := range vm.kv {
		keys[i] = key
		vals[i] = val
		i++
	}
	return
}

// Range iterates over all key-value pairs. If f returns false,
// iteration stops early. f must not modify the map.
func (vm *VMap[kT, vT]) Range(f func(key kT, val vT) bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for k, v := range vm.kv {
		if !f(k, v) {
			return
		}
	}
}

// Delete removes a key from the map. Deleting an absent key is a no-op.
func (vm *VMap[kT, vT]) Delete(key kT) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	delete(vm.kv, key)
}
