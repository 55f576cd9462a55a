// Package memory is a process-local registry.Store, the default for tests
// and for small programs that never need a shared, persistent signature
// catalog.
package memory

import (
	"sync"

	"github.com/flowmesh/flowmesh/signature"
)

// Store is a process-local registry.Store backed by a mutex-guarded map.
type Store struct {
	mu      sync.RWMutex
	entries map[string]map[string]signature.OperationSignature
}

// New creates an empty Store.
func New() *Store {
	return &Store{entries: map[string]map[string]signature.OperationSignature{}}
}

// Put implements registry.Store.
func (s *Store) Put(namespace string, sig signature.OperationSignature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.entries[namespace]
	if !ok {
		ns = map[string]signature.OperationSignature{}
		s.entries[namespace] = ns
	}
	ns[sig.Name] = sig
	return nil
}

// Get implements registry.Store.
func (s *Store) Get(namespace, name string) (signature.OperationSignature, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns, ok := s.entries[namespace]
	if !ok {
		return signature.OperationSignature{}, false, nil
	}
	sig, ok := ns[name]
	return sig, ok, nil
}

// List implements registry.Store.
func (s *Store) List(namespace string) ([]signature.OperationSignature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns, ok := s.entries[namespace]
	if !ok {
		return nil, nil
	}
	out := make([]signature.OperationSignature, 0, len(ns))
	for _, sig := range ns {
		out = append(out, sig)
	}
	return out, nil
}

// Delete implements registry.Store.
func (s *Store) Delete(namespace, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ns, ok := s.entries[namespace]; ok {
		delete(ns, name)
	}
	return nil
}

// Clear implements registry.Store.
func (s *Store) Clear(namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, namespace)
	return nil
}

// Close implements registry.Store. It is a no-op: there is nothing to
// release for a map held in process memory.
func (s *Store) Close() error { return nil }
