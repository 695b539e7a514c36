package session

import (
	"sync"
)

// Entry entrada viva do registro: a sessão e seu handle de cliente externo.
// O mutex serializa as transições de uma mesma sessão; escritor único por
// entrada é o Orchestrator.
type Entry struct {
	mu      sync.Mutex
	Session *Session
	Client  Client
}

// Lock trava a entrada para uma transição
func (e *Entry) Lock() {
	e.mu.Lock()
}

// Unlock libera a entrada
func (e *Entry) Unlock() {
	e.mu.Unlock()
}

// Registry mapeamento em memória de sessionID para estado de sessão.
// Criado no boot do processo e drenado no shutdown.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry cria um registro vazio
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Get retorna a entrada de uma sessão, se existir
func (r *Registry) Get(sessionID string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[sessionID]
	return entry, ok
}

// GetOrCreate retorna a entrada existente ou registra uma nova
func (r *Registry) GetOrCreate(sessionID string, create func() *Session) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[sessionID]; ok {
		return entry
	}

	entry := &Entry{Session: create()}
	r.entries[sessionID] = entry
	return entry
}

// Remove retira a entrada do registro e a retorna para teardown
func (r *Registry) Remove(sessionID string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[sessionID]
	if ok {
		delete(r.entries, sessionID)
	}
	return entry, ok
}

// Snapshot retorna uma cópia da sessão, se existir
func (r *Registry) Snapshot(sessionID string) (Snapshot, bool) {
	entry, ok := r.Get(sessionID)
	if !ok {
		return Snapshot{}, false
	}

	entry.Lock()
	defer entry.Unlock()
	return entry.Session.Snapshot(), true
}

// List retorna cópias de todas as sessões registradas
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	r.mu.RUnlock()

	snapshots := make([]Snapshot, 0, len(entries))
	for _, entry := range entries {
		entry.Lock()
		snapshots = append(snapshots, entry.Session.Snapshot())
		entry.Unlock()
	}
	return snapshots
}

// Len retorna o número de sessões registradas
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
