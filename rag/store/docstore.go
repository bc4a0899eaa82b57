package store

import "sync"

// DocStore holds parent passages by ID. Child chunks in the vector store
// reference parents here; the hybrid retriever returns the parent text, not
// the matched chunk.
type DocStore struct {
	mu   sync.RWMutex
	docs map[string]string
	ids  []string
}

// NewDocStore creates an empty document store.
func NewDocStore() *DocStore {
	return &DocStore{docs: make(map[string]string)}
}

// Put stores a parent passage under the given ID.
func (d *DocStore) Put(id, content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.docs[id]; !ok {
		d.ids = append(d.ids, id)
	}
	d.docs[id] = content
}

// Get returns the parent passage for the ID.
func (d *DocStore) Get(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	content, ok := d.docs[id]
	return content, ok
}

// Len returns the number of stored parents.
func (d *DocStore) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs)
}
