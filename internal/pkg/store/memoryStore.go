package store

import (
	"context"
	"sync"
)

// MemoryStore keeps encoded records so callers never share slices with the store.
type MemoryStore struct {
	mutex   sync.RWMutex
	records map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (instance *MemoryStore) Save(_ context.Context, record *SessionRecord) error {
	data, err := encodeRecord(record)
	if err != nil {
		return err
	}

	instance.mutex.Lock()
	instance.records[record.ID] = data
	instance.mutex.Unlock()
	return nil
}

func (instance *MemoryStore) Load(_ context.Context, id string) (*SessionRecord, error) {
	instance.mutex.RLock()
	data, ok := instance.records[id]
	instance.mutex.RUnlock()

	if !ok {
		return nil, notFound(id)
	}
	return decodeRecord(data)
}

func (instance *MemoryStore) Delete(_ context.Context, id string) error {
	instance.mutex.Lock()
	delete(instance.records, id)
	instance.mutex.Unlock()
	return nil
}

func (instance *MemoryStore) Close() error {
	return nil
}
