package client

import (
	"encoding/json"
	"sync"
)

// Cache 查询结果缓存，key 为操作名，value 为响应中的 data
type Cache interface {
	Get(key string) (json.RawMessage, bool)
	Set(key string, data json.RawMessage)
	Clear()
}

// MemoryCache 进程内缓存
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]json.RawMessage
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]json.RawMessage)}
}

func (m *MemoryCache) Get(key string) (json.RawMessage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.entries[key]
	return data, ok
}

func (m *MemoryCache) Set(key string, data json.RawMessage) {
	m.mu.Lock()
	m.entries[key] = data
	m.mu.Unlock()
}

func (m *MemoryCache) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]json.RawMessage)
	m.mu.Unlock()
}
