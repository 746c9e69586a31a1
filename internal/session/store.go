package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Keys under which a session is persisted. The identity and the token pair
// are written separately but only mean something together.
const (
	KeyIdentity    = "session_identity"
	KeyToken       = "session_token"
	KeyTokenExpiry = "session_token_expiry"
)

// Keys lists every key a Store may hold for a session
var Keys = []string{KeyIdentity, KeyToken, KeyTokenExpiry}

// Store defines the persistence operations the Manager needs.
// Get reports false when the key has never been set or was cleared.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Clear() error
}

// record is the JSON stored under KeyIdentity
type record struct {
	Type Role     `json:"type"`
	Obj  Identity `json:"obj"`
}

func encodeIdentity(id Identity) (string, error) {
	data, err := json.Marshal(record{Type: id.Role, Obj: id})
	if err != nil {
		return "", fmt.Errorf("failed to marshal identity: %w", err)
	}
	return string(data), nil
}

func decodeIdentity(s string) (Identity, error) {
	var rec record
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return Identity{}, fmt.Errorf("failed to parse identity: %w", err)
	}
	if rec.Obj.ID == "" {
		return Identity{}, fmt.Errorf("identity has no id")
	}
	if rec.Type == RoleUnknown {
		return Identity{}, fmt.Errorf("identity has no role")
	}
	rec.Obj.Role = rec.Type
	return rec.Obj, nil
}

func encodeExpiry(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeExpiry(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// MemoryStore is a Store that lives only as long as the process
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.data)
	return nil
}
