package auth

import (
	"fmt"

	"github.com/auburnhacks/sponsor-portal/internal/cli/userconfig"
	"github.com/auburnhacks/sponsor-portal/internal/session"
)

// Store kinds accepted by NewStore
const (
	StoreKeyring = "keyring"
	StoreFile    = "file"
	StoreMemory  = "memory"
)

// NewStore returns the session store of the given kind for server
func NewStore(kind, server string) (session.Store, error) {
	if server == "" {
		return nil, fmt.Errorf("server key is empty")
	}

	switch kind {
	case StoreKeyring, "":
		return NewKeyringStore(server), nil
	case StoreFile:
		path, err := userconfig.SessionFile(server)
		if err != nil {
			return nil, err
		}
		return NewFileStore(path), nil
	case StoreMemory:
		return session.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", kind)
	}
}
