package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"dsl-go/internal/dsl"
)

// MemoryVault keeps backups in memory. Useful for tests and dry runs.
// This implementation is safe for concurrent use.
type MemoryVault struct {
	name     string
	objects  map[string][]byte // "profileID/name" -> data
	versions map[string]int64  // "profileID/name" -> version
	mu       sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:     name,
		objects:  make(map[string][]byte),
		versions: make(map[string]int64),
	}
}

func objectKey(profileID, name string) string {
	return profileID + "/" + name
}

// PutBackup stores a named object for a profile, replacing any previous copy.
func (m *MemoryVault) PutBackup(profileID string, name string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := objectKey(profileID, name)
	m.objects[key] = data
	m.versions[key] = version
	return nil
}

// GetBackup writes the stored object to w.
func (m *MemoryVault) GetBackup(profileID string, name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[objectKey(profileID, name)]
	if !ok {
		return fmt.Errorf("backup %q for profile %s: %w", name, profileID, dsl.ErrNotFound)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// GetBackupVersion returns the stored version, or 0 when nothing is stored.
func (m *MemoryVault) GetBackupVersion(profileID string, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.versions[objectKey(profileID, name)], nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

var _ dsl.Vault = (*MemoryVault)(nil)
