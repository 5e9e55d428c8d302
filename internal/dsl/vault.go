package dsl

import "io"

// Vault is an off-machine destination for snapshot backups.
// Objects are addressed by profile id and name and carry a version marker.
type Vault interface {
	// PutBackup stores a named object for a profile.
	// size is the number of bytes that will be read from r.
	// version is stored alongside the object for consistency checks.
	// Known names: "snapshot".
	PutBackup(profileID string, name string, r io.Reader, size int64, version int64) error

	// GetBackup retrieves a named object for a profile and writes it to w.
	// Returns ErrNotFound if nothing has been stored.
	GetBackup(profileID string, name string, w io.Writer) error

	// GetBackupVersion returns the stored version for a named object.
	// Returns 0 if nothing has been stored for this profile/name.
	GetBackupVersion(profileID string, name string) (int64, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
