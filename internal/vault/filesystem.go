package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dsl-go/internal/dsl"
)

// FileSystemVault stores backups as files in a directory structure:
//
//	<root>/
//	  <profileID>/
//	    <name>           (object data)
//	    <name>.version   (version marker)
type FileSystemVault struct {
	name string
	root string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault root: %w", err)
	}
	return &FileSystemVault{name: name, root: root}, nil
}

func (v *FileSystemVault) objectPath(profileID, name string) (string, error) {
	if err := checkPathComponents(profileID, name); err != nil {
		return "", err
	}
	return filepath.Join(v.root, profileID, name), nil
}

// checkPathComponents rejects profile ids and object names that would escape
// or reshape the vault layout.
func checkPathComponents(parts ...string) error {
	for _, part := range parts {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return fmt.Errorf("invalid vault path component: %q", part)
		}
	}
	return nil
}

// PutBackup stores a named object for a profile along with a version marker.
// The object is written atomically; the version file is written afterwards.
func (v *FileSystemVault) PutBackup(profileID string, name string, r io.Reader, size int64, version int64) error {
	destPath, err := v.objectPath(profileID, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	if err := writeFileAtomic(destPath, r, size); err != nil {
		return err
	}

	versionData := strings.NewReader(strconv.FormatInt(version, 10))
	return writeFileAtomic(destPath+".version", versionData, versionData.Size())
}

// GetBackup writes the stored object to w.
func (v *FileSystemVault) GetBackup(profileID string, name string, w io.Writer) error {
	srcPath, err := v.objectPath(profileID, name)
	if err != nil {
		return err
	}

	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup %q for profile %s: %w", name, profileID, dsl.ErrNotFound)
		}
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	return nil
}

// GetBackupVersion returns the stored version. Returns 0 if no version file exists.
func (v *FileSystemVault) GetBackupVersion(profileID string, name string) (int64, error) {
	path, err := v.objectPath(profileID, name)
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(path + ".version")
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies that the vault root exists and is writable.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}

	probe, err := os.CreateTemp(v.root, ".probe-*")
	if err != nil {
		return fmt.Errorf("vault root not writable: %w", err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// writeFileAtomic writes r to destPath via a temp file in the same directory and a rename.
func writeFileAtomic(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}

var _ dsl.Vault = (*FileSystemVault)(nil)
