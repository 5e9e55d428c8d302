package dsl

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// SnapshotBackupName is the vault object name snapshots are stored under.
const SnapshotBackupName = "snapshot"

// settingVersionBase offsets MaxOperationID after a restore so the local
// version never falls below the vault copy it was restored from.
const settingVersionBase = "version_base"

// Backup exports a snapshot, encrypts it and uploads it to the vault under
// profileID. The object version is the local version (see LocalVersion), so
// a vault copy that is ahead of the local store can be detected.
func (s *DSLService) Backup(profileID string) (int64, error) {
	if s.vault == nil {
		return 0, errors.New("no vault configured")
	}
	if s.encryptor == nil || !s.encryptor.IsConfigured() {
		return 0, errors.New("encryption is not configured: run 'dsl config init'")
	}

	var plain bytes.Buffer
	if err := s.Export(&plain); err != nil {
		return 0, err
	}

	var cipher bytes.Buffer
	if err := s.encryptor.Encrypt(&plain, &cipher); err != nil {
		return 0, fmt.Errorf("encrypting snapshot: %w", err)
	}

	version, err := s.LocalVersion()
	if err != nil {
		return 0, err
	}

	size := int64(cipher.Len())
	if err := s.vault.PutBackup(profileID, SnapshotBackupName, &cipher, size, version); err != nil {
		return 0, fmt.Errorf("uploading snapshot to vault: %w", err)
	}

	s.logger.Info("snapshot backed up", "profile_id", profileID, "version", version, "bytes", size)
	return version, nil
}

// Restore downloads the profile's snapshot, decrypts it and imports it,
// replacing all local data.
func (s *DSLService) Restore(profileID string, decryptCtx DecryptionContext) (*ImportResult, error) {
	if s.vault == nil {
		return nil, errors.New("no vault configured")
	}
	if decryptCtx == nil {
		return nil, errors.New("restore requires an unlocked key")
	}
	s.logger.Info("restore started", "profile_id", profileID)

	var cipher bytes.Buffer
	if err := s.vault.GetBackup(profileID, SnapshotBackupName, &cipher); err != nil {
		return nil, fmt.Errorf("retrieving snapshot from vault: %w", err)
	}

	var plain bytes.Buffer
	if err := decryptCtx.Decrypt(&cipher, &plain); err != nil {
		return nil, fmt.Errorf("decrypting snapshot: %w", err)
	}

	result, err := s.Import(&plain)
	if err != nil {
		return nil, err
	}

	remote, err := s.vault.GetBackupVersion(profileID, SnapshotBackupName)
	if err != nil {
		return nil, fmt.Errorf("reading vault version: %w", err)
	}
	if err := s.catchUpVersion(remote); err != nil {
		return nil, err
	}
	return result, nil
}

// LocalVersion is the newest operation id plus the offset recorded by the
// last restore.
func (s *DSLService) LocalVersion() (int64, error) {
	maxID, err := s.database.MaxOperationID()
	if err != nil {
		return 0, fmt.Errorf("reading operation version: %w", err)
	}
	base, err := s.versionBase()
	if err != nil {
		return 0, err
	}
	return maxID + base, nil
}

func (s *DSLService) versionBase() (int64, error) {
	raw, ok, err := s.settings.GetSetting(settingVersionBase)
	if err != nil {
		return 0, fmt.Errorf("reading version base: %w", err)
	}
	if !ok {
		return 0, nil
	}
	base, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version base %q: %w", raw, err)
	}
	return base, nil
}

// catchUpVersion raises the version base so LocalVersion is at least remote.
func (s *DSLService) catchUpVersion(remote int64) error {
	local, err := s.LocalVersion()
	if err != nil {
		return err
	}
	if remote <= local {
		return nil
	}
	base, err := s.versionBase()
	if err != nil {
		return err
	}
	base += remote - local
	if err := s.settings.SetSetting(settingVersionBase, strconv.FormatInt(base, 10)); err != nil {
		return fmt.Errorf("writing version base: %w", err)
	}
	s.logger.Info("local version advanced to vault version", "version", remote)
	return nil
}

// BackupStatus compares the local operation version with the vault copy.
type BackupStatus struct {
	LocalVersion  int64 `json:"local_version" yaml:"local_version"`
	RemoteVersion int64 `json:"remote_version" yaml:"remote_version"`
}

// UpToDate reports whether the vault holds the newest local state.
func (b BackupStatus) UpToDate() bool { return b.RemoteVersion >= b.LocalVersion }

// Behind reports whether the vault copy is newer than the local store.
func (b BackupStatus) Behind() bool { return b.RemoteVersion > b.LocalVersion }

// GetBackupStatus reads the local and remote snapshot versions.
func (s *DSLService) GetBackupStatus(profileID string) (*BackupStatus, error) {
	if s.vault == nil {
		return nil, errors.New("no vault configured")
	}
	local, err := s.LocalVersion()
	if err != nil {
		return nil, err
	}
	remote, err := s.vault.GetBackupVersion(profileID, SnapshotBackupName)
	if err != nil {
		return nil, fmt.Errorf("reading vault version: %w", err)
	}
	return &BackupStatus{LocalVersion: local, RemoteVersion: remote}, nil
}
