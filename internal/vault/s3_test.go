package vault

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"dsl-go/internal/config"
)

type fakeObject struct {
	data     []byte
	metadata map[string]string
}

// fakeS3 serves single-part uploads, downloads and head requests from memory.
// Multipart calls fall through to the nil embedded client.
type fakeS3 struct {
	manager.UploadAPIClient

	mu      sync.Mutex
	objects map[string]fakeObject
	keys    []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]fakeObject)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	f.objects[key] = fakeObject{data: data, metadata: in.Metadata}
	f.keys = append(f.keys, key)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(obj.data))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{Metadata: obj.metadata}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func TestS3Vault_KeyLayout(t *testing.T) {
	fake := newFakeS3()
	v := newS3VaultWithClient("test", "bucket", "backups/dsl", fake)

	if err := v.PutBackup("alice", "snapshot", bytes.NewReader([]byte("abc")), 3, 5); err != nil {
		t.Fatalf("PutBackup() error = %v", err)
	}

	if len(fake.keys) != 1 || fake.keys[0] != "backups/dsl/alice/snapshot" {
		t.Errorf("uploaded keys = %v, want [backups/dsl/alice/snapshot]", fake.keys)
	}
	if got := fake.objects["backups/dsl/alice/snapshot"].metadata[versionMetadataKey]; got != "5" {
		t.Errorf("version metadata = %q, want %q", got, "5")
	}
}

func TestS3Vault_InvalidPathComponents(t *testing.T) {
	fake := newFakeS3()
	v := newS3VaultWithClient("test", "bucket", "backups/dsl", fake)

	tests := []struct {
		name      string
		profileID string
		object    string
	}{
		{"empty profile", "", "snapshot"},
		{"empty name", "alice", ""},
		{"parent traversal", "..", "snapshot"},
		{"dot name", "alice", "."},
		{"slash in name", "alice", "../bob/snapshot"},
		{"backslash in profile", `a\b`, "snapshot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.PutBackup(tt.profileID, tt.object, bytes.NewReader([]byte("x")), 1, 1); err == nil {
				t.Error("PutBackup() expected error, got nil")
			}
			var buf bytes.Buffer
			if err := v.GetBackup(tt.profileID, tt.object, &buf); err == nil {
				t.Error("GetBackup() expected error, got nil")
			}
			if _, err := v.GetBackupVersion(tt.profileID, tt.object); err == nil {
				t.Error("GetBackupVersion() expected error, got nil")
			}
		})
	}

	if len(fake.keys) != 0 {
		t.Errorf("uploaded keys = %v, want none", fake.keys)
	}
}

func TestS3Vault_MissingVersionMetadata(t *testing.T) {
	fake := newFakeS3()
	fake.objects["alice/snapshot"] = fakeObject{data: []byte("x")}
	v := newS3VaultWithClient("test", "bucket", "", fake)

	version, err := v.GetBackupVersion("alice", "snapshot")
	if err != nil {
		t.Fatalf("GetBackupVersion() error = %v", err)
	}
	if version != 0 {
		t.Errorf("GetBackupVersion() = %d, want 0", version)
	}
}

func TestNewS3Vault_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.VaultConfig
	}{
		{
			name: "missing bucket",
			cfg:  config.VaultConfig{Type: "s3", Name: "remote"},
		},
		{
			name: "access key without secret",
			cfg:  config.VaultConfig{Type: "s3", Name: "remote", S3Bucket: "b", S3AccessKeyID: "AKIA"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewS3Vault(tt.cfg); err == nil {
				t.Error("NewS3Vault() expected error, got nil")
			}
		})
	}
}

func TestNewS3Vault_StaticCredentials(t *testing.T) {
	v, err := NewS3Vault(config.VaultConfig{
		Type:              "s3",
		Name:              "remote",
		S3Bucket:          "dsl-backups",
		S3Prefix:          "home",
		S3Region:          "ap-northeast-1",
		S3Endpoint:        "http://localhost:9000",
		S3AccessKeyID:     "AKIAEXAMPLE",
		S3SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewS3Vault() error = %v", err)
	}
	if v.bucket != "dsl-backups" || v.prefix != "home" {
		t.Errorf("vault = {bucket: %q, prefix: %q}, want {dsl-backups, home}", v.bucket, v.prefix)
	}
	got, err := v.key("alice", "snapshot")
	if err != nil {
		t.Fatalf("key() error = %v", err)
	}
	if got != "home/alice/snapshot" {
		t.Errorf("key() = %q, want %q", got, "home/alice/snapshot")
	}
}
