package encryption

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"dsl-go/internal/config"
	"dsl-go/internal/dsl"
)

func TestTestEncryptor(t *testing.T) {
	t.Parallel()

	e := NewTestEncryptor()
	if err := e.Setup("any-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.SetupCalled() {
		t.Error("Setup() did not record that it was called")
	}
	if !e.IsConfigured() || e.RequiresPassphrase() {
		t.Error("TestEncryptor should be configured and need no passphrase")
	}

	input := []byte(`{"version":1}`)
	var encrypted bytes.Buffer
	if err := e.Encrypt(bytes.NewReader(input), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if bytes.Equal(encrypted.Bytes(), input) {
		t.Error("encrypted output is identical to plaintext")
	}

	ctx, err := e.Unlock("")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	var decrypted bytes.Buffer
	if err := ctx.Decrypt(&encrypted, &decrypted); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(decrypted.Bytes(), input) {
		t.Errorf("round trip = %q, want %q", decrypted.Bytes(), input)
	}
}

func TestTestDecryptionContext_BadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "wrong header", input: []byte("NOTDSL!!payload")},
		{name: "truncated header", input: []byte("DSL")},
		{name: "empty", input: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := (&TestDecryptionContext{}).Decrypt(bytes.NewReader(tt.input), &out)
			if err == nil {
				t.Error("Decrypt() expected error")
			}
		})
	}
}

func TestPlainEncryptor(t *testing.T) {
	t.Parallel()

	var e dsl.Encryptor = PlainEncryptor{}
	var encrypted bytes.Buffer
	if err := e.Encrypt(strings.NewReader("plain"), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if encrypted.String() != "plain" {
		t.Errorf("Encrypt() = %q, want passthrough", encrypted.String())
	}

	ctx, err := e.Unlock("")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	var decrypted bytes.Buffer
	if err := ctx.Decrypt(&encrypted, &decrypted); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if decrypted.String() != "plain" {
		t.Errorf("Decrypt() = %q, want plain", decrypted.String())
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	dir := t.TempDir()
	keys := config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "dsl.pub"),
		PrivateKeyPath: filepath.Join(dir, "dsl.key"),
	}

	tests := []struct {
		name    string
		cfg     config.EncryptionConfig
		want    string
		wantErr bool
	}{
		{name: "default is age", cfg: keys, want: "*encryption.AgeEncryptor"},
		{name: "age", cfg: config.EncryptionConfig{Type: "age", PublicKeyPath: keys.PublicKeyPath, PrivateKeyPath: keys.PrivateKeyPath}, want: "*encryption.AgeEncryptor"},
		{name: "age without keys", cfg: config.EncryptionConfig{Type: "age"}, wantErr: true},
		{name: "test", cfg: config.EncryptionConfig{Type: "test"}, want: "*encryption.TestEncryptor"},
		{name: "none", cfg: config.EncryptionConfig{Type: "none"}, want: "encryption.PlainEncryptor"},
		{name: "unknown", cfg: config.EncryptionConfig{Type: "rot13"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEncryptorFromConfig(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewEncryptorFromConfig() expected error, got %T", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEncryptorFromConfig() error = %v", err)
			}
			if gotType := typeName(got); gotType != tt.want {
				t.Errorf("NewEncryptorFromConfig() type = %s, want %s", gotType, tt.want)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *AgeEncryptor:
		return "*encryption.AgeEncryptor"
	case *TestEncryptor:
		return "*encryption.TestEncryptor"
	case PlainEncryptor:
		return "encryption.PlainEncryptor"
	default:
		return "unknown"
	}
}
