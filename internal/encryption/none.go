package encryption

import (
	"fmt"
	"io"

	"dsl-go/internal/dsl"
)

// PlainEncryptor stores backups unencrypted. It is selected with
// encryption type "none" for vaults the user already trusts.
type PlainEncryptor struct{}

var (
	_ dsl.Encryptor         = PlainEncryptor{}
	_ dsl.DecryptionContext = PlainEncryptor{}
)

func (PlainEncryptor) Setup(string) error { return nil }

func (PlainEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (p PlainEncryptor) Unlock(string) (dsl.DecryptionContext, error) { return p, nil }

func (PlainEncryptor) Decrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (PlainEncryptor) IsConfigured() bool       { return true }
func (PlainEncryptor) RequiresPassphrase() bool { return false }
