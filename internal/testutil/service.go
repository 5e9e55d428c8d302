package testutil

import (
	"testing"

	"dsl-go/internal/database"
	"dsl-go/internal/dsl"
	"dsl-go/internal/encryption"
	"dsl-go/internal/vault"
)

// TestEnv bundles a DSLService with the stubs behind it.
type TestEnv struct {
	Service   *dsl.DSLService
	DB        *database.SQLiteDatabase
	Clock     *StubClock
	IDs       *StubIDGenerator
	Vault     *vault.MemoryVault
	Encryptor *encryption.TestEncryptor
}

// NewTestEnv wires a DSLService over an in-memory database, a memory vault,
// the test encryptor and FixedClock.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	env := &TestEnv{
		DB:        NewTestDatabase(t),
		Clock:     FixedClock(),
		IDs:       NewStubIDGenerator(),
		Vault:     NewTestVault(),
		Encryptor: NewTestEncryptor(),
	}
	env.Service = dsl.NewDSLService(env.DB, env.DB, env.Vault, env.Encryptor, dsl.NewNopLogger(), env.Clock, env.IDs)
	return env
}
