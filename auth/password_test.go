package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPassword_Hash_Then_Compare(t *testing.T) {
	req := require.New(t)
	password := "Sup3r-Secret-Passw0rd!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)
}

func TestPassword_Wrong_Password_Does_Not_Match(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Sup3r-Secret-Passw0rd!")
	req.NoError(err)

	match, err := ComparePassword("wrong-password", hash)
	req.NoError(err)
	req.False(match)
}

func TestPassword_Same_Password_Yields_Different_Hashes(t *testing.T) {
	req := require.New(t)
	password := "Sup3r-Secret-Passw0rd!"

	// Random salt: two hashes of the same password must differ
	hash1, err := HashPassword(password)
	req.NoError(err)
	hash2, err := HashPassword(password)
	req.NoError(err)
	req.NotEqual(hash1, hash2)
}

func TestPassword_Invalid_Hash_Format(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("whatever", "not-an-encoded-hash")
	req.Error(err)
}
