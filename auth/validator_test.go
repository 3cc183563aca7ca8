package auth

import (
	"testing"

	"chat-relay/errors"

	"github.com/stretchr/testify/require"
)

func TestValidateRegister_Accepts_Complex_Password(t *testing.T) {
	req := require.New(t)

	err := ValidateRegister(RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Sup3r-Secret-Passw0rd!",
	})
	req.NoError(err)
}

func TestValidateRegister_Rejects_Simple_Password(t *testing.T) {
	req := require.New(t)

	// Long enough but no uppercase, number or special character
	err := ValidateRegister(RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "justlowercaseletters",
	})
	req.ErrorIs(err, errors.ErrInvalidPassword)
}

func TestValidateRegister_Rejects_Short_Password(t *testing.T) {
	req := require.New(t)

	err := ValidateRegister(RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Short1!",
	})
	req.Error(err)
}

func TestValidateRegister_Rejects_Invalid_Email(t *testing.T) {
	req := require.New(t)

	err := ValidateRegister(RegisterRequest{
		Username: "alice",
		Email:    "not-an-email",
		Password: "Sup3r-Secret-Passw0rd!",
	})
	req.Error(err)
}
