package auth

import (
	"testing"
	"time"

	"chat-relay/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-for-token-tests")

func TestToken_Generate_Then_Validate(t *testing.T) {
	req := require.New(t)

	// Given a freshly issued token
	token, err := GenerateToken(testSecret, "user-42", []string{"user"}, time.Hour)
	req.NoError(err)
	req.NotEmpty(token)

	// When validating it with the same secret
	claims, err := ValidateToken(testSecret, token)

	// Then the subject round-trips
	req.NoError(err)
	req.Equal("user-42", claims.UserID)
	req.Equal([]string{"user"}, claims.Roles)
}

func TestToken_Expired_Is_Rejected(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(testSecret, "user-42", nil, -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(testSecret, token)
	req.ErrorIs(err, errors.ErrTokenExpired)
}

func TestToken_Wrong_Secret_Is_Rejected(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(testSecret, "user-42", nil, time.Hour)
	req.NoError(err)

	_, err = ValidateToken([]byte("another-secret"), token)
	req.ErrorIs(err, errors.ErrInvalidSignature)
}

func TestToken_Garbage_Is_Rejected(t *testing.T) {
	req := require.New(t)

	_, err := ValidateToken(testSecret, "not-a-token")
	req.ErrorIs(err, errors.ErrMalformedToken)
}

func TestToken_Unexpected_Signing_Method_Is_Rejected(t *testing.T) {
	req := require.New(t)

	// Given a token signed with "none" instead of HMAC
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, CustomClaims{UserID: "user-42"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	req.NoError(err)

	_, err = ValidateToken(testSecret, token)
	req.ErrorIs(err, errors.ErrMalformedToken)
}
