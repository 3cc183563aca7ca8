package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCredentialFromRequest_Header_Wins_Over_Query(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest("GET", "/ws/chat/1?token=query-token", nil)
	r.Header.Set("Authorization", "Bearer header-token")

	credential, err := CredentialFromRequest(r)
	req.NoError(err)
	req.Equal("header-token", credential)
}

func TestCredentialFromRequest_Query_Fallback(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest("GET", "/ws/chat/1?token=query-token", nil)

	credential, err := CredentialFromRequest(r)
	req.NoError(err)
	req.Equal("query-token", credential)
}

func TestCredentialFromRequest_Missing_Credential(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest("GET", "/ws/chat/1", nil)

	_, err := CredentialFromRequest(r)
	req.ErrorIs(err, errors.ErrMissingCredential)
}

func TestCredentialFromRequest_Malformed_Header(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest("GET", "/ws/chat/1", nil)
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	_, err := CredentialFromRequest(r)
	req.ErrorIs(err, errors.ErrMalformedToken)
}

func TestGate_Authenticate_Resolves_Principal(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	secret := []byte("gate-test-secret")
	resolver := mocks.NewMockIdentityResolver(ctrl)
	gate := NewGate(secret, resolver)

	// Given a valid token whose subject is a known principal
	token, err := GenerateToken(secret, "user-42", []string{"user"}, time.Hour)
	req.NoError(err)
	resolver.EXPECT().
		ResolvePrincipal(gomock.Any(), "user-42").
		Return(domain.Principal{ID: "user-42", Name: "alice"}, nil)

	// When authenticating
	principal, err := gate.Authenticate(context.Background(), token)

	// Then the resolved identity is returned
	req.NoError(err)
	req.Equal("alice", principal.Name)
}

func TestGate_Authenticate_Unknown_Subject_Is_Rejected(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	secret := []byte("gate-test-secret")
	resolver := mocks.NewMockIdentityResolver(ctrl)
	gate := NewGate(secret, resolver)

	// Given a valid token whose subject has been deleted since issuance
	token, err := GenerateToken(secret, "ghost", nil, time.Hour)
	req.NoError(err)
	resolver.EXPECT().
		ResolvePrincipal(gomock.Any(), "ghost").
		Return(domain.Principal{}, errors.ErrUnknownPrincipal)

	// Then the attempt fails instead of degrading to a placeholder identity
	_, err = gate.Authenticate(context.Background(), token)
	req.ErrorIs(err, errors.ErrUnknownPrincipal)
}

func TestGate_Authenticate_Invalid_Token_Never_Hits_Resolver(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := mocks.NewMockIdentityResolver(ctrl)
	gate := NewGate([]byte("gate-test-secret"), resolver)

	_, err := gate.Authenticate(context.Background(), "garbage")
	req.ErrorIs(err, errors.ErrMalformedToken)
}
