//go:generate go run go.uber.org/mock/mockgen -source=gate.go -destination=../mocks/mock_identity_resolver.go -package=mocks
package auth

import (
	"context"
	"net/http"
	"strings"

	"chat-relay/domain"
	"chat-relay/errors"
)

// IdentityResolver looks up the Principal behind a token subject.
// The identity system owns the data; the gate only reads it.
type IdentityResolver interface {
	ResolvePrincipal(ctx context.Context, subjectID string) (domain.Principal, error)
}

// Gate authenticates connection attempts.
// It must complete before a connection leaves its initial state; any failure
// terminates the attempt with no retry.
type Gate struct {
	secret   []byte
	resolver IdentityResolver
}

func NewGate(secret []byte, resolver IdentityResolver) *Gate {
	return &Gate{secret: secret, resolver: resolver}
}

// CredentialFromRequest extracts the bearer credential from the
// Authorization header or the `token` query parameter. The header wins when
// both are present; both absent is ErrMissingCredential.
func CredentialFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1], nil
		}
		return "", errors.ErrMalformedToken
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", errors.ErrMissingCredential
}

// Authenticate verifies the signed, time-bound credential and resolves its
// subject to a Principal. A subject that no longer exists is an auth failure
// (ErrUnknownPrincipal), not an anonymous placeholder.
func (g *Gate) Authenticate(ctx context.Context, rawCredential string) (domain.Principal, error) {
	claims, err := ValidateToken(g.secret, rawCredential)
	if err != nil {
		return domain.Principal{}, err
	}

	principal, err := g.resolver.ResolvePrincipal(ctx, claims.UserID)
	if err != nil {
		return domain.Principal{}, errors.ErrUnknownPrincipal
	}
	return principal, nil
}
