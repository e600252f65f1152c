package uasession

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ua-stack/opcua/pkg/ua/status"
)

// IssuedTokenClaims is the minimal claim set an IssuedToken identity
// carries: who it names and what group memberships a downstream
// authorization layer should honour. The core does not interpret
// Groups itself; it is out of scope per spec.md §1.
type IssuedTokenClaims struct {
	jwt.RegisteredClaims
	Groups []string `json:"groups,omitempty"`
}

// IssuedTokenVerifier validates the JWT-encoded IssuedToken identity
// kind against a shared HMAC secret, the way a PubSub SecurityKeys
// issuer or a third-party identity provider might hand out tokens
// an OPC UA server trusts for ActivateSession.
type IssuedTokenVerifier struct {
	secret []byte
	issuer string
}

func NewIssuedTokenVerifier(secret []byte, issuer string) *IssuedTokenVerifier {
	return &IssuedTokenVerifier{secret: secret, issuer: issuer}
}

// Verify parses and validates tokenString, returning the claims on
// success or a status.Code consistent with spec.md §7's security
// error regime on failure.
func (v *IssuedTokenVerifier) Verify(tokenString string) (*IssuedTokenClaims, status.Code) {
	claims := &IssuedTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, status.BadIdentityTokenRejected
		}
		return nil, status.BadIdentityTokenInvalid
	}
	if !token.Valid {
		return nil, status.BadIdentityTokenInvalid
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, status.BadIdentityTokenRejected
	}
	return claims, status.Good
}
