// Package auth handles the credential side of the session: decoding the
// claims inside the bearer token the Rootz API issues, and running the Google
// sign-in leg of the OAuth flow.
//
// AN IMPORTANT ASYMMETRY:
// This process is the CLIENT of the identity flow, not the issuer. The API
// signs the JWT with a secret this gateway never sees, so we cannot — and must
// not pretend to — verify the signature. What we need from the token is one
// thing only: the expiry claim, so the session can log itself out the moment
// the credential stops being accepted upstream. ParseUnverified is the honest
// tool for that: it decodes the payload without claiming any trust.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry means the credential decoded fine but carries no "exp" claim.
// The upstream contract guarantees one, so hitting this is a defect in the
// identity flow, not a normal runtime condition.
var ErrNoExpiry = errors.New("auth: credential has no expiry claim")

// DecodeExpiry extracts the expiry timestamp from a credential issued by the
// upstream API.
//
// The token is NOT signature-verified — see the package comment. A credential
// that fails to decode, or decodes without a numeric "exp", returns an error;
// the caller (the session manager) treats that as an upstream contract breach
// and propagates it.
func DecodeExpiry(credential string) (time.Time, error) {
	var claims jwt.RegisteredClaims

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(credential, &claims); err != nil {
		return time.Time{}, fmt.Errorf("auth: decoding credential claims: %w", err)
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}

	return claims.ExpiresAt.Time, nil
}
