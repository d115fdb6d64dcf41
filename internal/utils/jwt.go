package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidToken covers every token rejection: bad signature, wrong
// algorithm, expiry, or a malformed claim set.  Callers respond 401 and do
// not distinguish further.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed claim bundle asserted by an access token.  Verified is
// tri-state: true for an approved identity, false for one rejected at sign-up
// review, nil while the review is still pending.  It is computed once at
// issuance from the soldier's review timestamps, so a token issued before
// approval stays nil until the holder signs in again.
type Claims struct {
	Sub      string   // service number of the subject
	Name     string   // display name
	Type     string   // "enlisted" or "cadre"
	Scope    []string // granted capability tokens, order-irrelevant
	Verified *bool    // sign-up review state at issuance time
}

// AccessToken pairs a serialized JWT with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS512 JWT carrying the claim bundle.
// Tokens are valid for ttlMin minutes (one hour in production).
func NewAccessToken(secret string, cl Claims, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":   cl.Sub,
		"name":  cl.Name,
		"type":  cl.Type,
		"scope": cl.Scope,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	// encode tri-state as true/false/null
	if cl.Verified != nil {
		claims["verified"] = *cl.Verified
	} else {
		claims["verified"] = nil
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates signature, algorithm and expiry, then unpacks
// the claim bundle.  Any failure is reported as ErrInvalidToken.
func ParseAccessToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// HS512 only; reject any other signing method outright.
		if t.Method != jwt.SigningMethodHS512 {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	cl := Claims{}
	if cl.Sub, ok = mc["sub"].(string); !ok {
		return Claims{}, ErrInvalidToken
	}
	cl.Name, _ = mc["name"].(string)
	if cl.Type, ok = mc["type"].(string); !ok {
		return Claims{}, ErrInvalidToken
	}
	if rawScope, ok := mc["scope"].([]interface{}); ok {
		for _, s := range rawScope {
			if v, ok := s.(string); ok {
				cl.Scope = append(cl.Scope, v)
			}
		}
	}
	if v, ok := mc["verified"].(bool); ok {
		cl.Verified = &v
	}
	return cl, nil
}

// VerifiedState derives the tri-state review flag from the soldier's review
// timestamps: approved -> true, rejected -> false, pending -> nil.
func VerifiedState(verifiedAt, rejectedAt *time.Time) *bool {
	if verifiedAt != nil {
		v := true
		return &v
	}
	if rejectedAt != nil {
		v := false
		return &v
	}
	return nil
}
