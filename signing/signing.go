// Package signing implements HMAC-signed, expiring query parameter sets.
// The signature covers a canonical encoding of every parameter including the
// embedded expiry, so neither the parameters nor the expiry can be changed
// without invalidating the signature.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/url"
	"strconv"
	"time"
)

const (
	// SignatureParam is the query parameter carrying the signature.
	SignatureParam = "sig"
	// ExpiresAtParam is the query parameter carrying the Unix expiry.
	ExpiresAtParam = "exp"

	signingSalt = "ogserve.og-url-signature"

	DefaultTTL = time.Hour
	MaxTTL     = 30 * 24 * time.Hour
	MinTTL     = time.Second
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrExpiredSignature = errors.New("signed url has expired")
)

// Sign returns a copy of params extended with an expiry and a signature.
// The TTL is clamped to [MinTTL, MaxTTL]; a non-positive TTL selects DefaultTTL.
func Sign(params url.Values, ttl time.Duration, now time.Time, secret string) (url.Values, time.Time) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if ttl < MinTTL {
		ttl = MinTTL
	}
	if ttl > MaxTTL {
		ttl = MaxTTL
	}
	expiresAt := now.Add(ttl)

	signed := url.Values{}
	for key, values := range params {
		if key == SignatureParam || key == ExpiresAtParam {
			continue
		}
		for _, v := range values {
			signed.Add(key, v)
		}
	}
	signed.Set(ExpiresAtParam, strconv.FormatInt(expiresAt.Unix(), 10))
	signed.Set(SignatureParam, signature(canonicalPayload(signed), secret))

	return signed, expiresAt
}

// Verify checks the signature and expiry embedded in params.
//
// A missing signature is the unsigned/legacy path, not an error: Verify
// returns (nil, nil) and the caller decides whether unsigned requests are
// acceptable. A present signature yields either the embedded expiry,
// ErrExpiredSignature (signature fine, expiry passed) or ErrInvalidSignature
// (mismatch, or a missing/malformed exp parameter).
func Verify(params url.Values, now time.Time, secret string) (*time.Time, error) {
	sig := params.Get(SignatureParam)
	if sig == "" {
		return nil, nil
	}

	expRaw := params.Get(ExpiresAtParam)
	if expRaw == "" {
		return nil, ErrInvalidSignature
	}
	expUnix, err := strconv.ParseInt(expRaw, 10, 64)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	expiresAt := time.Unix(expUnix, 0)
	if now.After(expiresAt) {
		return nil, ErrExpiredSignature
	}

	expected := signature(canonicalPayload(params), secret)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return nil, ErrInvalidSignature
	}
	return &expiresAt, nil
}

// canonicalPayload renders the parameter set minus the signature itself as
// sorted, percent-encoded key=value pairs joined by '&'. url.Values.Encode
// sorts keys lexicographically and repeats multi-valued keys in slice order,
// which is exactly the canonical form both sides sign.
func canonicalPayload(params url.Values) string {
	canonical := url.Values{}
	for key, values := range params {
		if key == SignatureParam {
			continue
		}
		for _, v := range values {
			canonical.Add(key, v)
		}
	}
	return canonical.Encode()
}

func signature(payload, secret string) string {
	key := sha256.Sum256([]byte(signingSalt + ":" + secret))
	mac := hmac.New(sha256.New, key[:])
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
