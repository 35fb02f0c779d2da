package signing

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestSignVerifyRoundTrip(t *testing.T) {
	now := time.Now()
	params := url.Values{}
	params.Set("style", "base")
	params.Set("site", "x")
	params.Set("title", "Signed title")

	signed, expiresAt := Sign(params, 5*time.Minute, now, testSecret)

	assert.NotEmpty(t, signed.Get(SignatureParam))
	assert.NotEmpty(t, signed.Get(ExpiresAtParam))

	got, err := Verify(signed, now, testSecret)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, expiresAt.Unix(), got.Unix())

	// Verification just below the expiry still passes.
	got, err = Verify(signed, expiresAt.Add(-time.Second), testSecret)
	require.NoError(t, err)
	assert.Equal(t, expiresAt.Unix(), got.Unix())
}

func TestVerifyRejectsTamperedParams(t *testing.T) {
	now := time.Now()
	params := url.Values{}
	params.Set("style", "base")
	params.Set("title", "Original Title")
	params.Set("subtitle", "Untouched")

	signed, _ := Sign(params, 5*time.Minute, now, testSecret)

	for _, key := range []string{"style", "title", "subtitle", ExpiresAtParam} {
		tampered := url.Values{}
		for k, vs := range signed {
			for _, v := range vs {
				tampered.Add(k, v)
			}
		}
		if key == ExpiresAtParam {
			tampered.Set(key, "9999999999")
		} else {
			tampered.Set(key, "Tampered")
		}

		_, err := Verify(tampered, now, testSecret)
		assert.ErrorIs(t, err, ErrInvalidSignature, "mutating %q must invalidate the signature", key)
	}
}

func TestVerifyRejectsExpiredSignature(t *testing.T) {
	now := time.Now()
	signed, expiresAt := Sign(url.Values{"title": {"Expired"}}, time.Minute, now, testSecret)

	_, err := Verify(signed, expiresAt.Add(time.Second), testSecret)
	assert.ErrorIs(t, err, ErrExpiredSignature)
}

func TestVerifyTreatsMissingSignatureAsUnsigned(t *testing.T) {
	got, err := Verify(url.Values{"title": {"No signature"}}, time.Now(), testSecret)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestVerifyRejectsMalformedExpiry(t *testing.T) {
	now := time.Now()
	signed, _ := Sign(url.Values{"title": {"Bad exp"}}, time.Minute, now, testSecret)

	missing := url.Values{"title": {"Bad exp"}, SignatureParam: {signed.Get(SignatureParam)}}
	_, err := Verify(missing, now, testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	signed.Set(ExpiresAtParam, "not-a-number")
	_, err = Verify(signed, now, testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestSignClampsTTL(t *testing.T) {
	now := time.Now()

	_, defaulted := Sign(url.Values{}, 0, now, testSecret)
	assert.Equal(t, now.Add(DefaultTTL).Unix(), defaulted.Unix())

	_, clamped := Sign(url.Values{}, 90*24*time.Hour, now, testSecret)
	assert.Equal(t, now.Add(MaxTTL).Unix(), clamped.Unix())
}

func TestSignOverwritesPreexistingSignatureAndExpiry(t *testing.T) {
	now := time.Now()
	params := url.Values{}
	params.Set("title", "Re-sign me")
	params.Set(SignatureParam, "stale")
	params.Set(ExpiresAtParam, "12345")

	signed, expiresAt := Sign(params, time.Hour, now, testSecret)

	assert.NotEqual(t, "stale", signed.Get(SignatureParam))
	assert.Equal(t, expiresAt.Unix(), now.Add(time.Hour).Unix())

	_, err := Verify(signed, now, testSecret)
	assert.NoError(t, err)
}

func TestCanonicalPayloadSortsKeysAndKeepsMultiValueOrder(t *testing.T) {
	params := url.Values{}
	params.Add("b", "2")
	params.Add("a", "1")
	params.Add("b", "first comes first")
	params.Set(SignatureParam, "dropped")

	assert.Equal(t, "a=1&b=2&b=first+comes+first", canonicalPayload(params))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	now := time.Now()
	signed, _ := Sign(url.Values{"title": {"Secret swap"}}, time.Minute, now, testSecret)

	_, err := Verify(signed, now, "another-secret")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
