package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cask/internal/auth"

	"github.com/stretchr/testify/require"
)

const (
	AccessKeyID     = "mykey"
	SecretAccessKey = "mysecret"
)

func newVerifier() *auth.Verifier {
	return auth.NewVerifier(auth.Credentials{
		AccessKeyID:     AccessKeyID,
		SecretAccessKey: SecretAccessKey,
	})
}

func TestHeaderScheme(t *testing.T) {
	t.Parallel()

	v := newVerifier()

	req := httptest.NewRequest(http.MethodGet, "http://example.com/hello.txt", nil)
	req.Header.Set(auth.AccessKeyHeader, AccessKeyID)
	req.Header.Set(auth.SecretKeyHeader, SecretAccessKey)
	require.True(t, v.VerifyRequest(req), "expected header credentials to verify")

	req.Header.Set(auth.SecretKeyHeader, "wrong")
	require.False(t, v.VerifyRequest(req), "expected wrong secret to fail")
}

func TestHeaderSchemeShadowsLaterSchemes(t *testing.T) {
	t.Parallel()

	v := newVerifier()

	// The header pair is attempted first; once attempted, a failing check is
	// final even though a valid Authorization value is also present.
	req := httptest.NewRequest(http.MethodGet, "http://example.com/hello.txt", nil)
	req.Header.Set(auth.AccessKeyHeader, AccessKeyID)
	req.Header.Set(auth.SecretKeyHeader, "wrong")
	req.Header.Set("Authorization", "Bearer "+AccessKeyID+":"+SecretAccessKey)
	require.False(t, v.VerifyRequest(req), "expected failed header attempt to be final")
}

func TestSimpleScheme(t *testing.T) {
	t.Parallel()

	v := newVerifier()

	tests := []struct {
		name          string
		authorization string
		want          bool
	}{
		{name: "plain pair", authorization: AccessKeyID + ":" + SecretAccessKey, want: true},
		{name: "bearer pair", authorization: "Bearer " + AccessKeyID + ":" + SecretAccessKey, want: true},
		{name: "wrong secret", authorization: AccessKeyID + ":wrong", want: false},
		{name: "two colons", authorization: AccessKeyID + ":" + SecretAccessKey + ":extra", want: false},
		{name: "empty access part", authorization: ":" + SecretAccessKey, want: false},
		{name: "empty secret part", authorization: AccessKeyID + ":", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://example.com/hello.txt", nil)
			req.Header.Set("Authorization", tc.authorization)
			require.Equal(t, tc.want, v.VerifyRequest(req), "verification outcome")
		})
	}
}

func TestQueryScheme(t *testing.T) {
	t.Parallel()

	v := newVerifier()

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{name: "both pairs", query: "access_key=mykey&secret_key=mysecret", want: true},
		{name: "reversed order", query: "secret_key=mysecret&access_key=mykey", want: true},
		{name: "surrounded by other params", query: "prefix=he&access_key=mykey&max-keys=10&secret_key=mysecret", want: true},
		{name: "missing secret", query: "access_key=mykey", want: false},
		{name: "wrong secret", query: "access_key=mykey&secret_key=wrong", want: false},
		{name: "wrong access key", query: "access_key=other&secret_key=mysecret", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://example.com/?"+tc.query, nil)
			require.Equal(t, tc.want, v.VerifyRequest(req), "verification outcome")
		})
	}
}

func TestNoCredentialsPresented(t *testing.T) {
	t.Parallel()

	v := newVerifier()

	req := httptest.NewRequest(http.MethodGet, "http://example.com/hello.txt", nil)
	require.False(t, v.VerifyRequest(req), "expected request without credentials to fail")
}
