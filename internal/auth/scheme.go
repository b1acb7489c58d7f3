package auth

import (
	"net/http"
	"strings"
)

const (
	// AccessKeyHeader and SecretKeyHeader carry credentials directly for
	// clients that do not sign their requests.
	AccessKeyHeader = "x-amz-access-key"
	SecretKeyHeader = "x-amz-secret-key"

	// BearerPrefix is optionally stripped from simple Authorization values.
	BearerPrefix = "Bearer "
)

// A Scheme recognizes one way of presenting credentials on a request.
// Parse inspects the request without side effects and reports whether the
// scheme was structurally attempted; if so, the returned Attempt carries
// everything needed to check the presented credentials later.
type Scheme interface {
	// Name identifies the scheme in diagnostic logs.
	Name() string

	// Parse returns an Attempt and true if the request presents this
	// scheme's required headers or parameters, regardless of whether the
	// presented credentials are valid.
	Parse(r *http.Request) (Attempt, bool)
}

// An Attempt is a parsed credential presentation awaiting verification.
type Attempt interface {
	// Verify reports whether the presented credentials match the configured
	// ones. It is a pure computation with no I/O.
	Verify(creds Credentials) bool
}

// HeaderScheme matches requests that carry the access key and secret key in
// a dedicated header pair.
type HeaderScheme struct{}

func (HeaderScheme) Name() string { return "header" }

func (HeaderScheme) Parse(r *http.Request) (Attempt, bool) {
	access := r.Header.Values(AccessKeyHeader)
	secret := r.Header.Values(SecretKeyHeader)
	if len(access) == 0 || len(secret) == 0 {
		return nil, false
	}
	return headerAttempt{accessKey: access[0], secretKey: secret[0]}, true
}

type headerAttempt struct {
	accessKey string
	secretKey string
}

func (a headerAttempt) Verify(creds Credentials) bool {
	return a.accessKey == creds.AccessKeyID && a.secretKey == creds.SecretAccessKey
}

// SimpleScheme matches an Authorization value of the form
// "<access>:<secret>", with an optional "Bearer " prefix. The value must
// contain exactly one colon with non-empty parts on both sides.
type SimpleScheme struct{}

func (SimpleScheme) Name() string { return "simple" }

func (SimpleScheme) Parse(r *http.Request) (Attempt, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return nil, false
	}
	auth = strings.TrimPrefix(auth, BearerPrefix)
	if strings.Count(auth, ":") != 1 {
		return nil, false
	}
	access, secret, _ := strings.Cut(auth, ":")
	if access == "" || secret == "" {
		return nil, false
	}
	return simpleAttempt{accessKey: access, secretKey: secret}, true
}

type simpleAttempt struct {
	accessKey string
	secretKey string
}

func (a simpleAttempt) Verify(creds Credentials) bool {
	return a.accessKey == creds.AccessKeyID && a.secretKey == creds.SecretAccessKey
}

// QueryScheme matches requests that carry access_key and secret_key pairs
// anywhere in the query string. The raw query is split on '&' without URL
// decoding, so keys and values must be sent literally.
type QueryScheme struct{}

func (QueryScheme) Name() string { return "query" }

func (QueryScheme) Parse(r *http.Request) (Attempt, bool) {
	rawQuery := r.URL.RawQuery
	if rawQuery == "" {
		return nil, false
	}

	var attempt queryAttempt
	for _, param := range strings.Split(rawQuery, "&") {
		key, value, found := strings.Cut(param, "=")
		if !found {
			continue
		}
		switch key {
		case "access_key":
			attempt.accessKeys = append(attempt.accessKeys, value)
		case "secret_key":
			attempt.secretKeys = append(attempt.secretKeys, value)
		}
	}

	if len(attempt.accessKeys) == 0 || len(attempt.secretKeys) == 0 {
		return nil, false
	}
	return attempt, true
}

type queryAttempt struct {
	accessKeys []string
	secretKeys []string
}

func (a queryAttempt) Verify(creds Credentials) bool {
	accessOK := false
	for _, v := range a.accessKeys {
		if v == creds.AccessKeyID {
			accessOK = true
			break
		}
	}
	if !accessOK {
		return false
	}
	for _, v := range a.secretKeys {
		if v == creds.SecretAccessKey {
			return true
		}
	}
	return false
}
