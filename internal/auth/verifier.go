package auth

import (
	"log/slog"
	"net/http"
)

// Verifier decides whether a request is authorized. Schemes are consulted in
// a fixed precedence order; the first scheme that is structurally attempted
// determines the outcome, even if its check fails. Any parse failure inside
// an attempted scheme collapses to a plain refusal, so the response never
// reveals which scheme was tried or why it was rejected.
type Verifier struct {
	creds   Credentials
	schemes []Scheme
}

// NewVerifier creates a Verifier for the given credentials with the standard
// scheme precedence: header pair, simple Authorization, SigV4, query params.
func NewVerifier(creds Credentials) *Verifier {
	return &Verifier{
		creds: creds,
		schemes: []Scheme{
			HeaderScheme{},
			SimpleScheme{},
			SigV4Scheme{},
			QueryScheme{},
		},
	}
}

// VerifyRequest reports whether the request carries valid credentials under
// any supported scheme. It is a pure computation over the request's method,
// path, query, and headers, safe to run concurrently across requests.
func (v *Verifier) VerifyRequest(r *http.Request) bool {
	for _, scheme := range v.schemes {
		attempt, attempted := scheme.Parse(r)
		if !attempted {
			continue
		}

		if attempt.Verify(v.creds) {
			slog.Debug("Request authenticated", "scheme", scheme.Name())
			return true
		}

		slog.Warn("Authentication failed", "scheme", scheme.Name())
		return false
	}

	slog.Warn("No valid authentication found")
	return false
}
