package authcore

import (
	"errors"
	"net/http"

	"github.com/veilmail/authcore/token"
)

// RejectKind is the closed set of gate rejection outcomes. Every kind is
// produced at the point of failure and mapped exactly once to its external
// code, message, and severity; no string matching anywhere.
type RejectKind int

const (
	// RejectMissingToken: the request carries no credential on a route that
	// requires one.
	RejectMissingToken RejectKind = iota + 1
	// RejectInvalidToken collapses malformed, badly signed, and expired
	// credentials into one externally visible code so callers cannot probe
	// which check failed.
	RejectInvalidToken
	// RejectTokenRevoked: structurally valid credential whose token id was
	// explicitly dishonored.
	RejectTokenRevoked
	// RejectPrincipalNotFound: valid, unrevoked credential referring to a
	// principal that no longer exists. Indicates stale issuance or external
	// data deletion.
	RejectPrincipalNotFound
	// RejectAuthError: an unexpected internal failure during validation,
	// collapsed to a generic code at the boundary.
	RejectAuthError
)

// Severity grades rejections for observability triage.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rejection is the terminal failure state of the gate's per-request state
// machine. Message is a fixed phrase per kind and never carries underlying
// error text.
type Rejection struct {
	Kind     RejectKind
	Code     string
	Message  string
	Severity Severity
}

// HTTPStatus returns the status the boundary should answer with.
func (r *Rejection) HTTPStatus() int { return http.StatusUnauthorized }

func newRejection(kind RejectKind) *Rejection {
	switch kind {
	case RejectMissingToken:
		return &Rejection{Kind: kind, Code: "MISSING_TOKEN", Message: "authentication required", Severity: SeverityLow}
	case RejectInvalidToken:
		return &Rejection{Kind: kind, Code: "INVALID_TOKEN", Message: "invalid or expired token", Severity: SeverityLow}
	case RejectTokenRevoked:
		return &Rejection{Kind: kind, Code: "TOKEN_REVOKED", Message: "token has been revoked", Severity: SeverityMedium}
	case RejectPrincipalNotFound:
		return &Rejection{Kind: kind, Code: "PRINCIPAL_NOT_FOUND", Message: "account no longer exists", Severity: SeverityHigh}
	default:
		return &Rejection{Kind: RejectAuthError, Code: "AUTH_ERROR", Message: "authentication failed", Severity: SeverityCritical}
	}
}

// MapError translates errors from [Engine.RotateRefresh], [Engine.Logout],
// and [Engine.Issue] into the same closed rejection taxonomy the gate uses,
// so token endpoints answer with the identical external surface.
func MapError(err error) *Rejection {
	switch {
	case errors.Is(err, token.ErrTokenInvalid),
		errors.Is(err, token.ErrTokenExpired),
		errors.Is(err, token.ErrNotRefreshToken):
		return newRejection(RejectInvalidToken)
	case errors.Is(err, ErrRefreshRevoked):
		return newRejection(RejectTokenRevoked)
	default:
		return newRejection(RejectAuthError)
	}
}
