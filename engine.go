package authcore

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/veilmail/authcore/principal"
	"github.com/veilmail/authcore/revoke"
	"github.com/veilmail/authcore/token"
)

// Engine orchestrates the request-time security checks: credential
// extraction, verification, revocation lookup, principal existence, and
// identity binding. It is safe for concurrent use; the only goroutine it
// may own is the optional revocation sweeper, stopped by Close.
type Engine struct {
	config      Config
	tokens      *token.Manager
	revocations revoke.Store
	principals  principal.Store
	audit       AuditSink
	metrics     *Metrics
	log         *slog.Logger
	stop        context.CancelFunc
}

// Close releases background resources, currently the in-memory revocation
// sweeper. Safe on engines that started none.
func (e *Engine) Close() {
	if e.stop != nil {
		e.stop()
	}
}

// Config returns a copy of the engine configuration, mainly so middleware
// can pick up the configured tiers.
func (e *Engine) Config() Config { return e.config }

// Metrics returns the engine's metric set, or nil when metrics are not
// wired.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Issue constructs a signed access/refresh pair for an externally
// authenticated principal. Nothing is stored; possession of the signed
// tokens is the session.
func (e *Engine) Issue(ctx context.Context, principalID, address string) (*token.Pair, error) {
	pair, err := e.tokens.IssuePair(principalID, address)
	if err != nil {
		return nil, err
	}

	e.metrics.ObserveIssue()
	e.emit(ctx, AuditEvent{
		EventType:   EventIssue,
		PrincipalID: principalID,
		TokenID:     pair.AccessClaims.TokenID(),
		Success:     true,
	})
	return pair, nil
}

// Authenticate runs the gate state machine over the Authorization header
// value and either binds an identity or returns the terminal rejection.
// Expired and invalid tokens are indistinguishable externally; unexpected
// internal failures collapse to a generic AUTH_ERROR and are logged with
// full detail server-side only.
func (e *Engine) Authenticate(ctx context.Context, authorization string) (*Identity, *Rejection) {
	if authorization == "" {
		return nil, e.rejected(ctx, RejectMissingToken, nil)
	}

	raw, ok := bearerToken(authorization)
	if !ok {
		// Wrong scheme, wrong casing, or missing separator: rejected
		// before verification is ever attempted.
		return nil, e.rejected(ctx, RejectInvalidToken, nil)
	}

	start := time.Now()
	claims, err := e.tokens.Verify(raw)
	e.metrics.ObserveVerifyDuration(time.Since(start))
	if err != nil {
		return nil, e.rejected(ctx, RejectInvalidToken, nil)
	}

	revoked, err := e.revocations.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return nil, e.authError(ctx, claims, "revocation lookup failed", err)
	}
	if revoked {
		return nil, e.rejected(ctx, RejectTokenRevoked, claims)
	}

	exists, err := e.principals.Exists(ctx, claims.PrincipalID)
	if err != nil {
		return nil, e.authError(ctx, claims, "principal lookup failed", err)
	}
	if !exists {
		return nil, e.rejected(ctx, RejectPrincipalNotFound, claims)
	}

	identity := &Identity{
		PrincipalID: claims.PrincipalID,
		Address:     claims.Address,
		TokenID:     claims.TokenID(),
	}

	e.metrics.ObserveOutcome("admitted")
	e.emit(ctx, AuditEvent{
		EventType:   EventAuthAdmitted,
		PrincipalID: identity.PrincipalID,
		TokenID:     identity.TokenID,
		Success:     true,
	})
	return identity, nil
}

// AuthenticateOptional is the non-blocking gate variant for routes that
// personalize but do not require identity: absence of a credential, and any
// failure of one, admit the request without identity. Failures are still
// audited and counted.
func (e *Engine) AuthenticateOptional(ctx context.Context, authorization string) *Identity {
	if authorization == "" {
		return nil
	}
	identity, _ := e.Authenticate(ctx, authorization)
	return identity
}

// RotateRefresh exchanges a refresh token for a brand-new pair and
// immediately revokes the presented token's id, making rotation single-use.
// A second rotation with the same token fails with [ErrRefreshRevoked],
// which is the replay signal.
func (e *Engine) RotateRefresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	claims, err := e.tokens.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Kind != token.KindRefresh {
		return nil, token.ErrNotRefreshToken
	}

	revoked, err := e.revocations.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return nil, err
	}
	if revoked {
		e.metrics.ObserveReuse()
		e.emit(ctx, AuditEvent{
			EventType:   EventRefreshReuse,
			PrincipalID: claims.PrincipalID,
			TokenID:     claims.TokenID(),
			Severity:    string(SeverityHigh),
		})
		e.logger().WarnContext(ctx, "refresh token reuse detected",
			"principal_id", claims.PrincipalID, "token_id", claims.TokenID())
		return nil, ErrRefreshRevoked
	}

	pair, err := e.tokens.IssuePair(claims.PrincipalID, claims.Address)
	if err != nil {
		return nil, err
	}

	// Fail closed: if the old token cannot be dishonored, the new pair is
	// not handed out either.
	if err := e.revokeClaims(ctx, claims); err != nil {
		return nil, err
	}

	e.metrics.ObserveRotation()
	e.emit(ctx, AuditEvent{
		EventType:   EventRefreshRotate,
		PrincipalID: claims.PrincipalID,
		TokenID:     claims.TokenID(),
		Success:     true,
	})
	return pair, nil
}

// Logout revokes the presented access token's id until its original expiry;
// there is no point retaining the record past the moment the token would
// have expired anyway.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	claims, err := e.tokens.Verify(accessToken)
	if err != nil {
		return err
	}

	if err := e.revokeClaims(ctx, claims); err != nil {
		return err
	}

	e.emit(ctx, AuditEvent{
		EventType:   EventLogout,
		PrincipalID: claims.PrincipalID,
		TokenID:     claims.TokenID(),
		Success:     true,
	})
	return nil
}

func (e *Engine) revokeClaims(ctx context.Context, claims *token.Claims) error {
	err := e.revocations.Revoke(ctx, claims.TokenID(), claims.PrincipalID, claims.ExpiresAt.Time)
	if errors.Is(err, revoke.ErrExpiryInPast) {
		// The token expired between verification and revocation; it is
		// already unusable, so the missing record is harmless.
		return nil
	}
	return err
}

func (e *Engine) rejected(ctx context.Context, kind RejectKind, claims *token.Claims) *Rejection {
	rej := newRejection(kind)

	event := AuditEvent{
		EventType: EventAuthRejected,
		Code:      rej.Code,
		Severity:  string(rej.Severity),
	}
	if claims != nil {
		event.PrincipalID = claims.PrincipalID
		event.TokenID = claims.TokenID()
	}
	e.emit(ctx, event)
	e.metrics.ObserveOutcome(rej.Code)

	switch rej.Severity {
	case SeverityLow:
		e.logger().InfoContext(ctx, "request rejected", "code", rej.Code)
	default:
		e.logger().WarnContext(ctx, "request rejected",
			"code", rej.Code, "principal_id", event.PrincipalID, "token_id", event.TokenID)
	}
	return rej
}

// authError collapses an infrastructure failure to the generic rejection
// while keeping the full detail in the server-side log and audit trail.
func (e *Engine) authError(ctx context.Context, claims *token.Claims, msg string, err error) *Rejection {
	rej := newRejection(RejectAuthError)

	event := AuditEvent{
		EventType: EventAuthRejected,
		Code:      rej.Code,
		Severity:  string(rej.Severity),
		Detail:    err.Error(),
	}
	if claims != nil {
		event.PrincipalID = claims.PrincipalID
		event.TokenID = claims.TokenID()
	}
	e.emit(ctx, event)
	e.metrics.ObserveOutcome(rej.Code)
	e.logger().ErrorContext(ctx, msg, "error", err, "principal_id", event.PrincipalID)

	return rej
}

func (e *Engine) emit(ctx context.Context, event AuditEvent) {
	if e.audit == nil {
		return
	}
	event.Timestamp = time.Now()
	event.IP = ClientIPFromContext(ctx)
	e.audit.Emit(ctx, event)
}

func (e *Engine) logger() *slog.Logger {
	if e.log != nil {
		return e.log
	}
	return slog.Default()
}

// bearerToken extracts the credential from an Authorization header value.
// The match is exact: case-sensitive "Bearer" and a single separating
// space. Anything else is rejected without attempting verification.
func bearerToken(header string) (string, bool) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" || strings.HasPrefix(raw, " ") {
		return "", false
	}
	return raw, true
}
