package authcore

import "errors"

var (
	// ErrRefreshRevoked is returned when a presented refresh token was
	// already rotated or explicitly revoked. A legitimate rotation revokes
	// the prior token, so seeing this error means replay of a stale token.
	ErrRefreshRevoked = errors.New("refresh token revoked")
	// ErrEngineNotReady is returned by the builder when required
	// dependencies are missing.
	ErrEngineNotReady = errors.New("engine not initialized")
)
