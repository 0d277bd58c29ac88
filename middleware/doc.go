// Package middleware adapts the authcore engine and rate limiter to
// net/http: the auth gate in required and optional variants, and the
// tiered request throttle with its Retry-After / X-RateLimit-* response
// surface.
package middleware
