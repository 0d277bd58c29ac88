// Package ratelimit implements a tiered fixed-window request throttle with
// a cooldown block: a caller who exhausts a tier's budget waits out the full
// block duration, not just the remainder of the window.
package ratelimit
