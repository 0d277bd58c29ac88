// Package token issues and verifies the signed access/refresh credential
// pairs the session core is built around, with strict algorithm pinning and
// distinct expiry vs. invalidity failures.
package token
