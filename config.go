package authcore

import (
	"errors"
	"time"

	"github.com/veilmail/authcore/ratelimit"
	"github.com/veilmail/authcore/token"
)

// TierSet carries the three throttle policies the service applies by route
// class. The engine itself never consumes them; they are configuration for
// the middleware layer so the whole security surface is defined in one
// place.
type TierSet struct {
	Auth  ratelimit.Tier
	API   ratelimit.Tier
	Quota ratelimit.Tier
}

// Config is the engine configuration. Treat it as immutable after Build.
type Config struct {
	Token token.Config

	// MasterKey, when set, derives the HS256 signing key via the secretbox
	// codec if Token.PrivateKey is empty. Lets deployments configure a
	// single secret for all derived key material.
	MasterKey []byte

	// RedisPrefix namespaces revocation and rate-limit keys when a Redis
	// client is supplied.
	RedisPrefix string

	// SweepInterval enables the in-memory revocation sweeper when > 0.
	// Purging is an optimization; zero disables the sweeper entirely.
	SweepInterval time.Duration

	Tiers TierSet
}

// DefaultConfig returns the configuration the builder starts from: 1h/7d
// credential TTLs, HS256 signing, and the standard three tiers. Callers
// still have to provide key material.
func DefaultConfig() Config { return defaultConfig() }

func defaultConfig() Config {
	return Config{
		Token: token.Config{
			SigningMethod: token.MethodHS256,
			AccessTTL:     time.Hour,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		Tiers: TierSet{
			Auth:  ratelimit.TierAuth,
			API:   ratelimit.TierAPI,
			Quota: ratelimit.TierQuota,
		},
	}
}

func (c Config) validate() error {
	for _, tier := range []ratelimit.Tier{c.Tiers.Auth, c.Tiers.API, c.Tiers.Quota} {
		if tier.Name == "" {
			return errors.New("tier missing name")
		}
		if tier.Points <= 0 {
			return errors.New("tier " + tier.Name + ": points must be positive")
		}
		if tier.Window <= 0 || tier.Block <= 0 {
			return errors.New("tier " + tier.Name + ": window and block must be positive")
		}
	}
	if c.SweepInterval < 0 {
		return errors.New("sweep interval must not be negative")
	}
	return nil
}
