package authcore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/veilmail/authcore/principal"
	"github.com/veilmail/authcore/ratelimit"
	"github.com/veilmail/authcore/revoke"
	"github.com/veilmail/authcore/secretbox"
	"github.com/veilmail/authcore/token"
)

// Builder assembles an [Engine]. Construct it with [New], chain the With
// methods, and call Build once at service startup.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	revocations revoke.Store
	principals  principal.Store
	audit       AuditSink
	logger      *slog.Logger
	registry    prometheus.Registerer
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies a Redis client. Unless an explicit revocation store is
// set, revocation state moves to Redis so multiple instances share it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRevocationStore overrides the revocation backend.
func (b *Builder) WithRevocationStore(store revoke.Store) *Builder {
	b.revocations = store
	return b
}

// WithPrincipalStore supplies the principal existence lookup. Required.
func (b *Builder) WithPrincipalStore(store principal.Store) *Builder {
	b.principals = store
	return b
}

// WithAuditSink supplies the security event sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.audit = sink
	return b
}

// WithLogger supplies the structured logger. Defaults to slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetrics registers the engine's Prometheus metrics on reg.
func (b *Builder) WithMetrics(reg prometheus.Registerer) *Builder {
	b.registry = reg
	return b
}

// NewLimiter returns a rate limiter matching the builder's wiring: Redis
// backed when a client was supplied, in-memory otherwise. Exposed here so
// the throttle middleware shares the engine's deployment shape.
func (b *Builder) NewLimiter() ratelimit.Limiter {
	if b.redis != nil {
		return ratelimit.NewRedis(b.redis, b.config.RedisPrefix)
	}
	return ratelimit.NewMemory()
}

// Build validates the configuration and returns the engine.
func (b *Builder) Build() (*Engine, error) {
	if err := b.config.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}
	if b.principals == nil {
		return nil, fmt.Errorf("%w: principal store is required", ErrEngineNotReady)
	}

	tokenCfg := b.config.Token
	if len(tokenCfg.PrivateKey) == 0 && len(b.config.MasterKey) > 0 && tokenCfg.SigningMethod == token.MethodHS256 {
		key, err := secretbox.DeriveKey(b.config.MasterKey, "token-signing", 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
		}
		tokenCfg.PrivateKey = key
	}

	tokens, err := token.NewManager(tokenCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}

	revocations := b.revocations
	var stop context.CancelFunc
	if revocations == nil {
		if b.redis != nil {
			revocations = revoke.NewRedis(b.redis, b.config.RedisPrefix)
		} else {
			mem := revoke.NewMemory()
			if b.config.SweepInterval > 0 {
				var sweepCtx context.Context
				sweepCtx, stop = context.WithCancel(context.Background())
				mem.StartSweeper(sweepCtx, b.config.SweepInterval)
			}
			revocations = mem
		}
	}

	audit := b.audit
	if audit == nil {
		audit = NoOpSink{}
	}

	var metrics *Metrics
	if b.registry != nil {
		metrics = NewMetrics(b.registry)
	}

	return &Engine{
		config:      b.config,
		tokens:      tokens,
		revocations: revocations,
		principals:  b.principals,
		audit:       audit,
		metrics:     metrics,
		log:         b.logger,
		stop:        stop,
	}, nil
}
