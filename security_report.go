package authcore

import (
	"time"

	"github.com/veilmail/authcore/ratelimit"
)

// SecurityReport summarizes the engine's effective security posture. It is
// meant for startup logs and operator tooling, never for external callers:
// the fields describe configuration, not secrets.
type SecurityReport struct {
	SigningAlgorithm string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	Leeway           time.Duration

	AuditEnabled   bool
	MetricsEnabled bool
	SweeperEnabled bool

	AuthTier  TierReport
	APITier   TierReport
	QuotaTier TierReport
}

// TierReport is the throttle policy summary for one tier.
type TierReport struct {
	Name   string
	Points int
	Window time.Duration
	Block  time.Duration
}

// SecurityReport reports the posture the engine was built with.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	_, noopAudit := e.audit.(NoOpSink)

	return SecurityReport{
		SigningAlgorithm: e.tokens.Algorithm(),
		AccessTTL:        e.tokens.AccessTTL(),
		RefreshTTL:       e.tokens.RefreshTTL(),
		Leeway:           e.config.Token.Leeway,
		AuditEnabled:     e.audit != nil && !noopAudit,
		MetricsEnabled:   e.metrics != nil,
		SweeperEnabled:   e.config.SweepInterval > 0,
		AuthTier:         tierReport(e.config.Tiers.Auth),
		APITier:          tierReport(e.config.Tiers.API),
		QuotaTier:        tierReport(e.config.Tiers.Quota),
	}
}

func tierReport(t ratelimit.Tier) TierReport {
	return TierReport{
		Name:   t.Name,
		Points: t.Points,
		Window: t.Window,
		Block:  t.Block,
	}
}
