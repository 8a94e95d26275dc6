package dnscheck

import (
	"fmt"
	"slices"

	"github.com/inboxkit/domainverify/internal/config"
)

// RecordSet is the set of acceptable values for one expected record.
// Recommended is the current canonical value shown to the operator;
// Alternatives are historically valid values kept so that domains verified
// under an older scheme do not silently un-verify. All values are stored
// normalized.
type RecordSet struct {
	Recommended  string   `json:"recommended"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// Matches reports whether a normalized actual value is acceptable.
func (rs RecordSet) Matches(normalized string) bool {
	return normalized == rs.Recommended || slices.Contains(rs.Alternatives, normalized)
}

// Expector derives the expected record sets for a domain from the immutable
// platform DNS configuration.
type Expector struct {
	cfg config.DNSConfig
}

func NewExpector(cfg config.DNSConfig) *Expector {
	return &Expector{cfg: cfg}
}

// OwnershipTXT returns the expected ownership TXT record for a domain's
// verification token, e.g. "iv-verification=abc123".
func (e *Expector) OwnershipTXT(token string) RecordSet {
	rs := RecordSet{
		Recommended: NormalizeTXT(fmt.Sprintf("%s-verification=%s", e.cfg.VerificationPrefix, token)),
	}
	for _, prefix := range e.cfg.LegacyVerificationPrefixes {
		rs.Alternatives = append(rs.Alternatives, NormalizeTXT(fmt.Sprintf("%s-verification=%s", prefix, token)))
	}
	return rs
}

// MXTiers returns the expected MX target per required priority tier.
func (e *Expector) MXTiers() map[uint16]RecordSet {
	tiers := make(map[uint16]RecordSet, len(e.cfg.MXTiers))
	for _, tier := range e.cfg.MXTiers {
		rs := RecordSet{Recommended: NormalizeHost(tier.Host)}
		for _, alt := range tier.Alternatives {
			rs.Alternatives = append(rs.Alternatives, NormalizeHost(alt))
		}
		tiers[tier.Priority] = rs
	}
	return tiers
}

// SPF returns the expected SPF policy record naming the platform's
// sending hosts.
func (e *Expector) SPF() RecordSet {
	rs := RecordSet{
		Recommended: NormalizeTXT(fmt.Sprintf("v=spf1 include:%s ~all", e.cfg.EmailDomain)),
	}
	for _, alt := range e.cfg.LegacySPFRecords {
		rs.Alternatives = append(rs.Alternatives, NormalizeTXT(alt))
	}
	return rs
}

// DKIMPrefixes returns the fixed CNAME prefixes the platform delegates
// signing keys under, in configuration order.
func (e *Expector) DKIMPrefixes() []string {
	return e.cfg.DKIMPrefixes
}

// DKIMTarget returns the expected CNAME target for one DKIM prefix.
func (e *Expector) DKIMTarget(prefix string) RecordSet {
	rs := RecordSet{
		Recommended: NormalizeHost(prefix + "." + e.cfg.EmailDomain),
	}
	for _, alt := range e.cfg.LegacyDKIMTargets {
		rs.Alternatives = append(rs.Alternatives, NormalizeHost(alt))
	}
	return rs
}

// DKIMHost returns the host at which a DKIM prefix must be published for
// the given domain.
func (e *Expector) DKIMHost(prefix, domain string) string {
	return prefix + "." + domain
}

// DMARC returns the expected DMARC policy record.
func (e *Expector) DMARC() RecordSet {
	rs := RecordSet{Recommended: NormalizeTXT(e.cfg.DMARCRecord)}
	for _, alt := range e.cfg.LegacyDMARCRecords {
		rs.Alternatives = append(rs.Alternatives, NormalizeTXT(alt))
	}
	return rs
}

// DMARCHost returns the fixed host at which the DMARC record must be
// published for the given domain.
func (e *Expector) DMARCHost(domain string) string {
	return "_dmarc." + domain
}
