package dnscheck

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inboxkit/domainverify/internal/config"
)

func testDNSConfig() config.DNSConfig {
	return config.DNSConfig{
		EmailDomain:                "mail.example.net",
		VerificationPrefix:         "iv",
		LegacyVerificationPrefixes: []string{"sl"},
		MXTiers: []config.MXTier{
			{Priority: 10, Host: "mx1.mail.example.net"},
			{Priority: 20, Host: "mx2.mail.example.net"},
		},
		DKIMPrefixes:      []string{"dkim._domainkey", "dkim02._domainkey", "dkim03._domainkey"},
		LegacyDKIMTargets: []string{"dkim._domainkey.old.example.net"},
		DMARCRecord:       "v=DMARC1; p=quarantine; pct=100; adkim=s; aspf=s",
	}
}

func TestExpectorOwnershipTXT(t *testing.T) {
	e := NewExpector(testDNSConfig())

	rs := e.OwnershipTXT("abc123")
	assert.Equal(t, "iv-verification=abc123", rs.Recommended)
	assert.Equal(t, []string{"sl-verification=abc123"}, rs.Alternatives)
}

func TestExpectorMXTiers(t *testing.T) {
	e := NewExpector(testDNSConfig())

	tiers := e.MXTiers()
	assert.Len(t, tiers, 2)
	assert.Equal(t, "mx1.mail.example.net.", tiers[10].Recommended)
	assert.Equal(t, "mx2.mail.example.net.", tiers[20].Recommended)
}

func TestExpectorSPF(t *testing.T) {
	e := NewExpector(testDNSConfig())

	assert.Equal(t, "v=spf1 include:mail.example.net ~all", e.SPF().Recommended)
}

func TestExpectorDKIM(t *testing.T) {
	e := NewExpector(testDNSConfig())

	assert.Equal(t, []string{"dkim._domainkey", "dkim02._domainkey", "dkim03._domainkey"}, e.DKIMPrefixes())

	rs := e.DKIMTarget("dkim02._domainkey")
	assert.Equal(t, "dkim02._domainkey.mail.example.net.", rs.Recommended)
	assert.Equal(t, []string{"dkim._domainkey.old.example.net."}, rs.Alternatives)

	assert.Equal(t, "dkim._domainkey.corp.com", e.DKIMHost("dkim._domainkey", "corp.com"))
}

func TestExpectorDMARC(t *testing.T) {
	e := NewExpector(testDNSConfig())

	assert.Equal(t, "_dmarc.corp.com", e.DMARCHost("corp.com"))
	assert.Equal(t, "v=DMARC1; p=quarantine; pct=100; adkim=s; aspf=s", e.DMARC().Recommended)
}

func TestRecordSetMatches(t *testing.T) {
	rs := RecordSet{Recommended: "a", Alternatives: []string{"b", "c"}}

	assert.True(t, rs.Matches("a"))
	assert.True(t, rs.Matches("b"))
	assert.True(t, rs.Matches("c"))
	assert.False(t, rs.Matches("d"))
	assert.False(t, rs.Matches(""))
}
