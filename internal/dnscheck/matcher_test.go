package dnscheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchTXT(t *testing.T) {
	expected := RecordSet{
		Recommended:  "iv-verification=token123",
		Alternatives: []string{"sl-verification=token123"},
	}

	t.Run("no records", func(t *testing.T) {
		ok, discrepancies := MatchTXT(expected, nil)
		assert.False(t, ok)
		assert.Equal(t, []string{EmptyDiscrepancy}, discrepancies)
	})

	t.Run("recommended value matches", func(t *testing.T) {
		ok, discrepancies := MatchTXT(expected, []string{"iv-verification=token123"})
		assert.True(t, ok)
		assert.Empty(t, discrepancies)
	})

	t.Run("alternative value still verifies", func(t *testing.T) {
		ok, discrepancies := MatchTXT(expected, []string{"sl-verification=token123"})
		assert.True(t, ok)
		assert.Empty(t, discrepancies)
	})

	t.Run("match among unrelated records", func(t *testing.T) {
		ok, _ := MatchTXT(expected, []string{
			"v=spf1 include:other.com ~all",
			"iv-verification=token123",
		})
		assert.True(t, ok)
	})

	t.Run("whitespace differences do not fail", func(t *testing.T) {
		ok, _ := MatchTXT(expected, []string{"  iv-verification=token123  "})
		assert.True(t, ok)
	})

	t.Run("mismatch lists every retrieved value", func(t *testing.T) {
		ok, discrepancies := MatchTXT(expected, []string{
			"iv-verification=wrong",
			"v=spf1 -all",
		})
		assert.False(t, ok)
		assert.Equal(t, []string{"iv-verification=wrong", "v=spf1 -all"}, discrepancies)
	})
}

func TestMatchMX(t *testing.T) {
	expected := map[uint16]RecordSet{
		10: {Recommended: "mx1.example.net."},
		20: {Recommended: "mx2.example.net."},
	}

	t.Run("no records", func(t *testing.T) {
		ok, discrepancies := MatchMX(expected, nil)
		assert.False(t, ok)
		assert.Equal(t, []string{EmptyDiscrepancy}, discrepancies)
	})

	t.Run("missing tier names that tier only", func(t *testing.T) {
		ok, discrepancies := MatchMX(expected, []MX{
			{Host: "mx1.example.net.", Priority: 10},
		})
		assert.False(t, ok)
		assert.Len(t, discrepancies, 1)
		assert.Contains(t, discrepancies[0], "priority 20")
	})

	t.Run("trailing dot and case differences never fail", func(t *testing.T) {
		ok, discrepancies := MatchMX(expected, []MX{
			{Host: "MX1.Example.NET", Priority: 10},
			{Host: "mx2.example.net.", Priority: 20},
		})
		assert.True(t, ok)
		assert.Empty(t, discrepancies)
	})

	t.Run("extra records at unexpected priorities are ignored", func(t *testing.T) {
		ok, _ := MatchMX(expected, []MX{
			{Host: "mx1.example.net.", Priority: 10},
			{Host: "mx2.example.net.", Priority: 20},
			{Host: "backup.elsewhere.org.", Priority: 50},
		})
		assert.True(t, ok)
	})

	t.Run("right host at wrong priority does not satisfy a tier", func(t *testing.T) {
		ok, discrepancies := MatchMX(expected, []MX{
			{Host: "mx1.example.net.", Priority: 10},
			{Host: "mx2.example.net.", Priority: 30},
		})
		assert.False(t, ok)
		assert.Len(t, discrepancies, 1)
		assert.Contains(t, discrepancies[0], "priority 20")
	})

	t.Run("alternative target accepted", func(t *testing.T) {
		withAlt := map[uint16]RecordSet{
			10: {Recommended: "mx1.example.net.", Alternatives: []string{"mx1.legacy.net."}},
			20: {Recommended: "mx2.example.net."},
		}
		ok, _ := MatchMX(withAlt, []MX{
			{Host: "mx1.legacy.net.", Priority: 10},
			{Host: "mx2.example.net.", Priority: 20},
		})
		assert.True(t, ok)
	})
}

func TestMatchDKIM(t *testing.T) {
	expected := map[string]RecordSet{
		"dkim._domainkey":   {Recommended: "dkim._domainkey.example.net."},
		"dkim02._domainkey": {Recommended: "dkim02._domainkey.example.net."},
		"dkim03._domainkey": {Recommended: "dkim03._domainkey.example.net."},
	}

	t.Run("nothing resolved", func(t *testing.T) {
		ok, retrieved := MatchDKIM(expected, nil)
		assert.False(t, ok)
		assert.Len(t, retrieved, 3)
		for prefix := range expected {
			assert.Equal(t, "not found", retrieved[prefix])
		}
	})

	t.Run("all prefixes match", func(t *testing.T) {
		ok, retrieved := MatchDKIM(expected, map[string]PrefixResult{
			"dkim._domainkey":   {Target: "dkim._domainkey.example.net"},
			"dkim02._domainkey": {Target: "DKIM02._domainkey.Example.Net."},
			"dkim03._domainkey": {Target: "dkim03._domainkey.example.net."},
		})
		assert.True(t, ok)
		assert.Len(t, retrieved, 3)
		for prefix := range expected {
			assert.Empty(t, retrieved[prefix])
		}
	})

	t.Run("one mismatch fails overall but reports all prefixes", func(t *testing.T) {
		ok, retrieved := MatchDKIM(expected, map[string]PrefixResult{
			"dkim._domainkey":   {Target: "dkim._domainkey.example.net."},
			"dkim02._domainkey": {Target: "dkim02._domainkey.wrong.org."},
			"dkim03._domainkey": {Target: "dkim03._domainkey.example.net."},
		})
		assert.False(t, ok)
		assert.Len(t, retrieved, 3)
		assert.Empty(t, retrieved["dkim._domainkey"])
		assert.Equal(t, "dkim02._domainkey.wrong.org.", retrieved["dkim02._domainkey"])
		assert.Empty(t, retrieved["dkim03._domainkey"])
	})

	t.Run("resolver error attributed to its prefix only", func(t *testing.T) {
		ok, retrieved := MatchDKIM(expected, map[string]PrefixResult{
			"dkim._domainkey":   {Target: "dkim._domainkey.example.net."},
			"dkim02._domainkey": {Status: PrefixError},
			"dkim03._domainkey": {Target: "dkim03._domainkey.example.net."},
		})
		assert.False(t, ok)
		assert.Empty(t, retrieved["dkim._domainkey"])
		assert.Contains(t, retrieved["dkim02._domainkey"], "resolver error")
		assert.Empty(t, retrieved["dkim03._domainkey"])
	})

	t.Run("legacy target accepted", func(t *testing.T) {
		withAlt := map[string]RecordSet{
			"dkim._domainkey": {
				Recommended:  "dkim._domainkey.example.net.",
				Alternatives: []string{"dkim._domainkey.legacy.net."},
			},
		}
		ok, retrieved := MatchDKIM(withAlt, map[string]PrefixResult{
			"dkim._domainkey": {Target: "dkim._domainkey.legacy.net."},
		})
		assert.True(t, ok)
		assert.Empty(t, retrieved["dkim._domainkey"])
	})
}
