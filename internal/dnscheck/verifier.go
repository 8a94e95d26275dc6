package dnscheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	mdns "github.com/miekg/dns"
	"go.uber.org/zap"

	"github.com/inboxkit/domainverify/internal/config"
	"github.com/inboxkit/domainverify/internal/db"
	"github.com/inboxkit/domainverify/internal/metrics"
)

// ErrInvalidDomain is returned before any DNS call when the domain name is
// malformed. It is the only failure the engine does not fold into a Result.
var ErrInvalidDomain = errors.New("dnscheck: invalid domain name")

// Store persists verification outcomes. Flags only ever move from false to
// true through MarkVerified; nothing in the engine clears a flag.
type Store interface {
	MarkVerified(ctx context.Context, id uuid.UUID, category string) error
	SaveEvent(ctx context.Context, event *db.VerificationEvent) error
}

// Verifier is the per-category verification entry point: it derives the
// expected records, resolves the live ones, matches them and persists the
// verdict.
type Verifier struct {
	cfg      config.DNSConfig
	expector *Expector
	resolver Resolver
	store    Store
	metrics  *metrics.Collector
	logger   *zap.Logger
}

func NewVerifier(cfg config.DNSConfig, resolver Resolver, store Store, collector *metrics.Collector, logger *zap.Logger) *Verifier {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 5
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = 30 * time.Second
	}

	return &Verifier{
		cfg:      cfg,
		expector: NewExpector(cfg),
		resolver: resolver,
		store:    store,
		metrics:  collector,
		logger:   logger,
	}
}

// Expector exposes the expected record sets for display to the operator.
func (v *Verifier) Expector() *Expector {
	return v.expector
}

// Verify runs one category check for a domain. DNS failures, mismatches and
// the ownership gate all fold into the returned Result; an error is returned
// only for malformed input, caller cancellation or a persistence fault.
func (v *Verifier) Verify(ctx context.Context, domain *db.Domain, category Category) (*Result, error) {
	if _, ok := mdns.IsDomainName(domain.Name); !ok || !strings.Contains(domain.Name, ".") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, domain.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, v.cfg.CheckTimeout)
	defer cancel()

	flags := domainFlags(domain)
	result := &Result{Category: category, Flags: flags}

	// Dependent checks are gated on ownership: they may be requested, but
	// are answered without touching DNS or persisting anything.
	if category != CategoryOwnership && !flags.Ownership {
		result.Errors = []string{OwnershipRequiredDiscrepancy}
		return result, nil
	}

	start := time.Now()

	switch category {
	case CategoryOwnership:
		if domain.OwnershipTxtToken == "" {
			return nil, fmt.Errorf("domain %s has no ownership token", domain.Name)
		}
		result.OK, result.Errors = v.checkTXT(ctx, domain.Name, v.expector.OwnershipTXT(domain.OwnershipTxtToken))
	case CategoryMX:
		result.OK, result.Errors = v.checkMX(ctx, domain.Name)
	case CategorySPF:
		result.OK, result.Errors = v.checkTXT(ctx, domain.Name, v.expector.SPF())
	case CategoryDKIM:
		result.OK, result.PrefixErrors = v.checkDKIM(ctx, domain.Name)
	case CategoryDMARC:
		result.OK, result.Errors = v.checkTXT(ctx, v.expector.DMARCHost(domain.Name), v.expector.DMARC())
	default:
		return nil, fmt.Errorf("unknown verification category %q", category)
	}

	// Abandoned requests must not persist partial results.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	previouslyVerified := flags.Get(category)

	if result.OK && !previouslyVerified {
		if err := v.store.MarkVerified(ctx, domain.ID, string(category)); err != nil {
			return nil, fmt.Errorf("persist %s flag: %w", category, err)
		}
		flags.Set(category, true)
	}

	if !result.OK && previouslyVerified {
		result.Regressed = true
		if v.metrics != nil {
			v.metrics.RecordRegression(string(category))
		}
		v.logger.Warn("verified category failed re-check",
			zap.String("domain", domain.Name),
			zap.String("category", string(category)),
		)
	}

	result.Flags = flags

	event := &db.VerificationEvent{
		ID:        uuid.New(),
		DomainID:  domain.ID,
		Category:  string(category),
		OK:        result.OK,
		Regressed: result.Regressed,
		Detail:    result.detail(),
		CheckedAt: time.Now(),
	}
	if err := v.store.SaveEvent(ctx, event); err != nil {
		v.logger.Warn("failed to record verification event",
			zap.Error(err),
			zap.String("domain", domain.Name),
		)
	}

	if v.metrics != nil {
		v.metrics.RecordCheck(string(category), result.OK, time.Since(start))
	}

	return result, nil
}

// checkTXT covers the single-TXT categories: ownership, SPF and DMARC.
func (v *Verifier) checkTXT(ctx context.Context, host string, expected RecordSet) (bool, []string) {
	records, err := v.resolver.LookupTXT(ctx, host)
	if err != nil && !errors.Is(err, ErrNotFound) {
		v.recordResolverError("txt", host, err)
		return false, []string{resolverErrorDiscrepancy(host)}
	}
	return MatchTXT(expected, records)
}

func (v *Verifier) checkMX(ctx context.Context, domain string) (bool, []string) {
	records, err := v.resolver.LookupMX(ctx, domain)
	if err != nil && !errors.Is(err, ErrNotFound) {
		v.recordResolverError("mx", domain, err)
		return false, []string{resolverErrorDiscrepancy(domain)}
	}
	return MatchMX(v.expector.MXTiers(), records)
}

// checkDKIM fans the independent per-prefix CNAME lookups out under a
// bounded worker cap. One prefix failing to resolve never aborts the others.
func (v *Verifier) checkDKIM(ctx context.Context, domain string) (bool, map[string]string) {
	prefixes := v.expector.DKIMPrefixes()
	expected := make(map[string]RecordSet, len(prefixes))
	resolved := make(map[string]PrefixResult, len(prefixes))

	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, v.cfg.MaxParallel)

	for _, prefix := range prefixes {
		expected[prefix] = v.expector.DKIMTarget(prefix)

		wg.Add(1)
		go func(prefix string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			host := v.expector.DKIMHost(prefix, domain)
			target, err := v.resolver.LookupCNAME(ctx, host)

			var pr PrefixResult
			switch {
			case errors.Is(err, ErrNotFound):
				pr.Status = PrefixNotFound
			case err != nil:
				pr.Status = PrefixError
				v.recordResolverError("cname", host, err)
			default:
				pr.Target = target
			}

			mu.Lock()
			resolved[prefix] = pr
			mu.Unlock()
		}(prefix)
	}

	wg.Wait()

	return MatchDKIM(expected, resolved)
}

func (v *Verifier) recordResolverError(recordType, host string, err error) {
	// A caller abandoning the request is not a resolver fault.
	if errors.Is(err, context.Canceled) {
		return
	}
	if v.metrics != nil {
		v.metrics.RecordResolverError(recordType)
	}
	v.logger.Warn("dns lookup failed",
		zap.String("record_type", recordType),
		zap.String("host", host),
		zap.Error(err),
	)
}

func resolverErrorDiscrepancy(host string) string {
	return fmt.Sprintf("could not resolve %s, please retry", host)
}

func domainFlags(d *db.Domain) Flags {
	return Flags{
		Ownership: d.OwnershipVerified,
		MX:        d.MXVerified,
		SPF:       d.SPFVerified,
		DKIM:      d.DKIMVerified,
		DMARC:     d.DMARCVerified,
	}
}

// detail flattens a result's discrepancies for the audit trail.
func (r *Result) detail() string {
	if r.OK {
		return ""
	}
	if r.Category == CategoryDKIM {
		parts := make([]string, 0, len(r.PrefixErrors))
		for prefix, value := range r.PrefixErrors {
			if value != "" {
				parts = append(parts, prefix+": "+value)
			}
		}
		return strings.Join(parts, "; ")
	}
	return strings.Join(r.Errors, "; ")
}
