package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inboxkit/domainverify/internal/config"
	"github.com/inboxkit/domainverify/internal/db"
	"github.com/inboxkit/domainverify/internal/dnscheck"
)

// fakeStore implements both the scheduler's Store and the verifier's store
// so one fixture backs the whole re-check path.
type fakeStore struct {
	mu       sync.Mutex
	domains  []*db.Domain
	counts   map[uuid.UUID]int
	resets   int
	verified []string
	events   []*db.VerificationEvent
}

func newFakeStore(domains ...*db.Domain) *fakeStore {
	return &fakeStore{domains: domains, counts: make(map[uuid.UUID]int)}
}

func (s *fakeStore) ListVerifiedDomains(ctx context.Context) ([]*db.Domain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domains, nil
}

func (s *fakeStore) IncrementFailedChecks(ctx context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[id]++
	return s.counts[id], nil
}

func (s *fakeStore) ResetFailedChecks(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[id] = 0
	s.resets++
	return nil
}

func (s *fakeStore) MarkVerified(ctx context.Context, id uuid.UUID, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified = append(s.verified, category)
	return nil
}

func (s *fakeStore) SaveEvent(ctx context.Context, event *db.VerificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *fakeStore) alertEvents() []*db.VerificationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var alerts []*db.VerificationEvent
	for _, e := range s.events {
		if e.Detail == "repeated re-check failures, operator alerted" {
			alerts = append(alerts, e)
		}
	}
	return alerts
}

func testDNSConfig() config.DNSConfig {
	return config.DNSConfig{
		EmailDomain:        "mail.example.net",
		VerificationPrefix: "iv",
		MXTiers: []config.MXTier{
			{Priority: 10, Host: "mx1.mail.example.net"},
			{Priority: 20, Host: "mx2.mail.example.net"},
		},
		DKIMPrefixes: []string{"dkim._domainkey"},
		DMARCRecord:  "v=DMARC1; p=quarantine; pct=100; adkim=s; aspf=s",
	}
}

func verifiedDomain() *db.Domain {
	return &db.Domain{
		ID:                uuid.New(),
		Name:              "corp.com",
		OwnershipVerified: true,
		MXVerified:        true,
	}
}

func newTestScheduler(t *testing.T, resolver dnscheck.Resolver, store *fakeStore) *Scheduler {
	t.Helper()
	verifier := dnscheck.NewVerifier(testDNSConfig(), resolver, store, nil, zap.NewNop())
	return NewScheduler(store, verifier, nil, zap.NewNop(), config.SchedulerConfig{
		WorkerCount:    1,
		AlertThreshold: 5,
	})
}

func TestSweepSuccessResetsCounter(t *testing.T) {
	domain := verifiedDomain()
	store := newFakeStore(domain)
	store.counts[domain.ID] = 3

	resolver := dnscheck.MockResolver{
		MX: map[string][]dnscheck.MX{
			"corp.com.": {
				{Host: "mx1.mail.example.net.", Priority: 10},
				{Host: "mx2.mail.example.net.", Priority: 20},
			},
		},
	}

	s := newTestScheduler(t, resolver, store)
	s.runSweep(context.Background())

	assert.Equal(t, 0, store.counts[domain.ID])
	assert.Equal(t, 1, store.resets)
	assert.Empty(t, store.alertEvents())
}

func TestRecheckFailureIncrementsWithoutAlert(t *testing.T) {
	domain := verifiedDomain()
	store := newFakeStore(domain)

	// Zone no longer carries the MX records.
	s := newTestScheduler(t, dnscheck.MockResolver{}, store)
	s.recheckDomain(context.Background(), domain, zap.NewNop())

	assert.Equal(t, 1, store.counts[domain.ID])
	assert.Zero(t, store.resets)
	assert.Empty(t, store.alertEvents(), "a single failure must not alert")

	// The failing re-check itself is still recorded, as a regression.
	require.NotEmpty(t, store.events)
	assert.True(t, store.events[0].Regressed)
	assert.Empty(t, store.verified, "verified flag must stay untouched")
}

func TestRecheckAlertsPastThresholdAndResets(t *testing.T) {
	domain := verifiedDomain()
	store := newFakeStore(domain)
	store.counts[domain.ID] = 5

	s := newTestScheduler(t, dnscheck.MockResolver{}, store)
	s.recheckDomain(context.Background(), domain, zap.NewNop())

	alerts := store.alertEvents()
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].OK)
	assert.True(t, alerts[0].Regressed)

	// Counter reset after the alert so the operator is not re-alerted on
	// every subsequent sweep.
	assert.Equal(t, 0, store.counts[domain.ID])
	assert.Equal(t, 1, store.resets)
}

func TestRecheckBelowThresholdAccumulates(t *testing.T) {
	domain := verifiedDomain()
	store := newFakeStore(domain)

	s := newTestScheduler(t, dnscheck.MockResolver{}, store)
	for i := 0; i < 5; i++ {
		s.recheckDomain(context.Background(), domain, zap.NewNop())
	}

	assert.Equal(t, 5, store.counts[domain.ID])
	assert.Empty(t, store.alertEvents(), "alert fires only past the threshold")
}
