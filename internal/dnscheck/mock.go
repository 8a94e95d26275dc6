package dnscheck

import (
	"context"
	"slices"
	"strings"
)

// MockResolver is a Resolver used for testing.
// Set DNS records in the fields, which map FQDNs (with trailing dot) to
// raw answer values.
type MockResolver struct {
	TXT   map[string][]string
	MX    map[string][]MX
	CNAME map[string]string

	// Fail contains lookups that return a transient resolver error.
	// Format: "type name", e.g. "txt example.com." where type is lowercase.
	Fail []string
}

var _ Resolver = MockResolver{}

func mockKey(qtype, name string) string {
	if !strings.HasSuffix(name, ".") {
		name += "."
	}
	return qtype + " " + name
}

func (r MockResolver) check(ctx context.Context, qtype, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if slices.Contains(r.Fail, mockKey(qtype, name)) {
		return ErrServFail
	}
	return nil
}

func (r MockResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	if err := r.check(ctx, "txt", name); err != nil {
		return nil, err
	}
	records := r.TXT[strings.TrimSuffix(name, ".")+"."]
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

func (r MockResolver) LookupMX(ctx context.Context, name string) ([]MX, error) {
	if err := r.check(ctx, "mx", name); err != nil {
		return nil, err
	}
	records := r.MX[strings.TrimSuffix(name, ".")+"."]
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

func (r MockResolver) LookupCNAME(ctx context.Context, name string) (string, error) {
	if err := r.check(ctx, "cname", name); err != nil {
		return "", err
	}
	target, ok := r.CNAME[strings.TrimSuffix(name, ".")+"."]
	if !ok {
		return "", ErrNotFound
	}
	return target, nil
}
