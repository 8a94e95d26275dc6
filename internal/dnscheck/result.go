package dnscheck

import "fmt"

// Category identifies one of the independent DNS verification checks a
// custom domain must pass before the platform sends and receives mail for it.
type Category string

const (
	CategoryOwnership Category = "ownership"
	CategoryMX        Category = "mx"
	CategorySPF       Category = "spf"
	CategoryDKIM      Category = "dkim"
	CategoryDMARC     Category = "dmarc"
)

// Categories lists every verification category in display order.
var Categories = []Category{CategoryOwnership, CategoryMX, CategorySPF, CategoryDKIM, CategoryDMARC}

// ParseCategory maps a caller-supplied category name to a Category.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryOwnership, CategoryMX, CategorySPF, CategoryDKIM, CategoryDMARC:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown verification category %q", s)
}

// EmptyDiscrepancy is reported when the zone holds no records of the
// checked type at all.
const EmptyDiscrepancy = "(empty)"

// OwnershipRequiredDiscrepancy is reported when a dependent category is
// checked before domain ownership has been verified.
const OwnershipRequiredDiscrepancy = "domain ownership must be verified first"

// Flags is the set of persisted per-category verification flags of a domain.
type Flags struct {
	Ownership bool `json:"ownership_verified"`
	MX        bool `json:"mx_verified"`
	SPF       bool `json:"spf_verified"`
	DKIM      bool `json:"dkim_verified"`
	DMARC     bool `json:"dmarc_verified"`
}

// Get returns the flag value for a category.
func (f Flags) Get(c Category) bool {
	switch c {
	case CategoryOwnership:
		return f.Ownership
	case CategoryMX:
		return f.MX
	case CategorySPF:
		return f.SPF
	case CategoryDKIM:
		return f.DKIM
	case CategoryDMARC:
		return f.DMARC
	}
	return false
}

// Set sets the flag value for a category.
func (f *Flags) Set(c Category, v bool) {
	switch c {
	case CategoryOwnership:
		f.Ownership = v
	case CategoryMX:
		f.MX = v
	case CategorySPF:
		f.SPF = v
	case CategoryDKIM:
		f.DKIM = v
	case CategoryDMARC:
		f.DMARC = v
	}
}

// Result is the outcome of one verification check. Every failure mode is
// folded into OK=false plus explanatory entries; a Result never carries an
// internal fault.
type Result struct {
	Category Category `json:"category"`
	OK       bool     `json:"ok"`

	// Errors lists the discrepancies for ownership, MX, SPF and DMARC
	// checks, in a stable order.
	Errors []string `json:"errors,omitempty"`

	// PrefixErrors maps every expected DKIM prefix to its retrieved value
	// ("" when the prefix matched, "not found" when absent). Only set for
	// the DKIM category.
	PrefixErrors map[string]string `json:"prefix_errors,omitempty"`

	// Regressed is true when a previously verified category now fails.
	// The persisted flag is kept; the caller surfaces a warning instead.
	Regressed bool `json:"regressed"`

	// Flags is the domain's flag set after this check was persisted.
	Flags Flags `json:"flags"`
}
