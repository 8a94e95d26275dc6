package domaininfo

import (
	"fmt"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
)

// RegistrationDetails is the registrar-side view of a custom domain, shown
// next to its DNS setup so the operator can spot an expiring registration.
type RegistrationDetails struct {
	Registrar    string     `json:"registrar"`
	Status       []string   `json:"status"`
	CreatedDate  *time.Time `json:"created_date,omitempty"`
	UpdatedDate  *time.Time `json:"updated_date,omitempty"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	DaysToExpiry int        `json:"days_to_expiry"`
	ExpiringSoon bool       `json:"expiring_soon"`
}

type WHOISChecker struct{}

func NewWHOISChecker() *WHOISChecker {
	return &WHOISChecker{}
}

func (w *WHOISChecker) Check(domain string) (*RegistrationDetails, error) {
	raw, err := whois.Whois(domain)
	if err != nil {
		return nil, fmt.Errorf("whois lookup failed: %w", err)
	}
	return parseDetails(raw)
}

func parseDetails(raw string) (*RegistrationDetails, error) {
	result, err := whoisparser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("whois parse failed: %w", err)
	}

	details := &RegistrationDetails{
		Registrar: result.Registrar.Name,
		Status:    result.Domain.Status,
	}

	if result.Domain.CreatedDate != "" {
		if t, err := parseWhoisDate(result.Domain.CreatedDate); err == nil {
			details.CreatedDate = &t
		}
	}

	if result.Domain.UpdatedDate != "" {
		if t, err := parseWhoisDate(result.Domain.UpdatedDate); err == nil {
			details.UpdatedDate = &t
		}
	}

	if result.Domain.ExpirationDate != "" {
		if t, err := parseWhoisDate(result.Domain.ExpirationDate); err == nil {
			details.ExpiryDate = &t
			details.DaysToExpiry = int(time.Until(t).Hours() / 24)
			details.ExpiringSoon = details.DaysToExpiry > 0 && details.DaysToExpiry < 60
		}
	}

	return details, nil
}

func parseWhoisDate(dateStr string) (time.Time, error) {
	// Try common WHOIS date formats
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"02-Jan-2006",
		"2006.01.02 15:04:05",
		"2006/01/02",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
