package domaininfo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawWhoisResponse = `Domain Name: CORP.COM
Registry Domain ID: 123456789_DOMAIN_COM-VRSN
Registrar WHOIS Server: whois.example-registrar.com
Registrar URL: http://www.example-registrar.com
Updated Date: 2024-08-01T04:00:00Z
Creation Date: 1995-08-14T04:00:00Z
Registry Expiry Date: 2030-08-13T04:00:00Z
Registrar: Example Registrar, Inc.
Registrar IANA ID: 9999
Domain Status: clientTransferProhibited https://icann.org/epp#clientTransferProhibited
Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
Name Server: NS1.CORP.COM
Name Server: NS2.CORP.COM
DNSSEC: unsigned
`

func TestParseDetails(t *testing.T) {
	details, err := parseDetails(rawWhoisResponse)
	require.NoError(t, err)

	assert.Equal(t, "Example Registrar, Inc.", details.Registrar)
	assert.Contains(t, details.Status, "clienttransferprohibited")

	require.NotNil(t, details.CreatedDate)
	assert.Equal(t, 1995, details.CreatedDate.Year())

	require.NotNil(t, details.ExpiryDate)
	assert.Equal(t, 2030, details.ExpiryDate.Year())
	assert.Positive(t, details.DaysToExpiry)
	assert.False(t, details.ExpiringSoon)
}

func TestParseDetailsInvalid(t *testing.T) {
	_, err := parseDetails("No match for domain")
	assert.Error(t, err)
}

func TestParseWhoisDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2030-08-13T04:00:00Z", time.Date(2030, 8, 13, 4, 0, 0, 0, time.UTC)},
		{"2030-08-13 04:00:00", time.Date(2030, 8, 13, 4, 0, 0, 0, time.UTC)},
		{"13-Aug-2030", time.Date(2030, 8, 13, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := parseWhoisDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := parseWhoisDate("next tuesday")
	assert.Error(t, err)
}
