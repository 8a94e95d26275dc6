package db

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Domain is a custom mail domain under verification. The five verification
// flags are independent; only explicit successful checks set them true and
// nothing but domain deletion unsets them.
type Domain struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID uuid.UUID `json:"-" db:"user_id"`
	Name   string    `json:"name" db:"name"`

	// OwnershipTxtToken is the random token bound to the domain for the
	// ownership TXT record. Generated lazily on first DNS setup view.
	OwnershipTxtToken string `json:"-" db:"ownership_txt_token"`

	OwnershipVerified bool `json:"ownership_verified" db:"ownership_verified"`
	MXVerified        bool `json:"mx_verified" db:"mx_verified"`
	SPFVerified       bool `json:"spf_verified" db:"spf_verified"`
	DKIMVerified      bool `json:"dkim_verified" db:"dkim_verified"`
	DMARCVerified     bool `json:"dmarc_verified" db:"dmarc_verified"`

	// NbFailedChecks counts consecutive failing periodic re-checks of a
	// verified domain. Reset on success or after an alert is raised.
	NbFailedChecks int `json:"nb_failed_checks" db:"nb_failed_checks"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// VerificationEvent is one recorded check outcome, written for every
// verification call and by the periodic re-check scheduler.
type VerificationEvent struct {
	ID        uuid.UUID `json:"id" db:"id"`
	DomainID  uuid.UUID `json:"domain_id" db:"domain_id"`
	Category  string    `json:"category" db:"category"`
	OK        bool      `json:"ok" db:"ok"`
	Regressed bool      `json:"regressed" db:"regressed"`
	Detail    string    `json:"detail" db:"detail"`
	CheckedAt time.Time `json:"checked_at" db:"checked_at"`
}
