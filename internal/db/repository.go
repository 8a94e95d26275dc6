package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Repository struct {
	db *sqlx.DB
}

func NewConnection(databaseURL string, maxConns, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Users

func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	query := `
        INSERT INTO users (id, email, password_hash, created_at)
        VALUES (:id, :email, :password_hash, :created_at)`

	_, err := r.db.NamedExecContext(ctx, query, user)
	return err
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, email)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Domains

func (r *Repository) CreateDomain(ctx context.Context, domain *Domain) error {
	query := `
        INSERT INTO domains (id, user_id, name, ownership_txt_token, created_at, updated_at)
        VALUES (:id, :user_id, :name, :ownership_txt_token, :created_at, :updated_at)`

	_, err := r.db.NamedExecContext(ctx, query, domain)
	return err
}

func (r *Repository) GetDomain(ctx context.Context, id, userID uuid.UUID) (*Domain, error) {
	var domain Domain
	err := r.db.GetContext(ctx, &domain,
		`SELECT * FROM domains WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, err
	}
	return &domain, nil
}

func (r *Repository) ListDomains(ctx context.Context, userID uuid.UUID) ([]*Domain, error) {
	domains := []*Domain{}
	err := r.db.SelectContext(ctx, &domains,
		`SELECT * FROM domains WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	return domains, nil
}

func (r *Repository) DomainExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM domains WHERE name = $1)`, name)
	return exists, err
}

func (r *Repository) DeleteDomain(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM domains WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

// SetOwnershipToken stores a freshly generated ownership TXT token.
func (r *Repository) SetOwnershipToken(ctx context.Context, id uuid.UUID, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE domains SET ownership_txt_token = $2, updated_at = NOW() WHERE id = $1`,
		id, token)
	return err
}

// MarkVerified sets a single category flag true. Flags are never set false
// here; a failing re-check surfaces a warning instead of clearing the flag.
func (r *Repository) MarkVerified(ctx context.Context, id uuid.UUID, category string) error {
	column, err := flagColumn(category)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		`UPDATE domains SET %s = TRUE, updated_at = NOW() WHERE id = $1`, column)
	_, err = r.db.ExecContext(ctx, query, id)
	return err
}

func flagColumn(category string) (string, error) {
	switch category {
	case "ownership":
		return "ownership_verified", nil
	case "mx":
		return "mx_verified", nil
	case "spf":
		return "spf_verified", nil
	case "dkim":
		return "dkim_verified", nil
	case "dmarc":
		return "dmarc_verified", nil
	}
	return "", fmt.Errorf("unknown verification category %q", category)
}

// IncrementFailedChecks bumps the consecutive failure counter and returns
// the new value.
func (r *Repository) IncrementFailedChecks(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
        UPDATE domains
        SET nb_failed_checks = nb_failed_checks + 1, updated_at = NOW()
        WHERE id = $1
        RETURNING nb_failed_checks`, id)
	return count, err
}

func (r *Repository) ResetFailedChecks(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE domains
        SET nb_failed_checks = 0, updated_at = NOW()
        WHERE id = $1 AND nb_failed_checks != 0`, id)
	return err
}

// ListVerifiedDomains returns domains eligible for the periodic re-check:
// ownership and MX both verified.
func (r *Repository) ListVerifiedDomains(ctx context.Context) ([]*Domain, error) {
	domains := []*Domain{}
	err := r.db.SelectContext(ctx, &domains, `
        SELECT * FROM domains
        WHERE ownership_verified AND mx_verified
        ORDER BY updated_at`)
	if err != nil {
		return nil, err
	}
	return domains, nil
}

// Verification events

func (r *Repository) SaveEvent(ctx context.Context, event *VerificationEvent) error {
	query := `
        INSERT INTO verification_events (id, domain_id, category, ok, regressed, detail, checked_at)
        VALUES (:id, :domain_id, :category, :ok, :regressed, :detail, :checked_at)`

	_, err := r.db.NamedExecContext(ctx, query, event)
	return err
}

func (r *Repository) ListEvents(ctx context.Context, domainID uuid.UUID, limit int) ([]*VerificationEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	events := []*VerificationEvent{}
	err := r.db.SelectContext(ctx, &events, `
        SELECT * FROM verification_events
        WHERE domain_id = $1
        ORDER BY checked_at DESC
        LIMIT $2`, domainID, limit)
	if err != nil {
		return nil, err
	}
	return events, nil
}
