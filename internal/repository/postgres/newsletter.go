package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/newsletter-engine/internal/domain"
)

// ErrNewsletterNotFound is returned when a newsletter id has no row.
var ErrNewsletterNotFound = errors.New("newsletter not found")

// NewsletterRepo stores newsletters and campaign attachments. It also
// serves as the submission engine's content store.
type NewsletterRepo struct{ db *sql.DB }

// NewNewsletterRepo creates a Postgres-backed newsletter repository.
func NewNewsletterRepo(db *sql.DB) *NewsletterRepo { return &NewsletterRepo{db: db} }

func (r *NewsletterRepo) NewsletterByID(ctx context.Context, id uuid.UUID) (*domain.Newsletter, error) {
	n := &domain.Newsletter{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, subject, content, created_at, updated_at
		FROM newsletters
		WHERE id = $1
	`, id).Scan(&n.ID, &n.Subject, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNewsletterNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get newsletter: %w", err)
	}
	return n, nil
}

func (r *NewsletterRepo) List(ctx context.Context) ([]domain.Newsletter, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, subject, content, created_at, updated_at
		FROM newsletters
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list newsletters: %w", err)
	}
	defer rows.Close()

	var out []domain.Newsletter
	for rows.Next() {
		var n domain.Newsletter
		if err := rows.Scan(&n.ID, &n.Subject, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan newsletter: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NewsletterRepo) Create(ctx context.Context, n *domain.Newsletter) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO newsletters (id, subject, content, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`, n.ID, n.Subject, n.Content)
	if err != nil {
		return fmt.Errorf("create newsletter: %w", err)
	}
	return nil
}

func (r *NewsletterRepo) Update(ctx context.Context, n *domain.Newsletter) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE newsletters SET subject = $2, content = $3, updated_at = NOW()
		WHERE id = $1
	`, n.ID, n.Subject, n.Content)
	if err != nil {
		return fmt.Errorf("update newsletter: %w", err)
	}
	return requireRow(res, ErrNewsletterNotFound)
}

func (r *NewsletterRepo) AttachmentsByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.Attachment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_id, file_name, path, created_at
		FROM attachments
		WHERE campaign_id = $1
		ORDER BY file_name ASC
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("attachments by campaign: %w", err)
	}
	defer rows.Close()

	var out []domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.ID, &a.CampaignID, &a.FileName, &a.Path, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *NewsletterRepo) AddAttachment(ctx context.Context, a *domain.Attachment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attachments (id, campaign_id, file_name, path, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, a.ID, a.CampaignID, a.FileName, a.Path)
	if err != nil {
		return fmt.Errorf("add attachment: %w", err)
	}
	return nil
}
