package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/newsletter-engine/internal/domain"
	"github.com/ignite/newsletter-engine/internal/service/campaign"
)

const campaignColumns = `id, slug, title, newsletter_id, segment_ids, recipient_ids,
	       publish, publish_date, send_plain, send_html, use_template,
	       prepared, sending, sent, created_at, updated_at`

// CampaignRepo implements campaign.Repository and the submission engine's
// campaign store against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row rowScanner) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	err := row.Scan(
		&c.ID, &c.Slug, &c.Title, &c.NewsletterID,
		pq.Array(&c.SegmentIDs), pq.Array(&c.RecipientIDs),
		&c.Publish, &c.PublishDate, &c.SendPlain, &c.SendHTML, &c.UseTemplate,
		&c.Prepared, &c.Sending, &c.Sent, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) GetBySlug(ctx context.Context, slug string) (*domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE slug = $1
	`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign by slug: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) List(ctx context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := " WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if f.Prepared != nil {
		where += fmt.Sprintf(" AND prepared = $%d", idx)
		args = append(args, *f.Prepared)
		idx++
	}
	if f.Sent != nil {
		where += fmt.Sprintf(" AND sent = $%d", idx)
		args = append(args, *f.Sent)
		idx++
	}
	if f.Search != "" {
		where += fmt.Sprintf(" AND title ILIKE $%d", idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM campaigns"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	q := "SELECT " + campaignColumns + " FROM campaigns" + where +
		fmt.Sprintf(" ORDER BY publish_date DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaigns
			(id, slug, title, newsletter_id, segment_ids, recipient_ids,
			 publish, publish_date, send_plain, send_html, use_template,
			 prepared, sending, sent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
		        false, false, false, NOW(), NOW())
	`, c.ID, c.Slug, c.Title, c.NewsletterID,
		pq.Array(c.SegmentIDs), pq.Array(c.RecipientIDs),
		c.Publish, c.PublishDate, c.SendPlain, c.SendHTML, c.UseTemplate)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepo) Update(ctx context.Context, c *domain.Campaign) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET title = $2, segment_ids = $3, recipient_ids = $4,
		    publish = $5, publish_date = $6,
		    send_plain = $7, send_html = $8, use_template = $9,
		    updated_at = NOW()
		WHERE id = $1
	`, c.ID, c.Title, pq.Array(c.SegmentIDs), pq.Array(c.RecipientIDs),
		c.Publish, c.PublishDate, c.SendPlain, c.SendHTML, c.UseTemplate)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	return requireRow(res, campaign.ErrNotFound)
}

func (r *CampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	return requireRow(res, campaign.ErrNotFound)
}

func (r *CampaignRepo) PublishedByNewsletter(ctx context.Context, newsletterID uuid.UUID) (*domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE newsletter_id = $1 AND publish
		LIMIT 1
	`, newsletterID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("published campaign by newsletter: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) SetPrepared(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET prepared = true, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("set prepared: %w", err)
	}
	return requireRow(res, campaign.ErrNotFound)
}

// Due returns campaigns eligible for submission, oldest publish date first.
func (r *CampaignRepo) Due(ctx context.Context, now time.Time) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE prepared AND NOT sent AND NOT sending AND publish_date < $1
		ORDER BY publish_date ASC
	`, now)
	if err != nil {
		return nil, fmt.Errorf("due campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// ClaimSending flips sending on only when the campaign is neither sending
// nor sent. The WHERE clause makes the claim a compare-and-set; a
// concurrent claimer sees zero rows affected.
func (r *CampaignRepo) ClaimSending(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET sending = true, updated_at = NOW()
		WHERE id = $1 AND NOT sending AND NOT sent
	`, id)
	if err != nil {
		return false, fmt.Errorf("claim sending: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim sending rows: %w", err)
	}
	return n == 1, nil
}

func (r *CampaignRepo) ReleaseSending(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET sending = false, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("release sending: %w", err)
	}
	return nil
}

func (r *CampaignRepo) MarkSent(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET sent = true, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return requireRow(res, campaign.ErrNotFound)
}

func (r *CampaignRepo) SaveRecipientCache(ctx context.Context, id uuid.UUID, recipientIDs []uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET recipient_ids = $2, updated_at = NOW() WHERE id = $1
	`, id, pq.Array(recipientIDs))
	if err != nil {
		return fmt.Errorf("save recipient cache: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
