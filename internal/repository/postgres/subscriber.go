package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/newsletter-engine/internal/domain"
	"github.com/ignite/newsletter-engine/internal/service/subscriber"
)

const subscriberColumns = `id, email, name, confirmed, unsubscribed, unsubscribed_at,
	       token, COALESCE(city,''), COALESCE(postal_code,''), COALESCE(country,''),
	       created_at, updated_at`

// SubscriberRepo implements subscriber.Repository and the submission
// engine's directory against PostgreSQL.
type SubscriberRepo struct{ db *sql.DB }

// NewSubscriberRepo creates a Postgres-backed subscriber repository.
func NewSubscriberRepo(db *sql.DB) *SubscriberRepo { return &SubscriberRepo{db: db} }

func scanSubscriber(row rowScanner) (*domain.Subscriber, error) {
	s := &domain.Subscriber{}
	err := row.Scan(
		&s.ID, &s.Email, &s.Name, &s.Confirmed, &s.Unsubscribed, &s.UnsubscribedAt,
		&s.Token, &s.City, &s.PostalCode, &s.Country, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SubscriberRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Subscriber, error) {
	s, err := scanSubscriber(r.db.QueryRowContext(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subscriber.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	return s, nil
}

func (r *SubscriberRepo) GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	s, err := scanSubscriber(r.db.QueryRowContext(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE lower(email) = lower($1)
	`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subscriber.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber by email: %w", err)
	}
	return s, nil
}

func (r *SubscriberRepo) List(ctx context.Context, f subscriber.ListFilter) ([]domain.Subscriber, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := " WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if f.Unsubscribed != nil {
		where += fmt.Sprintf(" AND unsubscribed = $%d", idx)
		args = append(args, *f.Unsubscribed)
		idx++
	}
	if f.Search != "" {
		where += fmt.Sprintf(" AND (email ILIKE $%d OR name ILIKE $%d)", idx, idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM subscribers"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subscribers: %w", err)
	}

	q := "SELECT " + subscriberColumns + " FROM subscribers" + where +
		fmt.Sprintf(" ORDER BY email ASC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

func (r *SubscriberRepo) Create(ctx context.Context, s *domain.Subscriber) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscribers
			(id, email, name, confirmed, unsubscribed, token,
			 city, postal_code, country, created_at, updated_at)
		VALUES ($1, $2, $3, $4, false, $5, $6, $7, $8, NOW(), NOW())
	`, s.ID, s.Email, s.Name, s.Confirmed, s.Token, s.City, s.PostalCode, s.Country)
	if err != nil {
		return fmt.Errorf("create subscriber: %w", err)
	}
	return nil
}

func (r *SubscriberRepo) Update(ctx context.Context, s *domain.Subscriber) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscribers
		SET name = $2, confirmed = $3, unsubscribed = $4, unsubscribed_at = $5,
		    token = $6, city = $7, postal_code = $8, country = $9,
		    updated_at = NOW()
		WHERE id = $1
	`, s.ID, s.Name, s.Confirmed, s.Unsubscribed, s.UnsubscribedAt,
		s.Token, s.City, s.PostalCode, s.Country)
	if err != nil {
		return fmt.Errorf("update subscriber: %w", err)
	}
	return requireRow(res, subscriber.ErrNotFound)
}

// SubscribersByID returns the subscribers with the given ids, preserving
// unsubscribed rows so the submission engine can count them as skipped.
func (r *SubscriberRepo) SubscribersByID(ctx context.Context, ids []uuid.UUID) ([]domain.Subscriber, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE id = ANY($1)
		ORDER BY email ASC
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("subscribers by id: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// SegmentMembers returns the members of a segment.
func (r *SubscriberRepo) SegmentMembers(ctx context.Context, segmentID uuid.UUID) ([]domain.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE id = ANY(SELECT member_id FROM segment_members WHERE segment_id = $1)
		ORDER BY email ASC
	`, segmentID)
	if err != nil {
		return nil, fmt.Errorf("segment members: %w", err)
	}
	defer rows.Close()

	var out []domain.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("scan segment member: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// SegmentRepo implements subscriber.SegmentRepository against PostgreSQL.
type SegmentRepo struct{ db *sql.DB }

// NewSegmentRepo creates a Postgres-backed segment repository.
func NewSegmentRepo(db *sql.DB) *SegmentRepo { return &SegmentRepo{db: db} }

func (r *SegmentRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Segment, error) {
	s := &domain.Segment{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at FROM segments WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subscriber.ErrSegmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get segment: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT member_id FROM segment_members WHERE segment_id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("segment membership: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mid uuid.UUID
		if err := rows.Scan(&mid); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		s.MemberIDs = append(s.MemberIDs, mid)
	}
	return s, rows.Err()
}

func (r *SegmentRepo) List(ctx context.Context) ([]domain.Segment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at FROM segments ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var out []domain.Segment
	for rows.Next() {
		var s domain.Segment
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SegmentRepo) Create(ctx context.Context, s *domain.Segment) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO segments (id, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
	`, s.ID, s.Name)
	if err != nil {
		return fmt.Errorf("create segment: %w", err)
	}
	if len(s.MemberIDs) > 0 {
		return r.SetMembers(ctx, s.ID, s.MemberIDs)
	}
	return nil
}

func (r *SegmentRepo) SetMembers(ctx context.Context, id uuid.UUID, memberIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set members: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM segment_members WHERE segment_id = $1`, id); err != nil {
		return fmt.Errorf("clear segment members: %w", err)
	}
	for _, mid := range memberIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO segment_members (segment_id, member_id) VALUES ($1, $2)
		`, id, mid); err != nil {
			return fmt.Errorf("insert segment member: %w", err)
		}
	}
	return tx.Commit()
}
