package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/eventica/internal/rating"
)

// ReviewRepo stores durable reviews and keeps the aggregate columns on
// 'events' in step with them.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func eventExists(ctx context.Context, q queryer, id uint64) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM events WHERE id=? AND is_active=?", id, true).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEventNotFound
	}
	return err
}

// Append inserts r and recomputes the event's count and mean from the full
// review set, all in one transaction.  The unique (event_id, user_id) index
// backs the duplicate check against concurrent writers.
func (repo *ReviewRepo) Append(ctx context.Context, r rating.Review) (out rating.Review, sum rating.Summary, err error) {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return rating.Review{}, rating.Summary{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if err = eventExists(ctx, tx, r.EventID); err != nil {
		return rating.Review{}, rating.Summary{}, err
	}
	var one int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM reviews WHERE event_id=? AND user_id=?", r.EventID, r.RaterID).Scan(&one)
	switch {
	case err == nil:
		err = rating.ErrAlreadyReviewed
		return rating.Review{}, rating.Summary{}, err
	case !errors.Is(err, sql.ErrNoRows):
		return rating.Review{}, rating.Summary{}, err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO reviews (event_id, user_id, user_name, rating, comment, created_at) VALUES (?,?,?,?,?,?)",
		r.EventID, r.RaterID, r.RaterName, r.Score, r.Comment, r.CreatedAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			err = rating.ErrAlreadyReviewed
		}
		return rating.Review{}, rating.Summary{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return rating.Review{}, rating.Summary{}, err
	}
	r.ID = uint64(id)

	var total int64
	if err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(rating), 0) FROM reviews WHERE event_id=?", r.EventID).
		Scan(&sum.Count, &total); err != nil {
		return rating.Review{}, rating.Summary{}, err
	}
	if sum.Count > 0 {
		sum.Average = float64(total) / float64(sum.Count)
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE events SET average_rating=?, review_count=? WHERE id=?",
		sum.Average, sum.Count, r.EventID); err != nil {
		return rating.Review{}, rating.Summary{}, err
	}
	return r, sum, nil
}

// ListByEvent returns the reviews of an active event, oldest first.
func (repo *ReviewRepo) ListByEvent(ctx context.Context, eventID uint64) ([]rating.Review, error) {
	if err := eventExists(ctx, repo.db, eventID); err != nil {
		return nil, err
	}
	rows, err := repo.db.QueryContext(ctx,
		`SELECT id, event_id, user_id, user_name, rating, comment, created_at
		 FROM reviews WHERE event_id=? ORDER BY created_at ASC, id ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []rating.Review{}
	for rows.Next() {
		var r rating.Review
		if err := rows.Scan(&r.ID, &r.EventID, &r.RaterID, &r.RaterName, &r.Score, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
