package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/a4tg/SDS-crm-bot/internal/usecase"
)

type BroadcastStatRepo struct {
	db *sql.DB
}

func NewBroadcastStatRepo(db *sql.DB) *BroadcastStatRepo {
	return &BroadcastStatRepo{db: db}
}

func (r *BroadcastStatRepo) Save(ctx context.Context, stat usecase.BroadcastStat) error {
	if stat.CreatedAt.IsZero() {
		stat.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO broadcast_stats(total, sent, failed, created_at) VALUES(?,?,?,?)`,
		stat.Total, stat.Sent, stat.Failed, stat.CreatedAt.UTC())
	return err
}

// ListRecent — последние n рассылок, свежие первыми; n <= 0 — десять.
func (r *BroadcastStatRepo) ListRecent(ctx context.Context, n int) ([]usecase.BroadcastStat, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT total, sent, failed, created_at FROM broadcast_stats ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]usecase.BroadcastStat, 0, n)
	for rows.Next() {
		var s usecase.BroadcastStat
		if err := rows.Scan(&s.Total, &s.Sent, &s.Failed, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
