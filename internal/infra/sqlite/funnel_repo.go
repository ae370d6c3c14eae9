package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/a4tg/SDS-crm-bot/internal/usecase"
)

type FunnelRepo struct {
	db *sql.DB
}

func NewFunnelRepo(db *sql.DB) *FunnelRepo {
	return &FunnelRepo{db: db}
}

// Hit хранит первую отметку чата на шаге; повторные игнорируются.
func (r *FunnelRepo) Hit(ctx context.Context, step usecase.Step, chatID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO funnel_hits(chat_id, step, created_at) VALUES(?,?,?) ON CONFLICT(chat_id, step) DO NOTHING`,
		chatID, string(step), time.Now().UTC())
	return err
}

func (r *FunnelRepo) Counts(ctx context.Context) (map[usecase.Step]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT step, COUNT(*) FROM funnel_hits GROUP BY step`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[usecase.Step]int{}
	for rows.Next() {
		var (
			step string
			cnt  int
		)
		if err := rows.Scan(&step, &cnt); err != nil {
			return nil, err
		}
		out[usecase.Step(step)] = cnt
	}
	return out, rows.Err()
}
