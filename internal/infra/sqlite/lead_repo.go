package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

type LeadRepo struct {
	db *sql.DB
}

func NewLeadRepo(db *sql.DB) *LeadRepo {
	return &LeadRepo{db: db}
}

func (r *LeadRepo) CreateLead(ctx context.Context, lead domain.Lead) error {
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO leads(telegram_id, name, phone, email, created_at) VALUES(?,?,?,?,?)`,
		lead.OwnerID, lead.Name, lead.Phone, lead.Email, lead.CreatedAt.UTC())
	return err
}

func (r *LeadRepo) ListLeadsByOwner(ctx context.Context, ownerID int64) ([]domain.Lead, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT telegram_id, name, phone, email, created_at FROM leads WHERE telegram_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Lead
	for rows.Next() {
		var l domain.Lead
		if err := rows.Scan(&l.OwnerID, &l.Name, &l.Phone, &l.Email, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
