package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Upsert заводит или обновляет профиль; используется командой `profile set`.
func (r *ProfileRepo) Upsert(ctx context.Context, p domain.Profile) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO profiles(telegram_id, full_name, role) VALUES(?,?,?)
ON CONFLICT(telegram_id) DO UPDATE SET full_name = excluded.full_name, role = excluded.role`,
		p.TelegramID, p.FullName, string(p.Role))
	return err
}

func (r *ProfileRepo) FindProfile(ctx context.Context, telegramID int64) (*domain.Profile, error) {
	var (
		p    domain.Profile
		role string
	)
	err := r.db.QueryRowContext(ctx, `SELECT telegram_id, full_name, role FROM profiles WHERE telegram_id = ?`, telegramID).
		Scan(&p.TelegramID, &p.FullName, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Role = domain.Role(role)
	return &p, nil
}

func (r *ProfileRepo) FindProfilesByRoles(ctx context.Context, roles []domain.Role) ([]domain.Profile, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(roles))
	for _, role := range roles {
		args = append(args, string(role))
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(roles)), ",")
	return r.query(ctx, `SELECT telegram_id, full_name, role FROM profiles WHERE role IN (`+marks+`) ORDER BY telegram_id`, args...)
}

// FindProfilesByName сравнивает имена в Go: lower() в sqlite не знает кириллицы.
func (r *ProfileRepo) FindProfilesByName(ctx context.Context, name string) ([]domain.Profile, error) {
	all, err := r.query(ctx, `SELECT telegram_id, full_name, role FROM profiles ORDER BY telegram_id`)
	if err != nil {
		return nil, err
	}
	var out []domain.Profile
	for _, p := range all {
		if domain.SameName(p.FullName, name) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProfileRepo) query(ctx context.Context, q string, args ...any) ([]domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Profile
	for rows.Next() {
		var (
			p    domain.Profile
			role string
		)
		if err := rows.Scan(&p.TelegramID, &p.FullName, &role); err != nil {
			return nil, err
		}
		p.Role = domain.Role(role)
		out = append(out, p)
	}
	return out, rows.Err()
}
