package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) FindUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx,
		`SELECT telegram_id, username, first_name, last_name FROM users WHERE telegram_id = ?`, telegramID,
	).Scan(&u.TelegramID, &u.Username, &u.FirstName, &u.LastName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users(telegram_id, username, first_name, last_name) VALUES(?,?,?,?)`,
		u.TelegramID, u.Username, u.FirstName, u.LastName)
	return err
}

func (r *UserRepo) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT telegram_id FROM users ORDER BY telegram_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]int64, 0, 128)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
