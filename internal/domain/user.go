package domain

import "context"

// User — сотрудник, хотя бы раз написавший боту. Создаётся при /start и больше не меняется.
type User struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

type UserRepository interface {
	FindUser(ctx context.Context, telegramID int64) (*User, error)
	CreateUser(ctx context.Context, u User) error
	ListUserIDs(ctx context.Context) ([]int64, error)
}
