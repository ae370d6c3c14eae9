package domain

import (
	"context"
	"time"
)

type Lead struct {
	OwnerID   int64
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
}

type LeadRepository interface {
	CreateLead(ctx context.Context, lead Lead) error
	// ListLeadsByOwner возвращает лиды по возрастанию CreatedAt.
	ListLeadsByOwner(ctx context.Context, ownerID int64) ([]Lead, error)
}
