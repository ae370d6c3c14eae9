package domain

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
)

type Role string

const (
	RoleUnknown       Role = ""
	RoleProjectHead   Role = "project_head"
	RoleTeamLeader    Role = "team_leader"
	RoleRegionManager Role = "region_manager"
	RoleJuniorManager Role = "junior_manager"
)

// Кому какая роль может ставить задачи. Отсутствующая роль — пустой набор.
var assignmentPolicy = map[Role][]Role{
	RoleProjectHead:   {RoleTeamLeader},
	RoleTeamLeader:    {RoleRegionManager},
	RoleRegionManager: {RoleJuniorManager},
	RoleJuniorManager: {},
}

// EligibleAssigneeRoles возвращает роли, которым requester может назначать задачи.
func EligibleAssigneeRoles(requester Role) []Role {
	roles := assignmentPolicy[requester]
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// Profile ведётся снаружи (таблица profiles), бот только читает.
type Profile struct {
	TelegramID int64
	FullName   string
	Role       Role
}

type ProfileRepository interface {
	FindProfile(ctx context.Context, telegramID int64) (*Profile, error)
	FindProfilesByRoles(ctx context.Context, roles []Role) ([]Profile, error)
	// FindProfilesByName ищет точное совпадение full_name без учёта регистра.
	FindProfilesByName(ctx context.Context, name string) ([]Profile, error)
}

// SameName сравнивает имена без учёта регистра (в т.ч. кириллицу) и крайних пробелов.
func SameName(a, b string) bool {
	// Caser хранит состояние, поэтому не разделяем его между горутинами.
	c := cases.Fold()
	return c.String(strings.TrimSpace(a)) == c.String(strings.TrimSpace(b))
}
