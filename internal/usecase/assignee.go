package usecase

import (
	"context"
	"strconv"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
	"github.com/a4tg/SDS-crm-bot/pkg/logger"
)

type AssigneeOption struct {
	ID    int64
	Label string
	Self  bool
}

// AssigneeResolver подбирает исполнителей по роли постановщика.
type AssigneeResolver struct {
	profiles domain.ProfileRepository
	log      *logger.Logger
}

func NewAssigneeResolver(profiles domain.ProfileRepository, log *logger.Logger) *AssigneeResolver {
	return &AssigneeResolver{profiles: profiles, log: log}
}

// requesterRole: нет профиля или ошибка чтения — роль неизвестна, то есть
// назначать можно только себе. Ошибка при этом не пробрасывается.
func (r *AssigneeResolver) requesterRole(ctx context.Context, requester int64) domain.Role {
	p, err := r.profiles.FindProfile(ctx, requester)
	if err != nil {
		r.log.Warn().Err(err).Int64("user_id", requester).Msg("profile lookup failed, falling back to self-only")
		return domain.RoleUnknown
	}
	if p == nil {
		return domain.RoleUnknown
	}
	return p.Role
}

// Propose возвращает варианты исполнителя; первым всегда идёт «назначить себе».
func (r *AssigneeResolver) Propose(ctx context.Context, requester int64) []AssigneeOption {
	out := []AssigneeOption{{ID: requester, Label: textAssignSelf, Self: true}}

	roles := domain.EligibleAssigneeRoles(r.requesterRole(ctx, requester))
	if len(roles) == 0 {
		return out
	}
	candidates, err := r.profiles.FindProfilesByRoles(ctx, roles)
	if err != nil {
		r.log.Warn().Err(err).Int64("user_id", requester).Msg("assignee candidates lookup failed")
		return out
	}
	for _, p := range candidates {
		if p.TelegramID == requester {
			continue
		}
		out = append(out, AssigneeOption{ID: p.TelegramID, Label: optionLabel(p)})
	}
	return out
}

func optionLabel(p domain.Profile) string {
	switch {
	case p.FullName != "":
		return p.FullName
	case p.Role != domain.RoleUnknown:
		return string(p.Role)
	default:
		return strconv.FormatInt(p.TelegramID, 10)
	}
}

// ResolveName ищет ровно один профиль с таким именем. Ноль, несколько совпадений
// или ошибка хранилища — не найдено.
func (r *AssigneeResolver) ResolveName(ctx context.Context, name string) (int64, bool) {
	found, err := r.profiles.FindProfilesByName(ctx, name)
	if err != nil {
		r.log.Warn().Err(err).Str("name", name).Msg("assignee name lookup failed")
		return 0, false
	}
	if len(found) != 1 {
		return 0, false
	}
	return found[0].TelegramID, true
}

// AssigneeKeyboard — кнопки выбора исполнителя.
func AssigneeKeyboard(opts []AssigneeOption) Keyboard {
	buttons := make([]Button, 0, len(opts))
	for _, o := range opts {
		action := assignAction(o.ID)
		if o.Self {
			action = ActionAssignSelf
		}
		buttons = append(buttons, Button{Label: o.Label, Action: action})
	}
	return Column(buttons...)
}
