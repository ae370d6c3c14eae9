package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/a4tg/SDS-crm-bot/pkg/logger"
)

type BroadcastRepository interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
}

type BroadcastStat struct {
	Total     int
	Sent      int
	Failed    int
	CreatedAt time.Time
}

type BroadcastStatRepository interface {
	Save(ctx context.Context, stat BroadcastStat) error
	ListRecent(ctx context.Context, n int) ([]BroadcastStat, error)
}

// BroadcastUsecase рассылает объявления всем зарегистрированным сотрудникам.
type BroadcastUsecase struct {
	Repo   BroadcastRepository
	Sender Messenger
	Stat   BroadcastStatRepository
	log    *logger.Logger
}

func NewBroadcastUsecase(repo BroadcastRepository, sender Messenger, stat BroadcastStatRepository, log *logger.Logger) *BroadcastUsecase {
	return &BroadcastUsecase{Repo: repo, Sender: sender, Stat: stat, log: log}
}

// Send отправляет черновик каждому пользователю; ошибки отдельных получателей
// только считаются. Ошибка возвращается, если не удалось получить список.
func (u *BroadcastUsecase) Send(ctx context.Context, d BroadcastDraft) (string, error) {
	ids, err := u.Repo.ListUserIDs(ctx)
	if err != nil {
		return "", fmt.Errorf("list broadcast recipients: %w", err)
	}
	var sent, failed int
	for _, id := range ids {
		var sendErr error
		if d.PhotoFileID != "" {
			sendErr = u.Sender.SendPhoto(ctx, id, d.PhotoFileID, d.Caption)
		} else {
			sendErr = u.Sender.Send(ctx, id, Reply{Text: d.Text})
		}
		if sendErr != nil {
			u.log.Debug().Err(sendErr).Int64("chat_id", id).Msg("broadcast delivery failed")
			failed++
			continue
		}
		sent++
	}
	stat := BroadcastStat{Total: len(ids), Sent: sent, Failed: failed, CreatedAt: time.Now()}
	if err := u.Stat.Save(ctx, stat); err != nil {
		u.log.Warn().Err(err).Msg("broadcast stat not saved")
	}
	return fmt.Sprintf("Рассылка отправлена: %d успешно, %d с ошибками.", sent, failed), nil
}

// StatsSummary — текст о последних n рассылках.
func (u *BroadcastUsecase) StatsSummary(ctx context.Context, n int) string {
	stats, err := u.Stat.ListRecent(ctx, n)
	if err != nil || len(stats) == 0 {
		return textStatsOff
	}
	var b strings.Builder
	b.WriteString("Последние рассылки:\n")
	for i, s := range stats {
		fmt.Fprintf(&b, "%d) %s — всего: %d, отправлено: %d, ошибки: %d\n", i+1, s.CreatedAt.Format("2006-01-02 15:04"), s.Total, s.Sent, s.Failed)
	}
	return b.String()
}
