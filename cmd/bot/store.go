package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/a4tg/SDS-crm-bot/internal/adapter/httpapi"
	"github.com/a4tg/SDS-crm-bot/internal/config"
	"github.com/a4tg/SDS-crm-bot/internal/domain"
	"github.com/a4tg/SDS-crm-bot/internal/infra/memory"
	"github.com/a4tg/SDS-crm-bot/internal/infra/postgres"
	"github.com/a4tg/SDS-crm-bot/internal/infra/sqlite"
	"github.com/a4tg/SDS-crm-bot/internal/infra/supabase"
	"github.com/a4tg/SDS-crm-bot/internal/usecase"
	"github.com/a4tg/SDS-crm-bot/pkg/logger"
)

type profileWriter interface {
	Upsert(ctx context.Context, p domain.Profile) error
}

// store — выбранное хранилище записей со всем, что нужно для запуска.
type store struct {
	repos   usecase.Repositories
	writer  profileWriter
	ping    httpapi.Pinger
	closeFn func()
}

func (s *store) close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

type sqlPinger struct{ db *sql.DB }

func (p sqlPinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store, error) {
	switch cfg.Store.Backend {
	case config.BackendSupabase:
		client := supabase.NewClient(cfg.Store.SupabaseURL, cfg.Store.SupabaseKey,
			supabase.WithTimeout(cfg.Store.Timeout),
			supabase.WithLocation(cfg.Location()),
		)
		s := supabase.NewStore(client)
		return &store{
			repos:  usecase.Repositories{Users: s, Leads: s, Tasks: s, Profiles: s},
			writer: s,
			ping:   s,
		}, nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Store.DatabaseURL, cfg.Store.Timeout)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		s := postgres.NewStore(pool)
		return &store{
			repos:   usecase.Repositories{Users: s, Leads: s, Tasks: s, Profiles: s},
			writer:  s,
			ping:    pool,
			closeFn: pool.Close,
		}, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.Store.SQLiteDSN)
		if err != nil {
			return nil, err
		}
		profiles := sqlite.NewProfileRepo(db)
		return &store{
			repos: usecase.Repositories{
				Users:    sqlite.NewUserRepo(db),
				Leads:    sqlite.NewLeadRepo(db),
				Tasks:    sqlite.NewTaskRepo(db),
				Profiles: profiles,
			},
			writer:  profiles,
			ping:    sqlPinger{db: db},
			closeFn: func() { _ = db.Close() },
		}, nil

	case config.BackendMemory:
		log.Warn().Msg("memory store: records are lost on restart")
		profiles := memory.NewProfileRepo()
		return &store{
			repos: usecase.Repositories{
				Users:    memory.NewUserRepo(),
				Leads:    memory.NewLeadRepo(),
				Tasks:    memory.NewTaskRepo(),
				Profiles: profiles,
			},
			writer: profiles,
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// analytics — воронка и статистика рассылок; в sqlite, если задан DSN.
type analytics struct {
	funnel  usecase.FunnelRepository
	stats   usecase.BroadcastStatRepository
	closeFn func()
}

func (a *analytics) close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func openAnalytics(dsn string) (*analytics, error) {
	if dsn == "" {
		return &analytics{funnel: memory.NewFunnelRepo(), stats: memory.NewBroadcastStatRepo()}, nil
	}
	db, err := sqlite.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	return &analytics{
		funnel:  sqlite.NewFunnelRepo(db),
		stats:   sqlite.NewBroadcastStatRepo(db),
		closeFn: func() { _ = db.Close() },
	}, nil
}
