package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open открывает базу и создаёт недостающие таблицы. Все репозитории пакета
// работают поверх одного *sql.DB.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite не любит параллельных писателей
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    telegram_id INTEGER PRIMARY KEY,
    username TEXT NOT NULL DEFAULT '',
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS leads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    telegram_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    phone TEXT NOT NULL,
    email TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_telegram_id ON leads(telegram_id);

CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    client TEXT,
    due_date TIMESTAMP,
    description TEXT,
    status TEXT NOT NULL,
    result TEXT,
    assigner_telegram_id INTEGER NOT NULL,
    assignee_telegram_id INTEGER NOT NULL,
    updated_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tasks_assigner ON tasks(assigner_telegram_id);
CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_telegram_id);

CREATE TABLE IF NOT EXISTS task_files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id TEXT NOT NULL REFERENCES tasks(id),
    file_url TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
    telegram_id INTEGER PRIMARY KEY,
    full_name TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS funnel_hits (
    chat_id INTEGER NOT NULL,
    step TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (chat_id, step)
);

CREATE TABLE IF NOT EXISTS broadcast_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    total INTEGER NOT NULL,
    sent INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`)
	return err
}
