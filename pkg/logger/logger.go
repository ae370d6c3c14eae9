package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config: Env=development пишет читаемую консоль, иначе JSON.
type Config struct {
	Env   string
	Level string // debug, info, warn, error
}

// Logger передаётся в юзкейсы и адаптеры явно, глобального логгера нет.
type Logger struct {
	zl zerolog.Logger
}

func New(cfg Config) *Logger {
	var out io.Writer = os.Stdout
	if cfg.Env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}
	l := newLogger(out, parseLevel(cfg.Level))
	// телеграм-библиотека и прочие пишут в глобальный логгер zerolog
	log.Logger = l.zl
	return l
}

func newLogger(out io.Writer, level zerolog.Level) *Logger {
	return &Logger{zl: zerolog.New(out).Level(level).With().Timestamp().Logger()}
}

// Nop ничего не пишет.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }

// Named добавляет поле component ко всем записям.
func (l *Logger) Named(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}
