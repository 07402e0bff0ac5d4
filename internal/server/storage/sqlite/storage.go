package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const defaultBusyTimeout = 5 * time.Second

// Storage хранит журнал принятых событий, конфликты и реестр устройств
type Storage struct {
	db *sql.DB
}

type options struct {
	busyTimeout time.Duration
	maxConns    int
}

// Option настраивает открытие базы
type Option func(*options)

// WithBusyTimeout задает ожидание блокировки писателя
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// WithMaxConns ограничивает пул соединений.
// Для ":memory:" значение всегда 1: каждое соединение видит свою базу.
func WithMaxConns(n int) Option {
	return func(o *options) { o.maxConns = n }
}

// New открывает базу по пути dbPath и применяет миграции.
// ":memory:" дает базу в памяти для тестов.
func New(ctx context.Context, dbPath string, opts ...Option) (*Storage, error) {
	o := options{busyTimeout: defaultBusyTimeout, maxConns: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if dbPath == ":memory:" || o.maxConns < 1 {
		o.maxConns = 1
	}

	db, err := sql.Open("sqlite", dsn(dbPath, o))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(o.maxConns)
	db.SetMaxIdleConns(o.maxConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// dsn добавляет pragma в строку подключения: драйвер выполняет их
// на каждом новом соединении пула
func dsn(dbPath string, o options) string {
	params := url.Values{}
	for _, pragma := range []string{
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
		"foreign_keys(1)",
		fmt.Sprintf("busy_timeout(%d)", o.busyTimeout.Milliseconds()),
	} {
		params.Add("_pragma", pragma)
	}
	return dbPath + "?" + params.Encode()
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate(ctx context.Context) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

// withTx выполняет fn в транзакции; ошибка fn откатывает ее
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DB возвращает соединение для health check и тестов
func (s *Storage) DB() *sql.DB {
	return s.db
}
