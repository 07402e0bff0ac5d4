// Package cli implements the commands of the point-of-sale device client.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/posync/internal/client/data"
	"github.com/iudanet/posync/internal/client/iocli"
	"github.com/iudanet/posync/internal/client/outbox"
	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/client/sync"
	"github.com/iudanet/posync/internal/models"
)

// ErrUsage возвращается при неверных аргументах команды
var ErrUsage = errors.New("invalid usage")

//go:generate moq -out auth_mock.go . AuthService

// AuthService хранит токен устройства
type AuthService interface {
	Login(ctx context.Context, token string) (*storage.AuthData, error)
	Session(ctx context.Context) (*storage.AuthData, error)
	Logout(ctx context.Context) error
}

//go:generate moq -out outbox_mock.go . Outbox

// Outbox операции оператора над локальной очередью событий
type Outbox interface {
	Stats(ctx context.Context) (*outbox.Stats, error)
	List(ctx context.Context, status models.SyncStatus) ([]*models.LocalEvent, error)
	ResetFailedToPending(ctx context.Context) (int, error)
	ArchiveSynced(ctx context.Context, retention time.Duration) (int, error)
}

//go:generate moq -out conflicts_mock.go . Conflicts

// Conflicts просмотр и разрешение конфликтов
type Conflicts interface {
	List(ctx context.Context, status models.ConflictStatus) ([]*models.LocalConflict, error)
	Get(ctx context.Context, id string) (*models.LocalConflict, error)
	Resolve(ctx context.Context, id string, resolution models.Resolution) (*models.LocalConflict, error)
}

//go:generate moq -out cursor_mock.go . SyncCursor

// SyncCursor положение устройства в журнале сервера
type SyncCursor interface {
	GetLastPullSeq(ctx context.Context) (int64, error)
	GetLastSyncAt(ctx context.Context) (time.Time, error)
}

// Cli выполняет команды клиента
type Cli struct {
	io          iocli.IO
	authService AuthService
	dataService data.Service
	outbox      Outbox
	conflicts   Conflicts
	syncService sync.Service
	cursor      SyncCursor
	retention   time.Duration // возраст синхронизированных событий для archive
}

// Deps зависимости CLI, собранные в cmd/client
type Deps struct {
	IO        iocli.IO
	Auth      AuthService
	Data      data.Service
	Outbox    Outbox
	Conflicts Conflicts
	Sync      sync.Service
	Cursor    SyncCursor
	Retention time.Duration
}

func New(d Deps) *Cli {
	return &Cli{
		io:          d.IO,
		authService: d.Auth,
		dataService: d.Data,
		outbox:      d.Outbox,
		conflicts:   d.Conflicts,
		syncService: d.Sync,
		cursor:      d.Cursor,
		retention:   d.Retention,
	}
}

// Run выполняет команду. daemon обрабатывается в cmd/client.
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return c.runLogin(ctx, args)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "record":
		return c.runRecord(ctx, args)
	case "product":
		return c.runProduct(ctx, args)
	case "customer":
		return c.runCustomer(ctx, args)
	case "events":
		return c.runEvents(ctx, args)
	case "sync":
		return c.runSync(ctx)
	case "conflicts":
		return c.runConflicts(ctx, args)
	case "resolve":
		return c.runResolve(ctx, args)
	case "reset-failed":
		return c.runResetFailed(ctx)
	case "archive":
		return c.runArchive(ctx)
	default:
		PrintUsage(c.io)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}
}

// printJSON выводит значение как JSON, если вывод не терминал.
// Возвращает false, если вызывающий должен вывести текст.
func (c *Cli) printJSON(v any) (bool, error) {
	if c.io.IsTerminal() {
		return false, nil
	}
	enc := json.NewEncoder(c.io)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return true, fmt.Errorf("failed to encode output: %w", err)
	}
	return true, nil
}

func PrintUsage(out iocli.IO) {
	out.Println("POS sync client")
	out.Println()
	out.Println("Usage:")
	out.Println("  posync [OPTIONS] COMMAND [ARGS]")
	out.Println()
	out.Println("Options:")
	out.Println("  --version            Show version information")
	out.Println("  --config PATH        YAML configuration file")
	out.Println("  --server URL         Server URL (overrides config)")
	out.Println("  --db PATH            Path to local database (overrides config)")
	out.Println()
	out.Println("Commands:")
	out.Println("  login [token]                          Store the device token issued by the server")
	out.Println("  logout                                 Forget the device token (local events are kept)")
	out.Println("  status                                 Show device and outbox status")
	out.Println("  record <type> [<entity-type> <id>] <payload-json>")
	out.Println("                                         Record an arbitrary domain event")
	out.Println("  product create|show|list|update|price|deactivate|stock ...")
	out.Println("  customer create|show|update ...")
	out.Println("  events [pending|failed|synced|discarded]  List local events")
	out.Println("  sync                                   Run one synchronization round")
	out.Println("  daemon                                 Run background synchronization")
	out.Println("  conflicts [--all]                      List conflicts")
	out.Println("  resolve <id> [keep_mine|take_theirs|merge]")
	out.Println("                                         Resolve a conflict (asks on a terminal)")
	out.Println("  reset-failed                           Re-queue events rejected by validation")
	out.Println("  archive                                Upload old synced events to the archive")
	out.Println()
	out.Println("Output is JSON when stdout is not a terminal.")
}
