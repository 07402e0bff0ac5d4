package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/posync/internal/config"
	"github.com/iudanet/posync/internal/server/jwt"
	"github.com/iudanet/posync/internal/server/storage"
	"github.com/iudanet/posync/internal/validation"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

var errUsage = errors.New("usage error")

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "YAML configuration file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	dbPath := flag.String("db", "", "Path to server database (overrides config)")
	flag.Usage = func() { printUsage(os.Stderr) }

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := flag.Args()
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "token":
		err = issueToken(ctx, cfg, args, os.Stdout)
	case "revoke":
		err = revokeDevice(ctx, cfg, args, os.Stdout)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// deviceFlags разбирает --store и --device подкоманды
func deviceFlags(name string, args []string) (string, string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	storeID := fs.String("store", "", "Store ID")
	deviceID := fs.String("device", "", "Device ID")
	if err := fs.Parse(args); err != nil {
		return "", "", fmt.Errorf("%w: %v", errUsage, err)
	}

	if err := validation.ValidateID(*storeID); err != nil {
		return "", "", fmt.Errorf("%w: invalid --store: %v", errUsage, err)
	}
	if err := validation.ValidateID(*deviceID); err != nil {
		return "", "", fmt.Errorf("%w: invalid --device: %v", errUsage, err)
	}
	return *storeID, *deviceID, nil
}

// issueToken регистрирует устройство и печатает его токен
func issueToken(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	storeID, deviceID, err := deviceFlags("token", args)
	if err != nil {
		return err
	}
	if cfg.Server.JWTSecret == "" {
		return errors.New("jwt secret is required (POSYNC_JWT_SECRET)")
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	return registerAndIssue(ctx, store, jwt.NewService(cfg.Server.JWTSecret, cfg.Server.TokenTTL), storeID, deviceID, out)
}

func registerAndIssue(ctx context.Context, devices storage.DeviceStorage, tokens *jwt.Service, storeID, deviceID string, out io.Writer) error {
	if err := devices.RegisterDevice(ctx, storeID, deviceID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}

	token, expiresAt, err := tokens.GenerateDeviceToken(storeID, deviceID)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Fprintln(out, token)
	if !expiresAt.IsZero() {
		fmt.Fprintf(out, "expires: %s\n", expiresAt.Format(time.RFC3339))
	}
	return nil
}

// revokeDevice отзывает устройство; выданные ему токены перестают приниматься
func revokeDevice(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	storeID, deviceID, err := deviceFlags("revoke", args)
	if err != nil {
		return err
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.RevokeDevice(ctx, storeID, deviceID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to revoke device: %w", err)
	}
	fmt.Fprintf(out, "device %s/%s revoked\n", storeID, deviceID)
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: posync-server [flags] [command]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  serve                               Run the sync server (default)\n")
	fmt.Fprintf(w, "  token  --store ID --device ID       Register a device and print its token\n")
	fmt.Fprintf(w, "  revoke --store ID --device ID       Revoke a device\n\n")
	fmt.Fprintf(w, "Flags:\n")
	fmt.Fprintf(w, "  --config PATH   YAML configuration file\n")
	fmt.Fprintf(w, "  --addr ADDR     Listen address\n")
	fmt.Fprintf(w, "  --db PATH       Path to server database\n")
	fmt.Fprintf(w, "  --version       Show version information\n")
}

func printVersion() {
	fmt.Printf("POS Sync Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
