package boltdb

import (
	"log/slog"
	"os"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testNow() time.Time {
	return time.Now().UTC()
}
