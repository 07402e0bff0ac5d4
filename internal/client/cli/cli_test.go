package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/posync/internal/client/auth"
	"github.com/iudanet/posync/internal/client/data"
	"github.com/iudanet/posync/internal/client/iocli"
	"github.com/iudanet/posync/internal/client/outbox"
	"github.com/iudanet/posync/internal/client/storage"
	clientsync "github.com/iudanet/posync/internal/client/sync"
	"github.com/iudanet/posync/internal/models"
)

// output collects everything the command prints.
type output struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (o *output) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.String()
}

func newMockIO(out *output, terminal bool) *iocli.IOMock {
	write := func(s string) {
		out.mu.Lock()
		defer out.mu.Unlock()
		out.buf.WriteString(s)
	}
	return &iocli.IOMock{
		PrintlnFunc: func(a ...any) { write(fmt.Sprintln(a...)) },
		PrintfFunc:  func(format string, a ...any) { write(fmt.Sprintf(format, a...)) },
		WriteFunc: func(p []byte) (int, error) {
			write(string(p))
			return len(p), nil
		},
		ReadInputFunc:    func(prompt string) (string, error) { return "", nil },
		ReadPasswordFunc: func(prompt string) (string, error) { return "", nil },
		IsTerminalFunc:   func() bool { return terminal },
	}
}

func testEvent(eventType, entityID string) *models.LocalEvent {
	return &models.LocalEvent{
		CreatedAt:  time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC),
		EventID:    "5b0f6f4e-0c1e-4d55-9bb1-0f1de4f1a001",
		StoreID:    "store-1",
		DeviceID:   "device-1",
		Type:       eventType,
		EntityType: models.EntityProduct,
		EntityID:   entityID,
		SyncStatus: models.SyncStatusPending,
		Seq:        7,
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	out := &output{}
	c := New(Deps{IO: newMockIO(out, true)})

	err := c.Run(context.Background(), "fly", nil)
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, out.String(), "Commands:")
}

func TestRunLogin(t *testing.T) {
	ctx := context.Background()
	expires := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	authMock := &AuthServiceMock{
		LoginFunc: func(ctx context.Context, token string) (*storage.AuthData, error) {
			if token != "tok-123" {
				return nil, errors.New("bad token")
			}
			return &storage.AuthData{Token: token, StoreID: "store-1", DeviceID: "device-1", ExpiresAt: expires}, nil
		},
	}

	t.Run("token argument", func(t *testing.T) {
		out := &output{}
		c := New(Deps{IO: newMockIO(out, true), Auth: authMock})

		require.NoError(t, c.Run(ctx, "login", []string{"tok-123"}))
		assert.Contains(t, out.String(), "Store:  store-1")
		assert.Contains(t, out.String(), "Device: device-1")
	})

	t.Run("token prompt", func(t *testing.T) {
		out := &output{}
		io := newMockIO(out, true)
		io.ReadPasswordFunc = func(prompt string) (string, error) { return " tok-123\n", nil }
		c := New(Deps{IO: io, Auth: authMock})

		require.NoError(t, c.Run(ctx, "login", nil))
		require.Len(t, io.ReadPasswordCalls(), 1)
	})

	t.Run("empty token", func(t *testing.T) {
		c := New(Deps{IO: newMockIO(&output{}, true), Auth: authMock})
		assert.ErrorIs(t, c.Run(ctx, "login", []string{"  "}), ErrUsage)
	})

	t.Run("rejected token", func(t *testing.T) {
		c := New(Deps{IO: newMockIO(&output{}, true), Auth: authMock})
		assert.ErrorContains(t, c.Run(ctx, "login", []string{"other"}), "bad token")
	})
}

func TestRunLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("not logged in", func(t *testing.T) {
		c := New(Deps{
			IO:   newMockIO(&output{}, true),
			Auth: &AuthServiceMock{LogoutFunc: func(ctx context.Context) error { return auth.ErrNotLoggedIn }},
		})
		assert.ErrorIs(t, c.Run(ctx, "logout", nil), auth.ErrNotLoggedIn)
	})

	t.Run("warns about unsent events", func(t *testing.T) {
		out := &output{}
		c := New(Deps{
			IO:   newMockIO(out, true),
			Auth: &AuthServiceMock{LogoutFunc: func(ctx context.Context) error { return nil }},
			Outbox: &OutboxMock{StatsFunc: func(ctx context.Context) (*outbox.Stats, error) {
				return &outbox.Stats{Pending: 2, Failed: 1}, nil
			}},
		})
		require.NoError(t, c.Run(ctx, "logout", nil))
		assert.Contains(t, out.String(), "3 unsent event(s)")
	})

	t.Run("empty outbox", func(t *testing.T) {
		out := &output{}
		c := New(Deps{
			IO:   newMockIO(out, true),
			Auth: &AuthServiceMock{LogoutFunc: func(ctx context.Context) error { return nil }},
			Outbox: &OutboxMock{StatsFunc: func(ctx context.Context) (*outbox.Stats, error) {
				return &outbox.Stats{Synced: 5}, nil
			}},
		})
		require.NoError(t, c.Run(ctx, "logout", nil))
		assert.NotContains(t, out.String(), "unsent")
	})
}

func TestRunStatus(t *testing.T) {
	ctx := context.Background()
	stats := &outbox.Stats{Pending: 3, Failed: 1, Synced: 10, OpenConflicts: 2, Corrupt: 1}
	ob := &OutboxMock{StatsFunc: func(ctx context.Context) (*outbox.Stats, error) { return stats, nil }}

	t.Run("terminal", func(t *testing.T) {
		out := &output{}
		c := New(Deps{
			IO: newMockIO(out, true),
			Auth: &AuthServiceMock{SessionFunc: func(ctx context.Context) (*storage.AuthData, error) {
				return &storage.AuthData{StoreID: "store-1", DeviceID: "device-1"}, nil
			}},
			Outbox: ob,
		})

		require.NoError(t, c.Run(ctx, "status", nil))
		text := out.String()
		assert.Contains(t, text, "Store:   store-1")
		assert.Contains(t, text, "Pending:        3")
		assert.Contains(t, text, "posync reset-failed")
		assert.Contains(t, text, "posync conflicts")
		assert.Contains(t, text, "1 event record(s) are unreadable")
		assert.NotContains(t, text, "Token expires")
		assert.Contains(t, text, "Last sync: never")
	})

	t.Run("sync cursor", func(t *testing.T) {
		out := &output{}
		lastSync := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		c := New(Deps{
			IO: newMockIO(out, false),
			Auth: &AuthServiceMock{SessionFunc: func(ctx context.Context) (*storage.AuthData, error) {
				return &storage.AuthData{StoreID: "store-1", DeviceID: "device-1"}, nil
			}},
			Outbox: ob,
			Cursor: &SyncCursorMock{
				GetLastPullSeqFunc: func(ctx context.Context) (int64, error) { return 42, nil },
				GetLastSyncAtFunc:  func(ctx context.Context) (time.Time, error) { return lastSync, nil },
			},
		})

		require.NoError(t, c.Run(ctx, "status", nil))

		var view statusView
		require.NoError(t, json.Unmarshal([]byte(out.String()), &view))
		assert.Equal(t, int64(42), view.LastPullSeq)
		require.NotNil(t, view.LastSyncAt)
		assert.True(t, lastSync.Equal(*view.LastSyncAt))
	})

	t.Run("cursor error", func(t *testing.T) {
		c := New(Deps{
			IO: newMockIO(&output{}, false),
			Auth: &AuthServiceMock{SessionFunc: func(ctx context.Context) (*storage.AuthData, error) {
				return nil, auth.ErrNotLoggedIn
			}},
			Outbox: ob,
			Cursor: &SyncCursorMock{
				GetLastPullSeqFunc: func(ctx context.Context) (int64, error) { return 0, errors.New("disk") },
			},
		})
		assert.ErrorContains(t, c.Run(ctx, "status", nil), "failed to read sync cursor")
	})

	t.Run("json when not logged in", func(t *testing.T) {
		out := &output{}
		c := New(Deps{
			IO: newMockIO(out, false),
			Auth: &AuthServiceMock{SessionFunc: func(ctx context.Context) (*storage.AuthData, error) {
				return nil, auth.ErrNotLoggedIn
			}},
			Outbox: ob,
		})

		require.NoError(t, c.Run(ctx, "status", nil))

		var view statusView
		require.NoError(t, json.Unmarshal([]byte(out.String()), &view))
		assert.False(t, view.LoggedIn)
		assert.Equal(t, stats, view.Outbox)
	})
}

func TestRunSync(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		out := &output{}
		svc := &clientsync.ServiceMock{
			RunRoundFunc: func(ctx context.Context, reason string) (*clientsync.RoundResult, error) {
				return &clientsync.RoundResult{Reason: reason, Pushed: 5, Accepted: 3, Failed: 1, Conflicted: 1, Pulled: 4, Applied: 4}, nil
			},
		}
		c := New(Deps{IO: newMockIO(out, true), Sync: svc})

		require.NoError(t, c.Run(ctx, "sync", nil))
		require.Len(t, svc.RunRoundCalls(), 1)
		assert.Equal(t, clientsync.ReasonManual, svc.RunRoundCalls()[0].Reason)
		assert.Contains(t, out.String(), "Pushed:     5 (accepted 3, failed 1, conflicted 1)")
		assert.Contains(t, out.String(), "Pulled:     4 (applied 4)")
		assert.NotContains(t, out.String(), "Skipped")
	})

	t.Run("partial round reports and fails", func(t *testing.T) {
		out := &output{}
		svc := &clientsync.ServiceMock{
			RunRoundFunc: func(ctx context.Context, reason string) (*clientsync.RoundResult, error) {
				return &clientsync.RoundResult{Pushed: 2, Retrying: 2}, errors.New("push failed: connection refused")
			},
		}
		c := New(Deps{IO: newMockIO(out, true), Sync: svc})

		err := c.Run(ctx, "sync", nil)
		assert.ErrorContains(t, err, "connection refused")
		assert.Contains(t, out.String(), "Retrying:   2")
	})

	t.Run("offline", func(t *testing.T) {
		svc := &clientsync.ServiceMock{
			RunRoundFunc: func(ctx context.Context, reason string) (*clientsync.RoundResult, error) {
				return nil, clientsync.ErrOffline
			},
		}
		c := New(Deps{IO: newMockIO(&output{}, true), Sync: svc})

		assert.ErrorIs(t, c.Run(ctx, "sync", nil), clientsync.ErrOffline)
	})
}

func TestRunRecord(t *testing.T) {
	ctx := context.Background()

	dataMock := &data.ServiceMock{
		RecordFunc: func(ctx context.Context, in models.NewEvent) (*models.LocalEvent, error) {
			e := testEvent(in.Type, in.EntityID)
			e.Payload = in.Payload
			return e, nil
		},
	}

	out := &output{}
	c := New(Deps{IO: newMockIO(out, true), Data: dataMock})

	require.NoError(t, c.Run(ctx, "record", []string{"SaleCompleted", `{"total_usd": 12.5}`}))
	require.NoError(t, c.Run(ctx, "record", []string{"ProductUpdated", "product", "p1", `{"patch":{"name":"x"}}`}))

	calls := dataMock.RecordCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "SaleCompleted", calls[0].In.Type)
	assert.Empty(t, calls[0].In.EntityType)
	assert.Equal(t, "product", calls[1].In.EntityType)
	assert.Equal(t, "p1", calls[1].In.EntityID)
	assert.Contains(t, out.String(), "✓ Recorded SaleCompleted")

	assert.ErrorIs(t, c.Run(ctx, "record", []string{"SaleCompleted"}), ErrUsage)
	assert.ErrorIs(t, c.Run(ctx, "record", []string{"SaleCompleted", "{broken"}), ErrUsage)
	assert.Len(t, dataMock.RecordCalls(), 2)
}

func TestRunProduct(t *testing.T) {
	ctx := context.Background()

	product := &models.Product{ID: "p1", Name: "Harina PAN", PriceUSD: 1.2, PriceBs: 43.8, IsActive: true, LowStockThreshold: 5}

	dataMock := &data.ServiceMock{
		CreateProductFunc: func(ctx context.Context, in data.ProductInput) (*models.LocalEvent, error) {
			return testEvent(models.EventProductCreated, in.ID), nil
		},
		ChangePriceFunc: func(ctx context.Context, id string, in data.PriceInput) (*models.LocalEvent, error) {
			return testEvent(models.EventPriceChanged, id), nil
		},
		AdjustStockFunc: func(ctx context.Context, productID string, in data.StockInput) (*models.LocalEvent, error) {
			return testEvent(models.EventStockDeltaApplied, productID), nil
		},
		UpdateProductFunc: func(ctx context.Context, id string, patch map[string]any) (*models.LocalEvent, error) {
			return testEvent(models.EventProductUpdated, id), nil
		},
		DeactivateProductFunc: func(ctx context.Context, id string) (*models.LocalEvent, error) {
			return testEvent(models.EventProductDeactivated, id), nil
		},
		GetProductFunc: func(ctx context.Context, id string) (*models.Product, error) {
			if id == "p1" {
				return product, nil
			}
			return nil, storage.ErrEntityNotFound
		},
		GetStockFunc: func(ctx context.Context, productID string) (*models.StockLevel, error) {
			return &models.StockLevel{ProductID: productID, Quantity: 3}, nil
		},
		ListProductsFunc: func(ctx context.Context) ([]*models.Product, error) {
			return []*models.Product{product}, nil
		},
	}

	out := &output{}
	c := New(Deps{IO: newMockIO(out, true), Data: dataMock})

	require.NoError(t, c.Run(ctx, "product", []string{"create", "--id", "p1", "--name", "Harina PAN", "--price-usd", "1.2"}))
	in := dataMock.CreateProductCalls()[0].In
	assert.Equal(t, "Harina PAN", in.Name)
	assert.Equal(t, 1.2, in.PriceUSD)

	require.NoError(t, c.Run(ctx, "product", []string{"price", "p1", "--usd", "1.5"}))
	price := dataMock.ChangePriceCalls()[0].In
	require.NotNil(t, price.PriceUSD)
	assert.Equal(t, 1.5, *price.PriceUSD)
	assert.Nil(t, price.PriceBs)

	require.NoError(t, c.Run(ctx, "product", []string{"stock", "p1", "-2", "venta"}))
	stock := dataMock.AdjustStockCalls()[0].In
	assert.Equal(t, -2.0, stock.QtyDelta)
	assert.Equal(t, "venta", stock.Reason)

	require.NoError(t, c.Run(ctx, "product", []string{"update", "p1", `{"category":"harinas"}`}))
	assert.Equal(t, "harinas", dataMock.UpdateProductCalls()[0].Patch["category"])

	require.NoError(t, c.Run(ctx, "product", []string{"deactivate", "p1"}))

	require.NoError(t, c.Run(ctx, "product", []string{"show", "p1"}))
	assert.Contains(t, out.String(), "Name:      Harina PAN")
	assert.Contains(t, out.String(), "Stock:     3 (low)")

	require.NoError(t, c.Run(ctx, "product", []string{"list"}))

	assert.ErrorContains(t, c.Run(ctx, "product", []string{"show", "missing"}), "product not found")
	assert.ErrorIs(t, c.Run(ctx, "product", []string{"stock", "p1", "many"}), ErrUsage)
	assert.ErrorIs(t, c.Run(ctx, "product", []string{"update", "p1", "[1]"}), ErrUsage)
	assert.ErrorIs(t, c.Run(ctx, "product", []string{"create", "--bogus"}), ErrUsage)
	assert.ErrorIs(t, c.Run(ctx, "product", nil), ErrUsage)
}

func TestRunCustomer(t *testing.T) {
	ctx := context.Background()

	dataMock := &data.ServiceMock{
		CreateCustomerFunc: func(ctx context.Context, in data.CustomerInput) (*models.LocalEvent, error) {
			return testEvent(models.EventCustomerCreated, "c1"), nil
		},
		GetCustomerFunc: func(ctx context.Context, id string) (*models.Customer, error) {
			return &models.Customer{ID: id, Name: "Ana Perez", Phone: "+58 412"}, nil
		},
	}

	out := &output{}
	c := New(Deps{IO: newMockIO(out, false), Data: dataMock})

	require.NoError(t, c.Run(ctx, "customer", []string{"create", "--name", "Ana Perez", "--email", "ana@example.com"}))
	assert.Equal(t, "ana@example.com", dataMock.CreateCustomerCalls()[0].In.Email)

	out.buf.Reset()
	require.NoError(t, c.Run(ctx, "customer", []string{"show", "c1"}))
	var customer models.Customer
	require.NoError(t, json.Unmarshal([]byte(out.String()), &customer))
	assert.Equal(t, "Ana Perez", customer.Name)
}

func TestRunEventsAndOutbox(t *testing.T) {
	ctx := context.Background()

	failed := testEvent(models.EventProductCreated, "p1")
	failed.SyncStatus = models.SyncStatusFailed
	failed.LastError = "VALIDATION_ERROR: name is required"

	ob := &OutboxMock{
		ListFunc: func(ctx context.Context, status models.SyncStatus) ([]*models.LocalEvent, error) {
			if status == models.SyncStatusFailed {
				return []*models.LocalEvent{failed}, nil
			}
			return nil, nil
		},
		ResetFailedToPendingFunc: func(ctx context.Context) (int, error) { return 1, nil },
		ArchiveSyncedFunc: func(ctx context.Context, retention time.Duration) (int, error) {
			return 0, outbox.ErrArchiveDisabled
		},
	}

	out := &output{}
	c := New(Deps{IO: newMockIO(out, true), Outbox: ob, Retention: 72 * time.Hour})

	require.NoError(t, c.Run(ctx, "events", []string{"failed"}))
	assert.Contains(t, out.String(), "product/p1")
	assert.Contains(t, out.String(), "VALIDATION_ERROR: name is required")

	require.NoError(t, c.Run(ctx, "events", nil))
	assert.Contains(t, out.String(), "No events.")
	assert.ErrorIs(t, c.Run(ctx, "events", []string{"lost"}), ErrUsage)

	require.NoError(t, c.Run(ctx, "reset-failed", nil))
	assert.Contains(t, out.String(), "1 event(s) moved back to pending")

	assert.ErrorContains(t, c.Run(ctx, "archive", nil), "archive is disabled")
	assert.Equal(t, 72*time.Hour, ob.ArchiveSyncedCalls()[0].Retention)
}

func TestRunConflictsAndResolve(t *testing.T) {
	ctx := context.Background()

	open := &models.LocalConflict{
		ID:         "conflict-1",
		EventID:    "5b0f6f4e-0c1e-4d55-9bb1-0f1de4f1a001",
		Reason:     "concurrent update of customer/c1",
		EntityType: models.EntityCustomer,
		EntityID:   "c1",
		Status:     models.ConflictStatusPending,
	}

	conflicts := &ConflictsMock{
		ListFunc: func(ctx context.Context, status models.ConflictStatus) ([]*models.LocalConflict, error) {
			return []*models.LocalConflict{open}, nil
		},
		ResolveFunc: func(ctx context.Context, id string, resolution models.Resolution) (*models.LocalConflict, error) {
			switch id {
			case "conflict-1":
				resolved := *open
				resolved.Status = models.ConflictStatusResolved
				resolved.Resolution = resolution
				return &resolved, nil
			case "conflict-old":
				return &models.LocalConflict{ID: id, Status: models.ConflictStatusResolved, Resolution: models.ResolutionTakeTheirs}, nil
			}
			return nil, storage.ErrConflictNotFound
		},
	}

	out := &output{}
	c := New(Deps{IO: newMockIO(out, true), Conflicts: conflicts})

	require.NoError(t, c.Run(ctx, "conflicts", nil))
	assert.Contains(t, out.String(), "conflict-1  pending  customer/c1")
	require.NoError(t, c.Run(ctx, "conflicts", []string{"--all"}))
	assert.Equal(t, models.ConflictStatus(""), conflicts.ListCalls()[1].Status)

	require.NoError(t, c.Run(ctx, "resolve", []string{"conflict-1", "keep_mine"}))
	assert.Contains(t, out.String(), "✓ Conflict conflict-1 resolved with keep_mine")

	require.NoError(t, c.Run(ctx, "resolve", []string{"conflict-old", "keep_mine"}))
	assert.Contains(t, out.String(), "already resolved with take_theirs")

	assert.ErrorContains(t, c.Run(ctx, "resolve", []string{"nope", "merge"}), "conflict not found")
	assert.ErrorIs(t, c.Run(ctx, "resolve", []string{"conflict-1", "coin_flip"}), ErrUsage)

	piped := New(Deps{IO: newMockIO(&output{}, false), Conflicts: conflicts})
	assert.ErrorIs(t, piped.Run(ctx, "resolve", []string{"conflict-1"}), ErrUsage, "strategy is required without a terminal")
	assert.ErrorIs(t, c.Run(ctx, "resolve", nil), ErrUsage)
}

func TestRunResolve_Interactive(t *testing.T) {
	ctx := context.Background()

	pending := &models.LocalConflict{
		ID:                   "conflict-1",
		EventID:              "5b0f6f4e-0c1e-4d55-9bb1-0f1de4f1a001",
		Reason:               "concurrent update of product/p1",
		EntityType:           models.EntityProduct,
		EntityID:             "p1",
		Status:               models.ConflictStatusPending,
		ConflictingWith:      []string{"9d2c1b7a-0000-4000-8000-000000000001"},
		RequiresManualReview: true,
	}
	conflicts := &ConflictsMock{
		GetFunc: func(ctx context.Context, id string) (*models.LocalConflict, error) {
			switch id {
			case "conflict-1":
				return pending, nil
			case "conflict-done":
				return &models.LocalConflict{ID: id, Status: models.ConflictStatusResolved, Resolution: models.ResolutionMerge}, nil
			}
			return nil, storage.ErrConflictNotFound
		},
		ResolveFunc: func(ctx context.Context, id string, resolution models.Resolution) (*models.LocalConflict, error) {
			resolved := *pending
			resolved.Status = models.ConflictStatusResolved
			resolved.Resolution = resolution
			return &resolved, nil
		},
	}

	out := &output{}
	io := newMockIO(out, true)
	io.ReadChoiceFunc = func(prompt string, choices []string) (string, error) {
		return "take_theirs", nil
	}
	c := New(Deps{IO: io, Conflicts: conflicts})

	require.NoError(t, c.Run(ctx, "resolve", []string{"conflict-1"}))
	text := out.String()
	assert.Contains(t, text, "Entity:   product/p1")
	assert.Contains(t, text, "Against:  9d2c1b7a")
	assert.Contains(t, text, "Requires manual review.")
	assert.Contains(t, text, "✓ Conflict conflict-1 resolved with take_theirs")
	require.Len(t, io.ReadChoiceCalls(), 1)
	assert.Equal(t, []string{"keep_mine", "take_theirs", "merge"}, io.ReadChoiceCalls()[0].Choices)

	require.NoError(t, c.Run(ctx, "resolve", []string{"conflict-done"}))
	assert.Len(t, io.ReadChoiceCalls(), 1, "resolved conflict is only shown")
	assert.Len(t, conflicts.ResolveCalls(), 1)

	assert.ErrorContains(t, c.Run(ctx, "resolve", []string{"missing"}), "conflict not found")

	io.ReadChoiceFunc = func(prompt string, choices []string) (string, error) { return "", iocli.ErrNoChoice }
	err := c.Run(ctx, "resolve", []string{"conflict-1"})
	assert.ErrorIs(t, err, iocli.ErrNoChoice)
}
