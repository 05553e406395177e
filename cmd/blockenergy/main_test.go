package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/blockenergy-core/internal/auth"
	"github.com/nerrad567/blockenergy-core/internal/blockdata"
	"github.com/nerrad567/blockenergy-core/internal/capability"
	"github.com/nerrad567/blockenergy-core/internal/energy"
	"github.com/nerrad567/blockenergy-core/internal/flow"
	"github.com/nerrad567/blockenergy-core/internal/infrastructure/database"
	"github.com/nerrad567/blockenergy-core/internal/world"
	"github.com/nerrad567/blockenergy-core/migrations"
)

const testSecret = "test-secret-for-development-only-0123456789"

func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("BLOCKENERGY_CONFIG", path)
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("BLOCKENERGY_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_MissingJWTSecret(t *testing.T) {
	writeConfig(t, `
database:
  path: "`+filepath.Join(t.TempDir(), "test.db")+`"
api:
  enabled: true
  port: 8080
security:
  jwt:
    secret: ""
`)
	t.Setenv("BLOCKENERGY_JWT_SECRET", "")

	err := run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "security.jwt.secret") {
		t.Fatalf("run() error = %v, want jwt secret validation error", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("BLOCKENERGY_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("BLOCKENERGY_CONFIG", "/etc/blockenergy.yaml")
	if got := getConfigPath(); got != "/etc/blockenergy.yaml" {
		t.Errorf("getConfigPath() = %q, want /etc/blockenergy.yaml", got)
	}
}

func TestRunToken(t *testing.T) {
	writeConfig(t, `
security:
  jwt:
    secret: "`+testSecret+`"
`)

	var out bytes.Buffer
	if err := runToken([]string{"-subject", "ops", "-role", "operator", "-ttl", "1h"}, &out); err != nil {
		t.Fatalf("runToken() error = %v", err)
	}

	claims, err := auth.ParseToken(strings.TrimSpace(out.String()), testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "ops" || claims.Role != auth.RoleOperator {
		t.Errorf("claims = %s/%s, want ops/operator", claims.Subject, claims.Role)
	}
}

func TestRunToken_InvalidRole(t *testing.T) {
	writeConfig(t, `
security:
  jwt:
    secret: "`+testSecret+`"
`)

	err := runToken([]string{"-role", "root"}, &bytes.Buffer{})
	if !errors.Is(err, auth.ErrInvalidRole) {
		t.Fatalf("runToken() error = %v, want ErrInvalidRole", err)
	}
}

type recordedFlush struct {
	world   string
	reason  string
	written int
}

type fakeFeed struct {
	flushes []recordedFlush
}

func (f *fakeFeed) NotifyFlush(w string, reason string, written int, _ error) {
	f.flushes = append(f.flushes, recordedFlush{w, reason, written})
}

func TestHostEvents(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	regs := capability.NewRegistries(blockdata.NewSQLiteStore(db.DB), energy.DefaultCodec)
	banks, err := capability.Standard(regs)
	if err != nil {
		t.Fatalf("Standard() error = %v", err)
	}

	feed := &fakeFeed{}
	events := &hostEvents{regs: regs, feed: feed}
	cb := events.callbacks()
	events.network = flow.New(banks, flow.DefaultConfig(), nil, nil)

	furnace := world.At("overworld", 0, 64, 0)
	if err := cb.BlockPlaced(ctx, furnace, flow.Furnace); err != nil {
		t.Fatalf("BlockPlaced() error = %v", err)
	}
	cb.FurnaceBurning(furnace, true)
	if _, err := events.network.Step(ctx); err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	stored, ok, err := cb.Inspect(ctx, furnace)
	if err != nil || !ok || stored != 100 {
		t.Fatalf("Inspect() = %d, %v, %v; want 100, true, nil", stored, ok, err)
	}

	n, err := cb.WorldSaved(ctx, "overworld")
	if err != nil || n != 1 {
		t.Fatalf("WorldSaved() = %d, %v; want 1, nil", n, err)
	}
	n, err = cb.WorldUnloaded(ctx, "overworld")
	if err != nil || n != 1 {
		t.Fatalf("WorldUnloaded() = %d, %v; want 1, nil", n, err)
	}
	if banks.Len() != 0 {
		t.Errorf("cache holds %d entries after unload, want 0", banks.Len())
	}
	if f, _ := events.network.Tracked(); f != 0 {
		t.Errorf("network tracks %d furnaces after unload, want 0", f)
	}
	if _, err := events.network.Step(ctx); err != nil {
		t.Fatalf("Step() after unload error = %v", err)
	}
	if banks.Len() != 0 {
		t.Errorf("tick after unload re-cached %d entries, want 0", banks.Len())
	}

	want := []recordedFlush{{"overworld", "saved", 1}, {"overworld", "unloaded", 1}}
	if len(feed.flushes) != len(want) {
		t.Fatalf("flushes = %v, want %v", feed.flushes, want)
	}
	for i := range want {
		if feed.flushes[i] != want[i] {
			t.Errorf("flush[%d] = %v, want %v", i, feed.flushes[i], want[i])
		}
	}

	if err := cb.BlockPlaced(ctx, furnace, flow.Furnace); err != nil {
		t.Fatalf("BlockPlaced() error = %v", err)
	}
	cb.BlockBroken(furnace)
	if f, l := events.network.Tracked(); f != 0 || l != 0 {
		t.Errorf("Tracked() = %d, %d after break, want 0, 0", f, l)
	}
}
