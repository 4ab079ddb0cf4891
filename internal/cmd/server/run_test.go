package serverrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	cfgpkg "github.com/solanafuns/ddmonitor/internal/config"
	"github.com/solanafuns/ddmonitor/internal/identity"
	logpkg "github.com/solanafuns/ddmonitor/pkg/log"
)

func testConfig(t *testing.T) cfgpkg.Config {
	t.Helper()
	kp, err := identity.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	cfg := cfgpkg.Default()
	cfg.ProgramID = kp.Identity().String()
	cfg.DataDir = t.TempDir()
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.Fsync = "never"
	return cfg
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := Run(ctx, Options{Config: cfg, Logger: logpkg.NewNopLogger()}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.DataDir, "store")); err != nil {
		t.Fatalf("store dir not created: %v", err)
	}
}

func TestRunRequiresProgramID(t *testing.T) {
	cfg := testConfig(t)
	cfg.ProgramID = ""
	err := Run(context.Background(), Options{Config: cfg, Logger: logpkg.NewNopLogger()})
	if !errors.Is(err, cfgpkg.ErrNoProgramID) {
		t.Fatalf("want ErrNoProgramID, got %v", err)
	}
}

func TestRunRejectsFsyncMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fsync = "sometimes"
	if err := Run(context.Background(), Options{Config: cfg, Logger: logpkg.NewNopLogger()}); err == nil {
		t.Fatal("expected error for unknown fsync mode")
	}
}

func TestRunReportsListenFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.GRPCAddr = "256.0.0.1:1"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Run(ctx, Options{Config: cfg, Logger: logpkg.NewNopLogger()}); err == nil {
		t.Fatal("expected listen error")
	}
}
