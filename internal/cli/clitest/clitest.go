// Package clitest builds command contexts backed by a temporary SQLite
// store and an in-process catalog server.
package clitest

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/plantmanager/internal/catalog/server"
	"github.com/julianstephens/plantmanager/internal/cli"
	"github.com/julianstephens/plantmanager/internal/config"
	"github.com/julianstephens/plantmanager/internal/session"
	"github.com/julianstephens/plantmanager/internal/storage/sqlite"
)

// Start is the fake clock's initial reading: a Monday morning in UTC.
var Start = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type Env struct {
	Ctx    *cli.Context
	Out    *bytes.Buffer
	Clock  *session.FakeClock
	Config *config.Config
	DBPath string
}

// Setup returns an uninitialized environment. Call Init to create the
// schema.
func Setup(t *testing.T) *Env {
	t.Helper()

	ts := httptest.NewServer(server.New(server.SeedDataset()))
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	cfg.Store.Path = filepath.Join(dir, "plantmanager.db")
	cfg.Catalog.URL = ts.URL
	cfg.Catalog.Timeout = 2 * time.Second
	cfg.Notifications.Sender = config.SenderLog
	cfg.Timezone = "UTC"

	store := sqlite.NewStore(cfg.Store.Path)
	t.Cleanup(func() { _ = store.Close() })

	out := &bytes.Buffer{}
	clock := session.NewFakeClock(Start)
	ctx, err := cli.NewContext(cfg, store, clock, out)
	if err != nil {
		t.Fatalf("failed to build context: %v", err)
	}

	return &Env{Ctx: ctx, Out: out, Clock: clock, Config: cfg, DBPath: cfg.Store.Path}
}

// Init creates the schema and returns e.
func (e *Env) Init(t *testing.T) *Env {
	t.Helper()
	if err := e.Ctx.Store.Init(context.Background()); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	return e
}

// Output returns and clears everything written so far.
func (e *Env) Output() string {
	s := e.Out.String()
	e.Out.Reset()
	return s
}
