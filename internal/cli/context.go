// Package cli holds the shared command context and store wiring used by
// the command packages under internal/cli.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/plantmanager/internal/backup"
	"github.com/julianstephens/plantmanager/internal/catalog"
	"github.com/julianstephens/plantmanager/internal/config"
	"github.com/julianstephens/plantmanager/internal/constants"
	"github.com/julianstephens/plantmanager/internal/keyring"
	"github.com/julianstephens/plantmanager/internal/logger"
	"github.com/julianstephens/plantmanager/internal/notifier"
	"github.com/julianstephens/plantmanager/internal/repository"
	"github.com/julianstephens/plantmanager/internal/scheduler"
	"github.com/julianstephens/plantmanager/internal/service"
	"github.com/julianstephens/plantmanager/internal/session"
	"github.com/julianstephens/plantmanager/internal/storage"
	badgerstore "github.com/julianstephens/plantmanager/internal/storage/badger"
	"github.com/julianstephens/plantmanager/internal/storage/postgres"
	"github.com/julianstephens/plantmanager/internal/storage/sqlite"
)

type Context struct {
	Config  *config.Config
	Store   storage.Provider
	Local   *storage.Local
	Session *session.Session

	Device    *notifier.Device
	Scheduler *scheduler.Scheduler
	Repo      *repository.Repository
	Plants    *service.PlantService
	Users     *service.UserService
	Catalog   *catalog.Client

	Out io.Writer
}

// NewContext wires every component on top of store. The store is not
// opened here; commands call Load or Init as they need. Command output and
// log-sender reminders go to out, stdout when nil.
func NewContext(cfg *config.Config, store storage.Provider, clock session.Clock, out io.Writer) (*Context, error) {
	if out == nil {
		out = os.Stdout
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	opts := []catalog.Option{
		catalog.WithTimeout(cfg.Catalog.Timeout),
		catalog.WithDebugLogging(cfg.Debug),
	}
	client, err := catalog.New(cfg.Catalog.URL, opts...)
	if err != nil {
		return nil, err
	}

	sess := session.New("", loc, clock)
	local := storage.NewLocal(store)
	device := notifier.NewDevice(local, newSender(cfg, out),
		notifier.WithGracePeriod(cfg.Notifications.GracePeriod),
		notifier.WithClock(sess.Now),
		notifier.WithLocation(loc),
	)
	sched := scheduler.New(device, sess)
	repo := repository.New(local)

	return &Context{
		Config:    cfg,
		Store:     store,
		Local:     local,
		Session:   sess,
		Device:    device,
		Scheduler: sched,
		Repo:      repo,
		Plants:    service.NewPlantService(repo, sched, sess),
		Users:     service.NewUserService(local, sess),
		Catalog:   client,
		Out:       out,
	}, nil
}

func newSender(cfg *config.Config, w io.Writer) notifier.Sender {
	logSender := notifier.NewLogSender(w)
	if cfg.Notifications.Sender == config.SenderLog {
		return logSender
	}
	return notifier.FallbackSender{Primary: notifier.NewTraySender(), Fallback: logSender}
}

// OpenStore returns the provider selected by the configuration. A
// PostgreSQL connection string comes from the config or, failing that, the
// OS keyring, and must not carry a password.
func OpenStore(cfg *config.Config) (storage.Provider, error) {
	switch cfg.Store.Backend {
	case constants.BackendSQLite:
		return sqlite.NewStore(cfg.Store.Path), nil
	case constants.BackendBadger:
		return badgerstore.NewStore(cfg.Store.Path), nil
	case constants.BackendPostgres:
		dsn := cfg.Store.DSN
		if dsn == "" {
			var err error
			dsn, err = keyring.GetConnectionString()
			if err != nil {
				if errors.Is(err, keyring.ErrNotFound) {
					return nil, fmt.Errorf("no PostgreSQL connection string configured: set store.dsn or run `%s keyring set`", constants.AppName)
				}
				return nil, err
			}
		}
		if ok, err := postgres.ValidateConnString(dsn); !ok {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL connection strings must not embed passwords; use PGPASSWORD or .pgpass instead")
			}
			return nil, err
		}
		return postgres.New(dsn), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// Load opens the store and restores the user name into the session.
func (c *Context) Load(ctx context.Context) error {
	if err := c.Store.Load(ctx); err != nil {
		return err
	}
	name, ok, err := c.Users.Name(ctx)
	if err != nil {
		return err
	}
	if ok {
		c.Session.UserName = name
	}
	return nil
}

// PerformAutomaticBackup snapshots the SQLite database and logs, rather
// than returns, any failure. Other backends are skipped.
func (c *Context) PerformAutomaticBackup() {
	if c.Config.Store.Backend != constants.BackendSQLite {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// Printf writes to the command output.
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}
