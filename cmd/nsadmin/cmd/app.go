package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/and161185/nullscape-admin/internal/api"
	"github.com/and161185/nullscape-admin/internal/config"
	"github.com/and161185/nullscape-admin/internal/cookies"
	"github.com/and161185/nullscape-admin/internal/errs"
	"github.com/and161185/nullscape-admin/internal/journal"
	"github.com/and161185/nullscape-admin/internal/migrate"
	"github.com/and161185/nullscape-admin/internal/mutation"
	"github.com/and161185/nullscape-admin/internal/repository"
	"github.com/and161185/nullscape-admin/internal/repository/postgres"
	"github.com/and161185/nullscape-admin/internal/resource"
	"github.com/and161185/nullscape-admin/internal/session"
	"github.com/and161185/nullscape-admin/internal/toast"
)

const redisPrefix = "nullscape"

// app is the composition root: every shared component is built here once
// per invocation and handed to the commands.
type app struct {
	cfg *config.Config
	log *zap.Logger
	in  io.Reader
	out io.Writer

	jar      cookies.Store
	client   *api.Client
	bus      *toast.Bus
	router   *session.Router
	session  *session.Provider
	journal  repository.JournalRepository
	recorder *journal.Recorder
	durable  bool

	closers []func() error
}

func newApp(ctx context.Context, opts *rootOptions, in io.Reader, out io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(opts.debug)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	a := &app{cfg: cfg, log: log, in: in, out: out}
	a.closers = append(a.closers, func() error {
		_ = log.Sync()
		return nil
	})

	if a.jar, err = a.openJar(); err != nil {
		a.Close()
		return nil, err
	}

	clientOpts := []api.Option{api.WithLogger(log.Named("api")), api.WithTimeout(cfg.Timeout)}
	if cfg.AutoRefresh {
		clientOpts = append(clientOpts, api.WithAutoRefresh())
	}
	a.client = api.New(cfg.BaseURL(), a.jar, clientOpts...)

	a.bus = toast.New(toast.WithLogger(log.Named("toast")), toast.WithDefaultTimeout(cfg.ToastTimeout))
	a.bus.Subscribe(newToastPrinter(out).render)

	a.router = session.NewRouter("/dashboard")
	a.session = session.New(a.client, a.router, session.WithLogger(log.Named("session")))

	if err := a.openJournal(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if opts.apiURL != "" {
		cfg.APIURL = opts.apiURL
	}
	if opts.host != "" {
		cfg.Host = opts.host
	}
	if opts.store != "" {
		cfg.Store = strings.ToLower(opts.store)
	}
	if opts.storeDir != "" {
		cfg.StoreDir = opts.storeDir
	}
	if opts.autoRefresh {
		cfg.AutoRefresh = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return zc.Build()
}

func (a *app) openJar() (cookies.Store, error) {
	dir := a.cfg.StoreDir
	if dir == "" {
		dir = cookies.DefaultDir()
	}

	var jar cookies.Store
	switch a.cfg.Store {
	case config.StoreMemory:
		jar = cookies.NewMemory()
	case config.StoreBolt:
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("cookie dir: %w", err)
		}
		b, err := cookies.OpenBolt(filepath.Join(dir, "cookies.db"), &bbolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, b.Close)
		jar = b
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		a.closers = append(a.closers, rdb.Close)
		jar = cookies.NewRedis(rdb, redisPrefix)
	default:
		jar = cookies.NewFile(dir)
	}

	if a.cfg.CookieSecret != "" {
		sealed, err := cookies.NewSealed(jar, []byte(a.cfg.CookieSecret))
		if err != nil {
			return nil, err
		}
		jar = sealed
	}
	return jar, nil
}

func (a *app) openJournal(ctx context.Context) error {
	if a.cfg.JournalDSN == "" {
		a.journal = journal.NewMemory()
	} else {
		if err := migrate.Up(ctx, a.cfg.JournalDSN); err != nil {
			return fmt.Errorf("journal migrations: %w", err)
		}
		db, err := postgres.New(ctx, a.cfg.JournalDSN)
		if err != nil {
			return fmt.Errorf("journal db: %w", err)
		}
		a.closers = append(a.closers, func() error {
			db.Close()
			return nil
		})
		a.journal = postgres.NewJournalRepo(db)
		a.durable = true
	}
	a.recorder = journal.NewRecorder(a.journal, a.log.Named("journal"))
	return nil
}

// Close releases everything newApp opened, last opened first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Debug("close", zap.Error(err))
		}
	}
	a.closers = nil
}

// authenticate checks the session and fails when nobody is signed in.
func (a *app) authenticate(ctx context.Context) error {
	if err := a.session.Start(ctx); err != nil {
		if errors.Is(err, errs.ErrUnauthorized) || errors.Is(err, errs.ErrNoToken) {
			return errors.New("not signed in, run `nsadmin login` first")
		}
		return err
	}
	return nil
}

// authorize rejects resources the signed-in user may not manage.
func (a *app) authorize(res resource.Resource) error {
	if roles := res.Roles(); roles != nil && !a.session.HasRole(roles...) {
		return fmt.Errorf("%s requires one of %s: %w", res.Title, strings.Join(roles, ", "), errs.ErrForbidden)
	}
	return nil
}

// lookup resolves a resource argument and checks access to it.
func (a *app) lookup(name string) (resource.Resource, error) {
	res, ok := resource.Lookup(name)
	if !ok {
		return resource.Resource{}, fmt.Errorf("unknown resource %q (see `nsadmin resources`)", name)
	}
	return res, a.authorize(res)
}

// failed surfaces a failed query or a client-side validation error the way
// a failed mutation is surfaced.
func (a *app) failed(err error, fallback string) error {
	a.bus.Error(mutation.Message(err, fallback))
	return reported(err)
}

// mutate runs fn as a named mutation: toasts on the bus, outcome in the journal.
func mutate[A, R any](ctx context.Context, a *app, act action, fn mutation.Func[A, R], arg A) (R, error) {
	m := mutation.New(a.bus, fn, mutation.Options{
		Name:           act.name,
		SuccessMessage: act.success,
		ErrorMessage:   act.failure,
		Observer:       a.recorder,
		Logger:         a.log.Named("mutation"),
	})
	res, err := m.Call(ctx, arg)
	return res, reported(err)
}

type action struct {
	name    string
	success string
	failure string
}
