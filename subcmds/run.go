// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bvk/ledgerwatch/ctxutil"
	"github.com/bvk/ledgerwatch/daemonize"
	"github.com/bvk/ledgerwatch/envfile"
	"github.com/bvk/ledgerwatch/httputil"
	"github.com/bvk/ledgerwatch/qubic"
	"github.com/bvk/ledgerwatch/server"
	"github.com/bvk/ledgerwatch/subcmds/cmdutil"
	"github.com/bvk/ledgerwatch/tracker"
	"github.com/bvkgo/kv/kvhttp"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
	"github.com/nightlyone/lockfile"
	"github.com/visvasity/cli"
	"github.com/visvasity/sglog"
)

// EnvFileName is loaded from the data directory and the user's home
// directory before the flags are interpreted.
const EnvFileName = ".ledgerwatch.env"

type Run struct {
	cmdutil.ServerFlags

	background bool

	restart         bool
	shutdownTimeout time.Duration

	noPprof bool

	secretsPath string
	dataDir     string
	logDir      string
	debugLog    bool

	stateFile          string
	noAlerts           bool
	requireDestination bool
	balanceInterval    time.Duration
	transferInterval   time.Duration
	deliveryTimeout    time.Duration

	rpcURL            string
	apiBase           string
	requestsPerSecond float64
}

func (c *Run) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	c.ServerFlags.SetFlags(fset)
	fset.BoolVar(&c.background, "background", false, "runs the daemon in background")
	fset.BoolVar(&c.restart, "restart", false, "when true, kills any old instance")
	fset.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 30*time.Second, "max timeout for shutdown when restarting")
	fset.BoolVar(&c.noPprof, "no-pprof", false, "when true net/http/pprof handler is not registered")
	fset.StringVar(&c.secretsPath, "secrets-file", "", "path to credentials file (default <data-dir>/secrets.json)")
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.logDir, "log-dir", "", "path to the log files directory (default <data-dir>/logs)")
	fset.BoolVar(&c.debugLog, "debug", false, "when true, debug messages are logged")
	fset.StringVar(&c.stateFile, "state-file", "", "when non-empty, tracked entities are saved to this json file instead of the database")
	fset.BoolVar(&c.noAlerts, "no-alerts", false, "when true, events are not forwarded to pushover or telegram")
	fset.BoolVar(&c.requireDestination, "require-destination", false, "when true, balance watches must have a callback url or broadcast")
	fset.DurationVar(&c.balanceInterval, "balance-interval", 5*time.Second, "default poll interval for balance watches")
	fset.DurationVar(&c.transferInterval, "transfer-interval", 30*time.Second, "default poll interval for transfer watches")
	fset.DurationVar(&c.deliveryTimeout, "delivery-timeout", 30*time.Second, "max time to deliver a single event")
	fset.StringVar(&c.rpcURL, "rpc-url", "", "base url for the balances api (default QUBIC_RPC_URL value)")
	fset.StringVar(&c.apiBase, "api-base", "", "base url for the transfer events api (default QUBIC_API_BASE value)")
	fset.Float64Var(&c.requestsPerSecond, "requests-per-second", 10, "max upstream requests per second")
	return "run", fset, cli.CmdFunc(c.run)
}

func (c *Run) Purpose() string {
	return "Runs ledgerwatch service in foreground or background"
}

func (c *Run) Description() string {
	return `

Command "run" starts the ledgerwatch service. The service loads the tracked
entities saved by a previous instance and resumes polling them automatically.

Upstream endpoints are taken from the flags, or from QUBIC_RPC_URL and
QUBIC_API_BASE environment variables, which can also be defined in the
.ledgerwatch.env file in the data directory or the home directory:

    QUBIC_RPC_URL=https://rpc.qubic.org/v1
    QUBIC_API_BASE=https://api.qubic.org

SECRETS FILE

Operator alerts are sent through Pushover and Telegram when their credentials
are present in the secrets file. Use "setup pushover" and "setup telegram"
commands to create it. Both are optional.

`
}

func (c *Run) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataDir, err := cmdutil.DataDir(c.dataDir)
	if err != nil {
		return err
	}

	if _, err := envfile.UpdateEnv(EnvFileName, envfile.SearchDirs(dataDir)); err != nil {
		return fmt.Errorf("could not load environment file: %w", err)
	}
	if _, err := envfile.UpdateEnv(EnvFileName); err != nil {
		return fmt.Errorf("could not load environment file: %w", err)
	}

	if len(c.secretsPath) == 0 {
		c.secretsPath = filepath.Join(dataDir, "secrets.json")
	}
	secrets, err := server.SecretsFromFile(c.secretsPath)
	if err != nil {
		return err
	}

	addr, err := c.ServerFlags.TCPAddr()
	if err != nil {
		return err
	}

	qopts := &qubic.Options{
		RPCURL:            firstNonEmpty(c.rpcURL, os.Getenv("QUBIC_RPC_URL")),
		APIBase:           firstNonEmpty(c.apiBase, os.Getenv("QUBIC_API_BASE")),
		RequestsPerSecond: c.requestsPerSecond,
	}
	client, err := qubic.New(qopts)
	if err != nil {
		return fmt.Errorf("could not create upstream ledger client: %w", err)
	}

	// Health checker for the background process initialization. We need to
	// verify that responding http server is really our child and not an older
	// instance.
	check := func(ctx context.Context, child *os.Process) (bool, error) {
		client := http.Client{Timeout: time.Second}
		resp, err := client.Get(fmt.Sprintf("http://%s/pid", addr.String()))
		if err != nil {
			return true, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return true, fmt.Errorf("http status: %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, err
		}
		if pid := strings.TrimSpace(string(data)); pid != fmt.Sprintf("%d", child.Pid) {
			err := fmt.Errorf("is another instance already running? pid mismatch: want %d got %s", child.Pid, pid)
			return c.restart, err
		}
		return false, nil
	}

	if c.background {
		if err := daemonize.Daemonize(ctx, nil /* opts */, check); err != nil {
			return err
		}
	}

	if len(c.logDir) == 0 {
		c.logDir = filepath.Join(dataDir, "logs")
	}
	if err := os.MkdirAll(c.logDir, 0700); err != nil {
		return fmt.Errorf("could not create log directory %q: %w", c.logDir, err)
	}
	backend := newLogBackend(c.logDir, c.debugLog)
	defer backend.Close()
	slog.SetDefault(slog.New(backend.Handler()))

	slog.Info("starting ledgerwatch", "data-dir", dataDir, "secrets-file", c.secretsPath, "log-dir", c.logDir)

	lockPath := filepath.Join(dataDir, "ledgerwatch.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		if !c.restart {
			return fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
		}
		owner, err := flock.GetOwner()
		if err != nil {
			return fmt.Errorf("could not get current owner of the lock file: %w", err)
		}
		if err := owner.Signal(os.Interrupt); err == nil {
			slog.Info("waiting for the previous instance to shutdown", "pid", owner.Pid)
			if err := ctxutil.RetryTimeout(ctx, time.Second, c.shutdownTimeout, flock.TryLock); err != nil {
				if err := owner.Signal(os.Kill); err != nil {
					return fmt.Errorf("could not kill current owner of the lock file: %w", err)
				}
				ctxutil.Sleep(ctx, time.Millisecond)
			}
		}
		if err := flock.TryLock(); err != nil {
			return fmt.Errorf("could not get lock on file %q after killing previous instance: %w", lockPath, err)
		}
	}
	defer flock.Unlock()

	// Start HTTP server.
	s, err := httputil.New(nil /* opts */)
	if err != nil {
		return err
	}
	defer s.Close()

	tcpServer, err := s.StartTCP(ctx, addr)
	if err != nil {
		return fmt.Errorf("could not start http server on %s: %w", addr, err)
	}
	defer s.Stop(tcpServer)

	if !c.noPprof {
		s.AddHandler("/debug/pprof/", http.HandlerFunc(pprof.Index))
		s.AddHandler("/debug/pprof/profile", http.HandlerFunc(pprof.Profile))
		s.AddHandler("/debug/pprof/heap", pprof.Handler("heap"))
		s.AddHandler("/debug/pprof/goroutine", pprof.Handler("goroutine"))
		s.AddHandler("/debug/pprof/allocs", pprof.Handler("allocs"))
		s.AddHandler("/debug/pprof/block", pprof.Handler("block"))
		s.AddHandler("/debug/pprof/mutex", pprof.Handler("mutex"))
	}

	// Open the database.
	bopts := badger.DefaultOptions(filepath.Join(dataDir, "db"))
	bdb, err := badger.Open(bopts)
	if err != nil {
		return fmt.Errorf("could not open the database: %w", err)
	}
	defer bdb.Close()
	db := kvbadger.New(bdb, cmdutil.IsGoodKey)

	s.AddHandler("/db/", http.StripPrefix("/db", kvhttp.Handler(db)))

	// Start other services.
	sopts := &server.Options{
		StateFile: c.stateFile,
		NoAlerts:  c.noAlerts,
		Tracker: tracker.Options{
			DefaultBalanceInterval:  c.balanceInterval,
			DefaultTransferInterval: c.transferInterval,
			DeliveryTimeout:         c.deliveryTimeout,
			RequireDestination:      c.requireDestination,
		},
	}
	watcher, err := server.New(secrets, db, client, sopts)
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Add api handlers
	watcherAPIs := watcher.HandlerMap()
	for k, v := range watcherAPIs {
		s.AddHandler(k, v)
	}
	defer func() {
		for k := range watcherAPIs {
			s.RemoveHandler(k)
		}
	}()

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := watcher.Stop(context.Background()); err != nil {
			slog.Error("could not stop all poll jobs (ignored)", "err", err)
		}
	}()

	slog.Info("started ledgerwatch server", "addr", addr.String(), "pid", os.Getpid())
	s.AddHandler("/pid", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, fmt.Sprintf("%d", os.Getpid()))
	}))

	// Wait for the signals
	<-ctx.Done()
	slog.Info("ledgerwatch server is shutting down")
	return nil
}

// newLogBackend creates the per-severity log files backend. Debug messages
// are dropped unless debug is true.
func newLogBackend(logDir string, debug bool) *sglog.Backend {
	backend := sglog.NewBackend(&sglog.Options{
		Name:                 "ledgerwatch",
		LogDirs:              []string{logDir},
		LogFileReuseDuration: time.Hour,
	})
	if debug {
		backend.SetLevel(slog.LevelDebug)
	}
	return backend
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if len(v) != 0 {
			return v
		}
	}
	return ""
}
