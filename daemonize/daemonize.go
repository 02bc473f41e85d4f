// Copyright (c) 2023 BVK Chaitanya

package daemonize

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"log/syslog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultEnvKey is the environment variable used to tell the background
// process apart from the parent. When set, it holds the parent process pid.
const DefaultEnvKey = "LEDGERWATCH_DAEMONIZE"

// CheckFunc reports whether the background child process has initialized.
// Returning a nil error completes the wait. Returning a non-nil error with
// retry set to true keeps waiting; retry set to false aborts Daemonize.
type CheckFunc func(ctx context.Context, child *os.Process) (retry bool, err error)

type Options struct {
	// EnvKey overrides DefaultEnvKey.
	EnvKey string

	// SyslogTag is used for the standard library log output in the child.
	SyslogTag string

	// CheckInterval is the delay between check attempts.
	CheckInterval time.Duration
}

func (v *Options) setDefaults() {
	if len(v.EnvKey) == 0 {
		v.EnvKey = DefaultEnvKey
	}
	if len(v.SyslogTag) == 0 {
		v.SyslogTag = "ledgerwatch"
	}
	if v.CheckInterval == 0 {
		v.CheckInterval = time.Second
	}
}

// IsChild returns true if current process is a background process spawned by
// Daemonize.
func IsChild(envKey string) bool {
	_, ok := ParentPID(envKey)
	return ok
}

// ParentPID returns the pid of the process that spawned the current
// background process.
func ParentPID(envKey string) (int, bool) {
	v := os.Getenv(envKey)
	if len(v) == 0 {
		return 0, false
	}
	pid, err := strconv.Atoi(v)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// Daemonize respawns the current program in the background with the same
// command-line arguments and environment. It *must* be called during the
// program startup before opening databases, starting servers, etc.
//
// Standard input and standard outputs in the background process are replaced
// with /dev/null and standard library log is redirected to syslog.
//
// Parent process uses the check function to wait for the background process
// to initialize successfully or die unsuccessfully.
//
// When successful, Daemonize returns nil to the background process and exits
// the parent process (i.e., never returns). When unsuccessful, Daemonize
// returns non-nil error to the parent process and exits the background process
// (i.e., never returns).
func Daemonize(ctx context.Context, opts *Options, check CheckFunc) error {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()

	if !IsChild(opts.EnvKey) {
		if err := daemonizeParent(ctx, opts, check); err != nil {
			return err
		}
		os.Exit(0)
	}
	if err := daemonizeChild(opts); err != nil {
		os.Exit(1)
	}
	return nil
}

func daemonizeParent(ctx context.Context, opts *Options, check CheckFunc) error {
	binary, err := exec.LookPath(os.Args[0])
	if err != nil {
		return fmt.Errorf("failed to lookup binary: %w", err)
	}
	binaryPath, err := filepath.Abs(binary)
	if err != nil {
		return fmt.Errorf("could not determine absolute path for binary: %w", err)
	}

	file, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", os.DevNull, err)
	}
	defer file.Close()

	// Receive signal when child-process dies.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGCHLD, os.Interrupt)
	defer stop()

	attr := &os.ProcAttr{
		Dir:   "/",
		Env:   childEnv(os.Environ(), opts.EnvKey, os.Getpid()),
		Files: []*os.File{file, file, file},
	}
	child, err := os.StartProcess(binaryPath, os.Args, attr)
	if err != nil {
		return fmt.Errorf("failed to start process: %w", err)
	}

	if check != nil {
		for ctx.Err() == nil {
			time.Sleep(opts.CheckInterval)
			retry, err := check(ctx, child)
			if err == nil {
				break
			}
			if !retry {
				return fmt.Errorf("background process failed to initialize: %w", err)
			}
			slog.WarnContext(ctx, "daemon process not yet initialized", "pid", child.Pid, "err", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("could not initialize the background process: %w", err)
	}
	slog.InfoContext(ctx, "started background process", "pid", child.Pid)
	return nil
}

func daemonizeChild(opts *Options) error {
	syslogger, err := syslog.New(syslog.LOG_INFO, opts.SyslogTag)
	if err != nil {
		return fmt.Errorf("could not create syslog: %w", err)
	}
	log.SetOutput(syslogger)

	if _, err := unix.Setsid(); err != nil {
		return fmt.Errorf("could not set session id: %w", err)
	}
	return nil
}

// childEnv returns environ with envKey replaced by the parent pid.
func childEnv(environ []string, envKey string, ppid int) []string {
	prefix := envKey + "="
	env := make([]string, 0, len(environ)+1)
	for _, v := range environ {
		if !strings.HasPrefix(v, prefix) {
			env = append(env, v)
		}
	}
	return append(env, fmt.Sprintf("%s%d", prefix, ppid))
}
