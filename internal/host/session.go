// Package host composes the command executor, process registry, mount
// manager, and network fault injector into one session per target machine,
// and owns teardown on disposal.
package host

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rileyhilliard/hostkit/internal/config"
	"github.com/rileyhilliard/hostkit/internal/exec"
	"github.com/rileyhilliard/hostkit/internal/logger"
	"github.com/rileyhilliard/hostkit/internal/mount"
	"github.com/rileyhilliard/hostkit/internal/netfault"
)

// runner is everything the session shells out through. *exec.Executor
// satisfies it; tests substitute a fake.
type runner interface {
	Run(cmd string, opts exec.RunOpts) (*exec.Result, error)
	Start(cmd string, opts exec.RunOpts) (*exec.Process, error)
	Local() bool
	Processes() *exec.Registry
	LastResult() *exec.Result
}

// Session is a running host instance. All remote execution, whether for
// mounting, probing, or fault injection, goes through the session's single
// executor so it shares one transport policy. Sessions are not safe for
// concurrent mutation from multiple goroutines.
type Session struct {
	id  string
	cfg *config.Config
	log logger.Logger

	run       runner
	validator *mount.Validator
	mounts    *mount.Manager
	net       *netfault.Injector

	addr string

	closeOnce sync.Once
}

// New creates a session for the configured target, validating the
// configuration and resolving the session's own address (IPv6 when the NFS
// protocol name ends in "6"). Address resolution failure is logged, not
// fatal. The caller owns the session and must Close it.
func New(cfg *config.Config, log logger.Logger) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.Default()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	id := uuid.NewString()[:8]
	slog := logger.Prefixed(log, "[host "+id+"]")

	ex := exec.NewExecutor(exec.Options{
		Host:      cfg.Host,
		User:      cfg.User,
		Sudo:      cfg.Sudo,
		Transport: cfg.Transport,
	}, slog)

	s := newSession(cfg, slog, ex, id)

	ipv6 := strings.HasSuffix(cfg.Proto, "6")
	addr, err := ResolveAddress(cfg.Host, ipv6)
	if err != nil {
		slog.Warn("address resolution failed: %v", err)
	}
	s.addr = addr

	return s, nil
}

// newSession wires the components around a runner. Split from New so tests
// can inject a fake runner.
func newSession(cfg *config.Config, log logger.Logger, r runner, id string) *Session {
	validator := mount.NewValidator(r, log)
	return &Session{
		id:        id,
		cfg:       cfg,
		log:       log,
		run:       r,
		validator: validator,
		mounts:    mount.NewManager(r, validator, cfg, log),
		net:       netfault.NewInjector(r, cfg.IPTables, log),
	}
}

// ID returns the short session id used as the log prefix.
func (s *Session) ID() string {
	return s.id
}

// Address returns the session's resolved non-loopback address, or empty if
// resolution failed.
func (s *Session) Address() string {
	return s.addr
}

// Local reports whether the session targets the local machine.
func (s *Session) Local() bool {
	return s.run.Local()
}

// Run executes a command and waits for completion.
func (s *Session) Run(cmd string, opts exec.RunOpts) (*exec.Result, error) {
	return s.run.Run(cmd, opts)
}

// Start executes a command in the background. The returned process is
// tracked until waited on or stopped.
func (s *Session) Start(cmd string, opts exec.RunOpts) (*exec.Process, error) {
	return s.run.Start(cmd, opts)
}

// Wait blocks until the process exits naturally; a nil process waits for
// all tracked processes. Returns the exit status of the last one handled.
func (s *Session) Wait(p *exec.Process) int {
	return s.run.Processes().Wait(p, false)
}

// Stop terminates the process; a nil process stops all tracked processes.
func (s *Session) Stop(p *exec.Process) int {
	return s.run.Processes().Stop(p)
}

// StopAll terminates every tracked process.
func (s *Session) StopAll() int {
	return s.run.Processes().Stop(nil)
}

// LastResult returns the most recent blocking command result.
func (s *Session) LastResult() *exec.Result {
	return s.run.LastResult()
}

// Mount attaches the configured export, with per-call overrides.
func (s *Session) Mount(opts *mount.Options) (string, error) {
	return s.mounts.Mount(opts)
}

// Unmount detaches the file system; failures are logged, never raised.
func (s *Session) Unmount() {
	s.mounts.Unmount()
}

// Mounted reports whether the session currently holds a mount.
func (s *Session) Mounted() bool {
	return s.mounts.Mounted()
}

// DataDir returns the effective data directory for test artifacts.
func (s *Session) DataDir() string {
	return s.mounts.DataDir()
}

// DropTraffic discards outbound TCP packets to addr:port to simulate a
// network partition.
func (s *Session) DropTraffic(addr string, port int) error {
	return s.net.DropTraffic(addr, port)
}

// ResetNetwork clears all packet-filter rules, best-effort.
func (s *Session) ResetNetwork() {
	s.net.Reset()
}

// RouteTo returns routing information for the destination address.
func (s *Session) RouteTo(addr string) netfault.Route {
	return s.net.RouteTo(addr)
}

// Close tears the session down: network reset if a drop rule was ever
// installed, unmount if mounted, then removal of every directory this
// session auto-created. Teardown is total-effort and never returns an
// error; it typically runs during disposal where no caller remains to
// observe one. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.net.NeedsReset() {
			s.net.Reset()
		}
		if s.mounts.Mounted() {
			s.mounts.Unmount()
		}
		for _, dir := range s.validator.Created() {
			if _, err := s.run.Run("rmdir "+dir,
				exec.RunOpts{Sudo: true, Msg: "Removing mount point directory: "}); err != nil {
				s.log.Debug("rmdir %s failed: %v", dir, err)
			}
		}
	})
	return nil
}
