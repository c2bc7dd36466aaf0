// Package exec runs commands on the local machine or a remote machine
// through a transport command, synchronously or in the background, and
// normalizes output, error payload, and exit status across both modes.
package exec

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	osexec "os/exec"
	"strings"
	"sync"

	"github.com/rileyhilliard/hostkit/internal/errors"
	"github.com/rileyhilliard/hostkit/internal/logger"
	"github.com/rileyhilliard/hostkit/internal/util"
)

// transportExitCode is the exit code reserved by ssh-like transports for
// failures of the remote session itself (connection, auth), as opposed to
// the remote command's own exit status.
const transportExitCode = 255

// Options configures an Executor.
type Options struct {
	// Host is the remote machine. Empty means local execution.
	Host string
	// User to log in as on the remote machine. The transport must accept
	// the connection without a password prompt.
	User string
	// Sudo is the privileged-execution command path prefixed when a
	// command needs elevation and the caller is not already root.
	Sudo string
	// Transport is the remote-execution command path (ssh compatible:
	// must support "-t -t user@host" and reserve exit code 255 for
	// session failures).
	Transport string
}

// RunOpts are per-call options for Run and Start.
type RunOpts struct {
	// Sudo prefixes the privileged-execution command before any remote
	// wrapping, so elevation happens on the target host.
	Sudo bool
	// Msg is prepended to the debug message showing the command.
	Msg string
}

// Executor runs commands for a single host. All remote execution for a
// session (mounting, probing, fault injection) goes through one Executor so
// it all shares one transport policy.
type Executor struct {
	host      string
	user      string
	sudoCmd   string
	transport string
	shell     string
	log       logger.Logger

	registry *Registry

	// euid is a seam for tests; defaults to os.Geteuid.
	euid func() int

	mu   sync.Mutex
	last *Result
}

// NewExecutor creates an Executor for the given target.
func NewExecutor(opts Options, log logger.Logger) *Executor {
	if log == nil {
		log = logger.Noop()
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	e := &Executor{
		host:      opts.Host,
		user:      opts.User,
		sudoCmd:   opts.Sudo,
		transport: opts.Transport,
		shell:     shell,
		log:       log,
		euid:      os.Geteuid,
	}
	e.registry = &Registry{exec: e, log: log}
	return e
}

// Local reports whether commands run on the local machine.
func (e *Executor) Local() bool {
	return e.host == ""
}

// Processes returns the registry tracking backgrounded processes.
func (e *Executor) Processes() *Registry {
	return e.registry
}

// Run executes a command and waits for it to complete. The returned Result
// is non-nil even when err is non-nil so probe callers can inspect the exit
// code. Failures are classified by failure domain:
//
//   - local non-zero exit: LOCAL, error payload is stderr
//   - remote exit 255: TRANSPORT, error payload is stderr (the session
//     itself failed, not the remote command)
//   - remote other non-zero exit: REMOTE, error payload is stdout (the
//     transport merges the remote command's stderr into stdout)
func (e *Executor) Run(cmd string, opts RunOpts) (*Result, error) {
	full := e.build(cmd, opts.Sudo)
	e.log.Debug("%s%s", opts.Msg, full)

	command := osexec.Command(e.shell, "-c", full)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	exitCode := 0
	if runErr := command.Run(); runErr != nil {
		exitErr, ok := runErr.(*osexec.ExitError)
		if !ok {
			res := &Result{ExitCode: -1, Remote: !e.Local()}
			e.setLast(res)
			return res, errors.WrapWithCode(runErr, errors.ErrLocal,
				"Couldn't run the command",
				"Make sure the shell and command exist and are executable.")
		}
		exitCode = exitErr.ExitCode()
	}

	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Remote:   !e.Local(),
	}
	err := classify(res)
	e.setLast(res)
	return res, err
}

// Start executes a command without waiting. The returned Process is tracked
// by the registry, which remembers whether it was started with elevation so
// it can later be stopped with a privileged kill.
func (e *Executor) Start(cmd string, opts RunOpts) (*Process, error) {
	full := e.build(cmd, opts.Sudo)
	e.log.Debug("%s%s", opts.Msg, full)

	command := osexec.Command(e.shell, "-c", full)
	var output bytes.Buffer
	command.Stdout = &output
	command.Stderr = &output

	if err := command.Start(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrLocal,
			"Couldn't start the command",
			"Make sure the shell and command exist and are executable.")
	}

	p := &Process{cmd: command, sudo: opts.Sudo, output: &output}
	e.registry.add(p)
	return p, nil
}

// LastResult returns the result of the most recent blocking Run, or nil if
// none has completed. Supports callers that must inspect error details after
// a caught failure without re-threading result values through every call.
func (e *Executor) LastResult() *Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *Executor) setLast(res *Result) {
	e.mu.Lock()
	e.last = res
	e.mu.Unlock()
}

// build applies the sudo prefix and remote wrapping to a command.
// Elevation is applied before wrapping so it happens on the target host.
func (e *Executor) build(cmd string, sudo bool) string {
	if sudo && e.euid() != 0 {
		cmd = e.sudoCmd + " " + cmd
	}
	if !e.Local() {
		target := e.host
		if e.user != "" {
			target = e.user + "@" + e.host
		}
		cmd = fmt.Sprintf(`%s -t -t %s "%s"`, e.transport, target, util.EscapeDoubleQuotes(cmd))
	}
	return cmd
}

// classify returns the structured error matching a non-zero exit, with the
// result's error payload (see Result.ErrorText) as the cause.
func classify(res *Result) error {
	if res.ExitCode == 0 {
		return nil
	}

	if !res.Remote {
		return errors.WrapWithCode(payloadErr(res.ErrorText()), errors.ErrLocal,
			fmt.Sprintf("Local command failed (exit %d)", res.ExitCode), "")
	}

	if res.ExitCode == transportExitCode {
		return errors.WrapWithCode(payloadErr(res.ErrorText()), errors.ErrTransport,
			"Remote session failed",
			"Check the transport can reach the host without a password prompt.")
	}

	return errors.WrapWithCode(payloadErr(res.ErrorText()), errors.ErrRemote,
		fmt.Sprintf("Remote command failed (exit %d)", res.ExitCode), "")
}

func payloadErr(payload string) error {
	return stderrors.New(strings.TrimSpace(payload))
}
