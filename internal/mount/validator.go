// Package mount drives the NFS mount/unmount state machine: mount point
// validation, mount command construction, data directory creation, and
// bounded-retry unmount.
package mount

import (
	"os"

	"github.com/rileyhilliard/hostkit/internal/errors"
	"github.com/rileyhilliard/hostkit/internal/exec"
	"github.com/rileyhilliard/hostkit/internal/logger"
	"github.com/rileyhilliard/hostkit/internal/util"
)

// Runner is the subset of the executor used by mount components.
type Runner interface {
	// Run executes a command and returns its result. The result is
	// non-nil even on failure so probe callers can inspect exit codes.
	Run(cmd string, opts exec.RunOpts) (*exec.Result, error)
	// Local reports whether commands run on the local machine.
	Local() bool
}

// pathState records the validation outcome for a mount point this session.
type pathState int

const (
	// stateUnchecked is the default for paths never validated.
	stateUnchecked pathState = iota
	// stateChecked means the path was validated once this session:
	// it exists and is a directory, or was just created.
	stateChecked
	// stateInvalid means the path exists but is not a directory. It is
	// permanently rejected for mount operations this session.
	stateInvalid
)

// Validator checks and creates mount point directories, memoizing the
// outcome per path to avoid repeated remote round-trips and to refuse
// operating on invalid paths.
type Validator struct {
	runner Runner
	log    logger.Logger

	states  map[string]pathState
	created []string
}

// NewValidator creates a Validator backed by the given runner.
func NewValidator(runner Runner, log logger.Logger) *Validator {
	if log == nil {
		log = logger.Noop()
	}
	return &Validator{
		runner: runner,
		log:    log,
		states: make(map[string]pathState),
	}
}

// EnsureValid checks that the path exists and is a directory, creating it
// (with elevation) when missing. The check runs at most once per path per
// session; later calls are no-ops regardless of filesystem changes in
// between. A path that exists but is not a directory is recorded invalid
// and returns a MOUNTPOINT error on this first call only.
func (v *Validator) EnsureValid(path string) error {
	if v.states[path] != stateUnchecked {
		return nil
	}
	// Memoized before the outcome is known so a failed creation attempt
	// is not retried either.
	v.states[path] = stateChecked

	exists, isDir := v.probe(path)

	if !exists {
		_, err := v.runner.Run("mkdir -p "+path,
			exec.RunOpts{Sudo: true, Msg: "Creating mount point directory: "})
		if err != nil {
			return err
		}
		v.created = append(v.created, path)
		return nil
	}

	if !isDir {
		v.states[path] = stateInvalid
		return errors.New(errors.ErrMountPoint,
			"Mount point "+path+" is not a directory",
			"Remove the file or configure a different mtpoint")
	}

	return nil
}

// Invalid reports whether the path was recorded as exists-but-not-a-directory.
// Mount and unmount short-circuit without side effects for such paths.
func (v *Validator) Invalid(path string) bool {
	return v.states[path] == stateInvalid
}

// Created returns every path this session created, in creation order, so
// teardown can attempt to remove exactly those paths and only those.
func (v *Validator) Created() []string {
	out := make([]string, len(v.created))
	copy(out, v.created)
	return out
}

// probe determines existence and directory-ness. Locally via a filesystem
// query; remotely via two best-effort command probes whose failures count
// as a negative answer, never as an error.
func (v *Validator) probe(path string) (exists, isDir bool) {
	if v.runner.Local() {
		info, err := os.Stat(path)
		if err != nil {
			return false, false
		}
		return true, info.IsDir()
	}

	quoted := util.ShellQuote(path)

	res, _ := v.runner.Run("test -e "+quoted,
		exec.RunOpts{Msg: "Check if mount point directory exists: "})
	exists = res != nil && res.ExitCode == 0
	if !exists {
		return false, false
	}

	res, _ = v.runner.Run("test -d "+quoted,
		exec.RunOpts{Msg: "Check if mount point is a directory: "})
	isDir = res != nil && res.ExitCode == 0
	return true, isDir
}
