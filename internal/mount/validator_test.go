package mount

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/hostkit/internal/errors"
	"github.com/rileyhilliard/hostkit/internal/exec"
	"github.com/rileyhilliard/hostkit/internal/logger"
)

// fakeRunner records commands and answers them from a script function.
type fakeRunner struct {
	local bool
	cmds  []string
	// script answers a command; nil means "exit 0".
	script func(cmd string) (*exec.Result, error)
}

func (f *fakeRunner) Run(cmd string, opts exec.RunOpts) (*exec.Result, error) {
	f.cmds = append(f.cmds, cmd)
	if f.script != nil {
		return f.script(cmd)
	}
	return &exec.Result{ExitCode: 0, Remote: !f.local}, nil
}

func (f *fakeRunner) Local() bool { return f.local }

// fail builds a scripted failure the way the executor reports one.
func fail(res *exec.Result) (*exec.Result, error) {
	return res, errors.New(errors.ErrRemote, "command failed", "")
}

func TestEnsureValid_ExistingDirectoryLocal(t *testing.T) {
	f := &fakeRunner{local: true}
	v := NewValidator(f, logger.Noop())

	err := v.EnsureValid(t.TempDir())

	require.NoError(t, err)
	assert.Empty(t, f.cmds)
	assert.Empty(t, v.Created())
}

func TestEnsureValid_MissingPathIsCreatedElevated(t *testing.T) {
	f := &fakeRunner{local: true}
	v := NewValidator(f, logger.Noop())
	path := filepath.Join(t.TempDir(), "mnt")

	err := v.EnsureValid(path)

	require.NoError(t, err)
	require.Len(t, f.cmds, 1)
	assert.Equal(t, "mkdir -p "+path, f.cmds[0])
	assert.Equal(t, []string{path}, v.Created())
}

func TestEnsureValid_SecondCallIsNoop(t *testing.T) {
	f := &fakeRunner{local: true}
	v := NewValidator(f, logger.Noop())
	path := filepath.Join(t.TempDir(), "mnt")

	require.NoError(t, v.EnsureValid(path))
	before := len(f.cmds)

	// Even if the filesystem changed in between, the memo wins.
	require.NoError(t, v.EnsureValid(path))

	assert.Equal(t, before, len(f.cmds))
}

func TestEnsureValid_FileIsInvalid(t *testing.T) {
	f := &fakeRunner{local: true}
	v := NewValidator(f, logger.Noop())
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	err := v.EnsureValid(path)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrMountPoint))
	assert.True(t, v.Invalid(path))

	// Later calls short-circuit without re-raising.
	assert.NoError(t, v.EnsureValid(path))
	assert.True(t, v.Invalid(path))
}

func TestEnsureValid_RemoteProbes(t *testing.T) {
	f := &fakeRunner{}
	v := NewValidator(f, logger.Noop())

	require.NoError(t, v.EnsureValid("/mnt/t"))

	require.Len(t, f.cmds, 2)
	assert.Equal(t, "test -e '/mnt/t'", f.cmds[0])
	assert.Equal(t, "test -d '/mnt/t'", f.cmds[1])
	assert.Empty(t, v.Created())
}

func TestEnsureValid_RemoteMissingPath(t *testing.T) {
	f := &fakeRunner{}
	f.script = func(cmd string) (*exec.Result, error) {
		if cmd == "test -e '/mnt/t'" {
			return fail(&exec.Result{ExitCode: 1, Remote: true})
		}
		return &exec.Result{ExitCode: 0, Remote: true}, nil
	}
	v := NewValidator(f, logger.Noop())

	require.NoError(t, v.EnsureValid("/mnt/t"))

	require.Len(t, f.cmds, 2)
	assert.Equal(t, "mkdir -p /mnt/t", f.cmds[1])
	assert.Equal(t, []string{"/mnt/t"}, v.Created())
}

func TestEnsureValid_RemoteNotADirectory(t *testing.T) {
	f := &fakeRunner{}
	f.script = func(cmd string) (*exec.Result, error) {
		if cmd == "test -d '/mnt/t'" {
			return fail(&exec.Result{ExitCode: 1, Remote: true})
		}
		return &exec.Result{ExitCode: 0, Remote: true}, nil
	}
	v := NewValidator(f, logger.Noop())

	err := v.EnsureValid("/mnt/t")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrMountPoint))
	assert.True(t, v.Invalid("/mnt/t"))
}
