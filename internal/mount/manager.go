package mount

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/rileyhilliard/hostkit/internal/config"
	"github.com/rileyhilliard/hostkit/internal/errors"
	"github.com/rileyhilliard/hostkit/internal/exec"
	"github.com/rileyhilliard/hostkit/internal/logger"
	"github.com/rileyhilliard/hostkit/internal/util"
)

// umountRetries is how many forced unmount attempts are made before giving up.
const umountRetries = 5

// umountRetryPause is the pause before each unmount attempt.
const umountRetryPause = time.Second

// notMountedRE recognizes "nothing to unmount" in the error payload, which
// counts as an idempotent success.
var notMountedRE = regexp.MustCompile(`not (mounted|found)`)

// Options selectively overrides the session configuration for one mount
// call. Zero-valued fields fall back to the configured defaults.
// MinorVersion is a pointer so an explicit 0 can be expressed.
type Options struct {
	Server       string
	NFSVersion   int
	MinorVersion *int
	Proto        string
	Port         int
	Sec          string
	Export       string
	MountPoint   string
	DataDir      string
	MountOpts    string
}

// Manager drives the mount/unmount lifecycle for one session. The lifecycle
// is idempotent and resilient to partially-mounted or partially-created
// state across repeated invocations.
type Manager struct {
	runner    Runner
	validator *Validator
	cfg       *config.Config
	log       logger.Logger

	// sleep is a seam for tests; defaults to time.Sleep.
	sleep func(time.Duration)

	mounted   bool
	mountPath string
	dataDir   string
	lastErr   error
}

// NewManager creates a Manager sharing the session's runner and validator.
func NewManager(runner Runner, validator *Validator, cfg *config.Config, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Noop()
	}
	return &Manager{
		runner:    runner,
		validator: validator,
		cfg:       cfg,
		log:       log,
		sleep:     time.Sleep,
		dataDir:   cfg.MountPoint,
	}
}

// Mounted reports whether a mount command succeeded and no unmount has since
// been accepted.
func (m *Manager) Mounted() bool {
	return m.mounted
}

// MountPath returns the normalized mount point of the last successful mount.
func (m *Manager) MountPath() string {
	return m.mountPath
}

// DataDir returns the effective data directory for test artifacts.
func (m *Manager) DataDir() string {
	return m.dataDir
}

// LastError returns the error retained by the last failed unmount cycle.
func (m *Manager) LastError() error {
	return m.lastErr
}

// Mount attaches the export on the mount point and returns the normalized
// mount point. The mount point is validated (and created when missing)
// first; in nomount mode, or when the path is recorded invalid, Mount
// returns without side effects. A failed mount command propagates as a
// MOUNT error and the state stays unmounted.
func (m *Manager) Mount(opts *Options) (string, error) {
	o := m.merge(opts)

	mtpoint := strings.TrimRight(o.MountPoint, "/")

	if o.DataDir != "" {
		m.dataDir = path.Join(mtpoint, o.DataDir)
	} else {
		m.dataDir = mtpoint
	}

	if err := m.validator.EnsureValid(mtpoint); err != nil {
		return "", err
	}
	if m.cfg.NoMount || m.validator.Invalid(mtpoint) {
		return "", nil
	}

	export := o.Export
	if len(export) > 1 {
		// Keep the trailing separator only for the root export.
		export = strings.TrimRight(export, "/")
	}

	mtopts := o.MountOpts
	if !strings.HasSuffix(mtopts, ",") {
		mtopts += ","
	}

	// The minorversion clause only exists for NFSv4.
	minor := ""
	if o.NFSVersion == 4 {
		minor = fmt.Sprintf("minorversion=%d,", *o.MinorVersion)
	}

	cmd := fmt.Sprintf("mount -o vers=%d,%s%sproto=%s,sec=%s,port=%d %s:%s %s",
		o.NFSVersion, minor, mtopts, o.Proto, o.Sec, o.Port, o.Server, export, mtpoint)

	if _, err := m.runner.Run(cmd, exec.RunOpts{Sudo: true, Msg: "Mount volume: "}); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrMount,
			"Mount command failed",
			"Check the server exports the path and the NFS options match")
	}

	m.mounted = true
	m.mountPath = mtpoint

	// The data directory is a subdirectory that only exists after the
	// mount succeeds, so its creation is separate from mount point
	// validation.
	if err := m.ensureDataDir(); err != nil {
		return mtpoint, err
	}

	return mtpoint, nil
}

// Unmount detaches the file system. Nothing is raised: unmount runs during
// teardown sequences that must continue, so failures are logged and retained
// in LastError. Success is exit 0 or an error payload reporting the path is
// not mounted. Up to umountRetries forced attempts are made with a pause
// before each.
func (m *Manager) Unmount() {
	if m.cfg.NoMount {
		return
	}

	mtpoint := m.mountPath
	if mtpoint == "" {
		mtpoint = strings.TrimRight(m.cfg.MountPoint, "/")
	}

	if err := m.validator.EnsureValid(mtpoint); err != nil {
		m.log.Warn("unmount skipped: %v", err)
		return
	}
	if m.validator.Invalid(mtpoint) {
		return
	}

	// Commit dirty state to stable storage before forcing the unmount.
	m.log.Debug("Sync all buffers to disk")
	_, _ = m.runner.Run("sync", exec.RunOpts{Msg: "Sync filesystem buffers: "})

	cmd := "umount -f " + mtpoint
	for i := 0; i < umountRetries; i++ {
		m.sleep(umountRetryPause)

		res, err := m.runner.Run(cmd, exec.RunOpts{Sudo: true, Msg: "Unmount volume: "})
		if err == nil || (res != nil && notMountedRE.MatchString(res.ErrorText())) {
			m.mounted = false
			m.lastErr = nil
			return
		}

		m.lastErr = err
		if res != nil {
			m.log.Debug("%s", res.ErrorText())
		}
	}

	m.log.Warn("unmount of %s failed after %d attempts", mtpoint, umountRetries)
}

// ensureDataDir creates the data directory (world-writable) when absent.
func (m *Manager) ensureDataDir() error {
	if m.runner.Local() {
		if _, err := os.Stat(m.dataDir); os.IsNotExist(err) {
			m.log.Debug("Creating data directory: %s", m.dataDir)
			if err := os.Mkdir(m.dataDir, 0o777); err != nil {
				return errors.WrapWithCode(err, errors.ErrMount,
					"Couldn't create data directory "+m.dataDir, "")
			}
		}
		return nil
	}

	res, _ := m.runner.Run("test -e "+util.ShellQuote(m.dataDir),
		exec.RunOpts{Msg: "Check if data directory exists: "})
	if res != nil && res.ExitCode == 0 {
		return nil
	}

	_, err := m.runner.Run("mkdir -m 0777 -p "+m.dataDir,
		exec.RunOpts{Msg: "Creating data directory: "})
	return err
}

// merge fills an Options value from per-call overrides and session defaults.
func (m *Manager) merge(opts *Options) Options {
	o := Options{
		Server:     m.cfg.Server,
		NFSVersion: m.cfg.NFSVersion,
		Proto:      m.cfg.Proto,
		Port:       m.cfg.Port,
		Sec:        m.cfg.Sec,
		Export:     m.cfg.Export,
		MountPoint: m.cfg.MountPoint,
		DataDir:    m.cfg.DataDir,
		MountOpts:  m.cfg.MountOpts,
	}
	minor := m.cfg.MinorVersion
	o.MinorVersion = &minor

	if opts == nil {
		return o
	}

	if opts.Server != "" {
		o.Server = opts.Server
	}
	if opts.NFSVersion != 0 {
		o.NFSVersion = opts.NFSVersion
	}
	if opts.MinorVersion != nil {
		o.MinorVersion = opts.MinorVersion
	}
	if opts.Proto != "" {
		o.Proto = opts.Proto
	}
	if opts.Port != 0 {
		o.Port = opts.Port
	}
	if opts.Sec != "" {
		o.Sec = opts.Sec
	}
	if opts.Export != "" {
		o.Export = opts.Export
	}
	if opts.MountPoint != "" {
		o.MountPoint = opts.MountPoint
	}
	if opts.DataDir != "" {
		o.DataDir = opts.DataDir
	}
	if opts.MountOpts != "" {
		o.MountOpts = opts.MountOpts
	}
	return o
}
