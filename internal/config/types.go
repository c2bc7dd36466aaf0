package config

// Config represents the complete .hostkit.yaml configuration file.
// Fields are immutable after loading; mount-time overrides are expressed
// per call via mount.Options.
type Config struct {
	// Host is the hostname or IP address of the machine commands run on.
	// Empty means the local machine (no transport wrapping).
	Host string `yaml:"host" mapstructure:"host"`

	// User to log in to the remote host. The transport must accept the
	// connection without a password prompt.
	User string `yaml:"user" mapstructure:"user"`

	// Server is the NFS server name or IP address.
	Server string `yaml:"server" mapstructure:"server"`

	// NFSVersion is the NFS major version.
	NFSVersion int `yaml:"nfsversion" mapstructure:"nfsversion" validate:"oneof=3 4"`

	// MinorVersion is the NFS minor version, emitted only for version 4.
	MinorVersion int `yaml:"minorversion" mapstructure:"minorversion" validate:"gte=0"`

	// Proto is the NFS transport protocol ("tcp", "udp", "tcp6", "udp6").
	Proto string `yaml:"proto" mapstructure:"proto" validate:"oneof=tcp udp tcp6 udp6"`

	// Port is the NFS server port.
	Port int `yaml:"port" mapstructure:"port" validate:"gt=0,lte=65535"`

	// Sec is the security flavor.
	Sec string `yaml:"sec" mapstructure:"sec" validate:"required"`

	// Export is the exported file system to mount.
	Export string `yaml:"export" mapstructure:"export" validate:"required"`

	// MountPoint is the directory the export is attached on.
	MountPoint string `yaml:"mtpoint" mapstructure:"mtpoint" validate:"required"`

	// DataDir is the subdirectory under the mount point used for test
	// artifacts, created after a successful mount. Empty means the mount
	// point itself is used.
	DataDir string `yaml:"datadir" mapstructure:"datadir"`

	// MountOpts is the mount option string appended to the version clauses.
	MountOpts string `yaml:"mtopts" mapstructure:"mtopts" validate:"required"`

	// Interface is the network device interface.
	Interface string `yaml:"interface" mapstructure:"interface"`

	// NoMount disables all mount/unmount side effects while still
	// exercising the validation path. Debug option.
	NoMount bool `yaml:"nomount" mapstructure:"nomount"`

	// Sudo is the privileged-execution command path.
	Sudo string `yaml:"sudo" mapstructure:"sudo" validate:"required"`

	// Transport is the remote-execution command path.
	Transport string `yaml:"transport" mapstructure:"transport" validate:"required"`

	// IPTables is the packet-filter command path used for fault injection.
	IPTables string `yaml:"iptables" mapstructure:"iptables" validate:"required"`
}

// Local reports whether commands target the local machine.
func (c *Config) Local() bool {
	return c.Host == ""
}

// DefaultConfig returns a Config with the defaults of the original harness.
func DefaultConfig() *Config {
	return &Config{
		NFSVersion:   4,
		MinorVersion: 1,
		Proto:        "tcp",
		Port:         2049,
		Sec:          "sys",
		Export:       "/",
		MountPoint:   "/mnt/t",
		MountOpts:    "hard,rsize=4096,wsize=4096",
		Interface:    "eth0",
		Sudo:         "/usr/bin/sudo",
		Transport:    "ssh",
		IPTables:     "/usr/sbin/iptables",
	}
}
