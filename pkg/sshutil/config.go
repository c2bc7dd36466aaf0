// Package sshutil resolves SSH connection settings from ~/.ssh/config and
// provides a native connectivity probe. Command execution itself goes
// through the configured transport command; this package exists so doctor
// can diagnose reachability and auth without shelling out.
package sshutil

import (
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// Settings holds resolved SSH connection parameters for a host.
type Settings struct {
	Hostname     string
	Port         string
	User         string
	IdentityFile string
}

// Address returns the host:port string for dialing.
func (s *Settings) Address() string {
	return net.JoinHostPort(s.Hostname, s.Port)
}

// Resolve parses a host string (alias, hostname, user@hostname, or
// hostname:port) and fills in settings from ~/.ssh/config when available.
func Resolve(host string) *Settings {
	settings := &Settings{
		Port: "22",
		User: currentUser(),
	}

	userExplicit := false
	if atIdx := strings.Index(host, "@"); atIdx != -1 {
		settings.User = host[:atIdx]
		userExplicit = true
		host = host[atIdx+1:]
	}

	if colonIdx := strings.LastIndex(host, ":"); colonIdx != -1 {
		if port := host[colonIdx+1:]; isDigits(port) {
			settings.Port = port
			host = host[:colonIdx]
		}
	}

	settings.Hostname = host

	// Values from ~/.ssh/config fill in what the host string left open.
	if hostname := ssh_config.Get(host, "HostName"); hostname != "" {
		settings.Hostname = hostname
	}
	if port := ssh_config.Get(host, "Port"); port != "" && settings.Port == "22" {
		settings.Port = port
	}
	if user := ssh_config.Get(host, "User"); user != "" && !userExplicit {
		settings.User = user
	}
	if identity := ssh_config.Get(host, "IdentityFile"); identity != "" {
		settings.IdentityFile = expandPath(identity)
	}

	return settings
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return os.Getenv("LOGNAME")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// expandPath expands a leading ~ in an identity file path.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
