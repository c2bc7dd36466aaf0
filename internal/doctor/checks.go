// Package doctor verifies the environment a host session depends on:
// required binaries, configuration sanity, and remote reachability.
package doctor

import (
	"fmt"
	"os"
	osexec "os/exec"

	"github.com/rileyhilliard/hostkit/internal/config"
)

// Status is the outcome of a single check.
type Status int

const (
	StatusPass Status = iota
	StatusWarn
	StatusFail
)

// CheckResult is the outcome of running one check.
type CheckResult struct {
	Name       string
	Category   string
	Status     Status
	Message    string
	Suggestion string
}

// Check is a single diagnostic.
type Check interface {
	Name() string
	Category() string
	Run() CheckResult
}

// Checks builds the full diagnostic list for a configuration.
func Checks(cfg *config.Config) []Check {
	checks := []Check{
		&BinaryCheck{Binary: "mount", Hint: "NFS mounting needs the mount binary on PATH"},
		&BinaryCheck{Binary: "umount", Hint: "teardown needs the umount binary on PATH"},
		&PathCheck{Name_: "sudo", Path: cfg.Sudo, Hint: "set 'sudo' in .hostkit.yaml to your privileged-execution command"},
		&PathCheck{Name_: "iptables", Path: cfg.IPTables, Hint: "set 'iptables' in .hostkit.yaml; fault injection needs it"},
		&ConfigCheck{Config: cfg},
	}
	if cfg.Host != "" {
		checks = append(checks,
			&BinaryCheck{Binary: cfg.Transport, Hint: "remote execution needs the transport binary on PATH"},
			&RemoteCheck{Config: cfg},
		)
	}
	return checks
}

// RunAll runs every check and returns the results in order.
func RunAll(checks []Check) []CheckResult {
	results := make([]CheckResult, 0, len(checks))
	for _, c := range checks {
		results = append(results, c.Run())
	}
	return results
}

// BinaryCheck verifies a binary is available on PATH.
type BinaryCheck struct {
	Binary string
	Hint   string
}

func (c *BinaryCheck) Name() string     { return c.Binary }
func (c *BinaryCheck) Category() string { return "binaries" }

func (c *BinaryCheck) Run() CheckResult {
	path, err := osexec.LookPath(c.Binary)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Category:   c.Category(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("'%s' not found on PATH", c.Binary),
			Suggestion: c.Hint,
		}
	}
	return CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   StatusPass,
		Message:  fmt.Sprintf("%s found: %s", c.Binary, path),
	}
}

// PathCheck verifies a configured command path exists and is executable.
type PathCheck struct {
	Name_ string
	Path  string
	Hint  string
}

func (c *PathCheck) Name() string     { return c.Name_ }
func (c *PathCheck) Category() string { return "binaries" }

func (c *PathCheck) Run() CheckResult {
	info, err := os.Stat(c.Path)
	if err != nil || info.IsDir() {
		return CheckResult{
			Name:       c.Name(),
			Category:   c.Category(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%s not found at %s", c.Name_, c.Path),
			Suggestion: c.Hint,
		}
	}
	return CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   StatusPass,
		Message:  fmt.Sprintf("%s found: %s", c.Name_, c.Path),
	}
}

// ConfigCheck validates the loaded configuration.
type ConfigCheck struct {
	Config *config.Config
}

func (c *ConfigCheck) Name() string     { return "config" }
func (c *ConfigCheck) Category() string { return "config" }

func (c *ConfigCheck) Run() CheckResult {
	if err := config.Validate(c.Config); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Category:   c.Category(),
			Status:     StatusFail,
			Message:    "configuration is invalid",
			Suggestion: err.Error(),
		}
	}
	target := "local machine"
	if c.Config.Host != "" {
		target = c.Config.Host
	}
	return CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   StatusPass,
		Message:  fmt.Sprintf("configuration valid, target: %s", target),
	}
}
