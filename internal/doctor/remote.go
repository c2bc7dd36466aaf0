package doctor

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/hostkit/internal/config"
	"github.com/rileyhilliard/hostkit/pkg/sshutil"
)

// remoteProbeTimeout bounds the connectivity probe so doctor never hangs.
const remoteProbeTimeout = 5 * time.Second

// RemoteCheck probes the configured remote host over SSH natively, without
// shelling out to the transport, so auth and reachability problems surface
// with a diagnosis instead of a transport exit code.
type RemoteCheck struct {
	Config *config.Config
}

func (c *RemoteCheck) Name() string     { return "remote" }
func (c *RemoteCheck) Category() string { return "remote" }

func (c *RemoteCheck) Run() CheckResult {
	target := c.Config.Host
	if c.Config.User != "" {
		target = c.Config.User + "@" + c.Config.Host
	}

	client, err := sshutil.Dial(target, remoteProbeTimeout)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Category:   c.Category(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("cannot reach %s", target),
			Suggestion: err.Error(),
		}
	}
	defer client.Close()

	code, err := client.Run("true")
	if err != nil || code != 0 {
		return CheckResult{
			Name:       c.Name(),
			Category:   c.Category(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("connected to %s but command execution failed", target),
			Suggestion: "Check the login shell on the remote host",
		}
	}

	return CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   StatusPass,
		Message:  fmt.Sprintf("%s reachable (%s)", target, client.Address),
	}
}
