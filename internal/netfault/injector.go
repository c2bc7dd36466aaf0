// Package netfault simulates transient network failures against a target
// address by installing packet-drop rules, and performs a best-effort full
// reset. The system keeps no memory of pre-existing rules: reset is a full
// flush.
package netfault

import (
	"fmt"
	"regexp"

	"github.com/rileyhilliard/hostkit/internal/exec"
	"github.com/rileyhilliard/hostkit/internal/logger"
)

// Runner is the subset of the executor used by the injector.
type Runner interface {
	Run(cmd string, opts exec.RunOpts) (*exec.Result, error)
}

// routeRE parses "via <gw> dev <dev> ... src <src>" from a routing query,
// with everything but the device optional.
var routeRE = regexp.MustCompile(`(\svia\s+(\S+))?\sdev\s+(\S+).*\ssrc\s+(\S+)`)

// Route is the parsed result of a routing query. Fields are empty when the
// query output did not carry them.
type Route struct {
	Gateway string
	Device  string
	Source  string
}

// Injector installs and clears packet-drop rules through the session's
// executor.
type Injector struct {
	runner   Runner
	iptables string
	log      logger.Logger

	needsReset bool
}

// NewInjector creates an Injector using the given packet-filter command path.
func NewInjector(runner Runner, iptables string, log logger.Logger) *Injector {
	if log == nil {
		log = logger.Noop()
	}
	return &Injector{runner: runner, iptables: iptables, log: log}
}

// NeedsReset reports whether a drop rule was ever installed this session.
func (i *Injector) NeedsReset() bool {
	return i.needsReset
}

// DropTraffic installs a rule discarding outbound TCP packets to addr:port.
// The session is marked as needing a network reset before the rule is
// attempted, so teardown cleans up even a partially applied rule.
func (i *Injector) DropTraffic(addr string, port int) error {
	i.needsReset = true
	cmd := fmt.Sprintf("%s -A OUTPUT -p tcp -d %s --dport %d -j DROP", i.iptables, addr, port)
	_, err := i.runner.Run(cmd, exec.RunOpts{Sudo: true, Msg: "Network drop: "})
	return err
}

// Reset flushes all rules, then deletes all custom chains. Each step is
// attempted independently and failures are only logged: reset must never
// block teardown.
func (i *Injector) Reset() {
	if res, err := i.runner.Run(i.iptables+" --flush",
		exec.RunOpts{Sudo: true, Msg: "Network reset: "}); err != nil {
		i.log.Debug("Network reset error <%s>", errorText(res))
	}

	if res, err := i.runner.Run(i.iptables+" --delete-chain",
		exec.RunOpts{Sudo: true, Msg: "Network reset: "}); err != nil {
		i.log.Debug("Network reset error <%s>", errorText(res))
	}

	i.needsReset = false
}

// RouteTo issues a routing query for the address and parses gateway, device,
// and source address from the output. Any failure yields a zero Route.
func (i *Injector) RouteTo(addr string) Route {
	res, err := i.runner.Run("ip route get "+addr,
		exec.RunOpts{Msg: "Get routing info: "})
	if err != nil {
		i.log.Debug("%s", errorText(res))
		return Route{}
	}
	return parseRoute(res.Stdout)
}

// parseRoute extracts the optional gateway and source and the device from
// routing query output.
func parseRoute(out string) Route {
	matches := routeRE.FindStringSubmatch(out)
	if matches == nil {
		return Route{}
	}
	return Route{
		Gateway: matches[2],
		Device:  matches[3],
		Source:  matches[4],
	}
}

func errorText(res *exec.Result) string {
	if res == nil {
		return ""
	}
	return res.ErrorText()
}
