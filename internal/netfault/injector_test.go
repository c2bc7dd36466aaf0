package netfault

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/hostkit/internal/errors"
	"github.com/rileyhilliard/hostkit/internal/exec"
	"github.com/rileyhilliard/hostkit/internal/logger"
)

type fakeRunner struct {
	cmds   []string
	script func(cmd string) (*exec.Result, error)
}

func (f *fakeRunner) Run(cmd string, opts exec.RunOpts) (*exec.Result, error) {
	f.cmds = append(f.cmds, cmd)
	if f.script != nil {
		return f.script(cmd)
	}
	return &exec.Result{ExitCode: 0}, nil
}

func TestDropTraffic_InstallsRule(t *testing.T) {
	f := &fakeRunner{}
	inj := NewInjector(f, "/usr/sbin/iptables", logger.Noop())

	err := inj.DropTraffic("10.0.0.1", 2049)

	require.NoError(t, err)
	require.Len(t, f.cmds, 1)
	assert.Equal(t, "/usr/sbin/iptables -A OUTPUT -p tcp -d 10.0.0.1 --dport 2049 -j DROP", f.cmds[0])
	assert.True(t, inj.NeedsReset())
}

func TestDropTraffic_MarksResetEvenOnFailure(t *testing.T) {
	f := &fakeRunner{}
	f.script = func(cmd string) (*exec.Result, error) {
		return &exec.Result{ExitCode: 1, Stderr: "iptables: permission denied\n"},
			errors.New(errors.ErrLocal, "command failed", "")
	}
	inj := NewInjector(f, "/usr/sbin/iptables", logger.Noop())

	err := inj.DropTraffic("10.0.0.1", 2049)

	require.Error(t, err)
	assert.True(t, inj.NeedsReset())
}

func TestReset_FlushesThenDeletesChains(t *testing.T) {
	f := &fakeRunner{}
	inj := NewInjector(f, "/usr/sbin/iptables", logger.Noop())
	require.NoError(t, inj.DropTraffic("10.0.0.1", 2049))

	inj.Reset()

	require.Len(t, f.cmds, 3)
	assert.Equal(t, "/usr/sbin/iptables --flush", f.cmds[1])
	assert.Equal(t, "/usr/sbin/iptables --delete-chain", f.cmds[2])
	assert.False(t, inj.NeedsReset())
}

func TestReset_AttemptsBothStepsDespiteFailures(t *testing.T) {
	f := &fakeRunner{}
	f.script = func(cmd string) (*exec.Result, error) {
		return &exec.Result{ExitCode: 1, Stderr: "nope\n"},
			errors.New(errors.ErrLocal, "command failed", "")
	}
	buf := logger.NewBufferLogger()
	inj := NewInjector(f, "/usr/sbin/iptables", buf)

	inj.Reset()

	require.Len(t, f.cmds, 2)
	assert.False(t, inj.NeedsReset())
	assert.True(t, buf.HasLevel("debug"))
}

func TestRouteTo_ParsesGatewayDeviceAndSource(t *testing.T) {
	f := &fakeRunner{}
	f.script = func(cmd string) (*exec.Result, error) {
		return &exec.Result{
			ExitCode: 0,
			Stdout:   "10.0.0.1 via 10.0.0.254 dev eth0 src 10.0.0.5 uid 0\n    cache\n",
		}, nil
	}
	inj := NewInjector(f, "/usr/sbin/iptables", logger.Noop())

	route := inj.RouteTo("10.0.0.1")

	require.Len(t, f.cmds, 1)
	assert.Equal(t, "ip route get 10.0.0.1", f.cmds[0])
	assert.Equal(t, "10.0.0.254", route.Gateway)
	assert.Equal(t, "eth0", route.Device)
	assert.Equal(t, "10.0.0.5", route.Source)
}

func TestRouteTo_QueryFailureYieldsZeroRoute(t *testing.T) {
	f := &fakeRunner{}
	f.script = func(cmd string) (*exec.Result, error) {
		return &exec.Result{ExitCode: 2, Stderr: "RTNETLINK answers: Network is unreachable\n"},
			errors.New(errors.ErrLocal, "command failed", "")
	}
	inj := NewInjector(f, "/usr/sbin/iptables", logger.Noop())

	assert.Equal(t, Route{}, inj.RouteTo("203.0.113.9"))
}

func TestParseRoute(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want Route
	}{
		{
			name: "with gateway",
			out:  "10.0.0.1 via 10.0.0.254 dev eth0 src 10.0.0.5",
			want: Route{Gateway: "10.0.0.254", Device: "eth0", Source: "10.0.0.5"},
		},
		{
			name: "direct route without gateway",
			out:  "10.0.0.1 dev eth0 proto kernel scope link src 10.0.0.5",
			want: Route{Device: "eth0", Source: "10.0.0.5"},
		},
		{
			name: "unparseable output",
			out:  "RTNETLINK answers: Network is unreachable",
			want: Route{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRoute(tt.out))
		})
	}
}

func TestParseRoute_MultilineOutput(t *testing.T) {
	out := strings.Join([]string{
		"192.0.2.7 via 192.0.2.1 dev enp3s0 src 192.0.2.42 uid 1000",
		"    cache",
	}, "\n")

	route := parseRoute(out)

	assert.Equal(t, "192.0.2.1", route.Gateway)
	assert.Equal(t, "enp3s0", route.Device)
	assert.Equal(t, "192.0.2.42", route.Source)
}
