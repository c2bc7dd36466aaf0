package exec

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/hostkit/internal/logger"
)

func TestStart_RegistersProcess(t *testing.T) {
	e := localExecutor()

	p, err := e.Start("sleep 30", RunOpts{})

	require.NoError(t, err)
	assert.Equal(t, 1, e.Processes().Len())
	assert.True(t, e.Processes().Tracked(p))

	e.Processes().Stop(p)
}

func TestStop_TerminatesAndRemoves(t *testing.T) {
	e := localExecutor()

	p, err := e.Start("sleep 30", RunOpts{})
	require.NoError(t, err)

	status := e.Processes().Stop(p)

	// SIGTERM'd children report -1.
	assert.Equal(t, -1, status)
	assert.Equal(t, 0, e.Processes().Len())
	assert.False(t, e.Processes().Tracked(p))
}

func TestStop_SecondStopIsNoop(t *testing.T) {
	e := localExecutor()

	p, err := e.Start("sleep 30", RunOpts{})
	require.NoError(t, err)

	e.Processes().Stop(p)
	status := e.Processes().Stop(p)

	assert.Equal(t, 0, status)
	assert.Equal(t, 0, e.Processes().Len())
}

func TestStop_ElevatedProcessUsesPrivilegedKill(t *testing.T) {
	buf := logger.NewBufferLogger()
	e := NewExecutor(Options{Sudo: "/usr/bin/sudo"}, buf)
	// Pretend to be root so the sudo prefix is skipped and the privileged
	// kill actually runs in the test environment.
	e.euid = func() int { return 0 }

	p, err := e.Start("sleep 30", RunOpts{Sudo: true})
	require.NoError(t, err)
	require.True(t, p.Sudo())

	status := e.Processes().Stop(p)

	assert.Equal(t, -1, status)
	assert.Equal(t, 0, e.Processes().Len())

	// The kill went through the executor, not through a direct signal.
	killCmd := fmt.Sprintf("kill %d", p.Pid())
	found := false
	for _, m := range buf.Messages {
		if strings.Contains(m.Message, "Stopping process: "+killCmd) {
			found = true
		}
	}
	assert.True(t, found, "expected a privileged kill command in the debug log")
}

func TestStop_OrdinaryProcessSignalsDirectly(t *testing.T) {
	buf := logger.NewBufferLogger()
	e := NewExecutor(Options{Sudo: "/usr/bin/sudo"}, buf)

	p, err := e.Start("sleep 30", RunOpts{})
	require.NoError(t, err)

	e.Processes().Stop(p)

	for _, m := range buf.Messages {
		assert.NotContains(t, m.Message, "kill ")
	}
}

func TestWait_NaturalExit(t *testing.T) {
	e := localExecutor()

	p, err := e.Start("true", RunOpts{})
	require.NoError(t, err)

	status := e.Processes().Wait(p, false)

	assert.Equal(t, 0, status)
	assert.Equal(t, 0, e.Processes().Len())
}

func TestWait_AllUsesSnapshot(t *testing.T) {
	e := localExecutor()

	_, err := e.Start("sleep 0.2", RunOpts{})
	require.NoError(t, err)
	_, err = e.Start("sleep 0.2", RunOpts{})
	require.NoError(t, err)

	status := e.Processes().Wait(nil, false)

	assert.Equal(t, 0, status)
	assert.Equal(t, 0, e.Processes().Len())
}

func TestProcess_CapturesOutput(t *testing.T) {
	e := localExecutor()

	p, err := e.Start("echo background", RunOpts{})
	require.NoError(t, err)

	e.Processes().Wait(p, false)

	assert.Equal(t, "background\n", p.Output())
}
