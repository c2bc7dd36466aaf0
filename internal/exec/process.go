package exec

import (
	"bytes"
	"fmt"
	osexec "os/exec"
	"sync"
	"syscall"

	"github.com/rileyhilliard/hostkit/internal/logger"
)

// Process is a handle for a command started in the background. It is owned
// by the Registry until waited on or stopped.
type Process struct {
	cmd    *osexec.Cmd
	sudo   bool
	output *bytes.Buffer
}

// Pid returns the process id of the local child (the transport process for
// remote commands).
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Sudo reports whether the command was started with elevated privilege.
func (p *Process) Sudo() bool {
	return p.sudo
}

// Output returns the combined output captured so far.
func (p *Process) Output() string {
	return p.output.String()
}

// Registry tracks backgrounded processes and how each must be stopped.
type Registry struct {
	exec *Executor
	log  logger.Logger

	mu    sync.Mutex
	procs []*Process
}

func (r *Registry) add(p *Process) {
	r.mu.Lock()
	r.procs = append(r.procs, p)
	r.mu.Unlock()
}

// Len returns the number of tracked processes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.procs)
}

// Tracked reports whether the process is still in the registry.
func (r *Registry) Tracked(p *Process) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, proc := range r.procs {
		if proc == p {
			return true
		}
	}
	return false
}

// Wait waits for a tracked process, or for a snapshot of all tracked
// processes when p is nil (processes added during the call are not
// included). With terminate set, each process is stopped first: processes
// started with elevation are killed with a privileged "kill <pid>" issued
// through the executor, because ordinary termination signals are unreliable
// against elevated children on some platforms; everything else gets SIGTERM.
// Handled processes are removed from the registry. Processes no longer
// tracked are silently ignored. Returns the exit status of the last process
// handled.
func (r *Registry) Wait(p *Process, terminate bool) int {
	status := 0
	for _, proc := range r.snapshot(p) {
		if terminate {
			if proc.sudo {
				// Killed through the executor so elevated children
				// started on a remote host die on that host.
				_, _ = r.exec.Run(fmt.Sprintf("kill %d", proc.Pid()),
					RunOpts{Sudo: true, Msg: "Stopping process: "})
			} else {
				r.log.Debug("stopping process %d", proc.Pid())
				_ = proc.cmd.Process.Signal(syscall.SIGTERM)
			}
		} else {
			r.log.Debug("waiting for process %d", proc.Pid())
		}
		status = waitStatus(proc.cmd)
		r.remove(proc)
	}
	return status
}

// Stop terminates a tracked process, or all tracked processes when p is nil.
// Returns the exit status of the last process handled.
func (r *Registry) Stop(p *Process) int {
	return r.Wait(p, true)
}

// snapshot returns the processes Wait operates on: all currently tracked
// processes when p is nil, the single process if still tracked, or nothing.
func (r *Registry) snapshot(p *Process) []*Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p == nil {
		out := make([]*Process, len(r.procs))
		copy(out, r.procs)
		return out
	}
	for _, proc := range r.procs {
		if proc == p {
			return []*Process{p}
		}
	}
	return nil
}

func (r *Registry) remove(p *Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, proc := range r.procs {
		if proc == p {
			r.procs = append(r.procs[:i], r.procs[i+1:]...)
			return
		}
	}
}

// waitStatus waits for the child and normalizes its exit status. A child
// killed by a signal reports -1.
func waitStatus(cmd *osexec.Cmd) int {
	err := cmd.Wait()
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*osexec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
