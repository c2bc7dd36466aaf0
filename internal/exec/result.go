package exec

// Result holds the normalized outcome of a blocking command execution.
type Result struct {
	// Stdout is the captured standard output. For remote commands it also
	// carries the remote command's stderr, merged by the transport.
	Stdout string
	// Stderr is the captured standard error of the local process: the
	// command's own stderr locally, the transport's stderr remotely.
	Stderr string
	// ExitCode is the exit status; -1 when the process could not be
	// started or was killed by a signal.
	ExitCode int
	// Remote reports whether the command was wrapped for remote execution.
	Remote bool
}

// ErrorText returns the stream surfaced as the error payload for this
// result: stderr for local and transport-level failures, stdout for remote
// command failures (the transport merges the remote command's stderr into
// stdout). Empty for successful results.
func (r *Result) ErrorText() string {
	switch {
	case r.ExitCode == 0:
		return ""
	case !r.Remote:
		return r.Stderr
	case r.ExitCode == transportExitCode:
		return r.Stderr
	default:
		return r.Stdout
	}
}

// Failed reports whether the command exited non-zero.
func (r *Result) Failed() bool {
	return r.ExitCode != 0
}
