package session

import (
	"os"
	"os/exec"
	"time"
)

// terminateGrace is how long a process gets after SIGTERM before it is
// killed outright. The recorder needs the grace period to write its
// trailer.
const terminateGrace = 5 * time.Second

// process wraps one child process and exposes its exit asynchronously.
type process struct {
	cmd  *exec.Cmd
	done chan error
}

// startProcess launches a child wired to the caller's terminal. The editor
// is interactive; it must own stdin/stdout/stderr for the session.
func startProcess(name string, args ...string) (*process, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := &process{cmd: cmd, done: make(chan error, 1)}
	go func() {
		p.done <- cmd.Wait()
	}()
	return p, nil
}

// Done delivers the process's exit result exactly once.
func (p *process) Done() <-chan error {
	return p.done
}

// Terminate asks the process to exit and blocks until it fully has.
// Waiting on the actual exit matters: when the process is a recorder
// wrapping the editor, its output file is only complete once the recorder
// itself is gone, not when the signal is sent.
func (p *process) Terminate() error {
	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		// Already exited, or signalling unsupported; fall through to wait.
		_ = err
	}
	select {
	case err := <-p.done:
		return err
	case <-time.After(terminateGrace):
	}
	if err := p.cmd.Process.Kill(); err != nil {
		_ = err
	}
	return <-p.done
}

// binaryAvailable reports whether a command resolves on PATH.
func binaryAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
