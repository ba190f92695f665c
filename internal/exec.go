package seedog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/isobit/seedog/internal/ioutil"
	"github.com/isobit/seedog/internal/log"
)

const execTerminateTimeout = 10 * time.Second

// ExecSink pipes records as JSON lines to the stdin of a command.
type ExecSink struct {
	*JSONSink

	cmd        *exec.Cmd
	stderrDone chan struct{}
}

// NewExecSink starts args as a command whose stdout is connected to stdout.
// If tee is non-nil, everything written to the command is also written to
// tee.
func NewExecSink(args []string, stdout io.Writer, tee io.Writer) (*ExecSink, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("exec: empty command")
	}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = stdout

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("exec: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("exec: %w", err)
	}

	log.Logf(10, "exec: starting: %s", cmd)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("exec: %w", err)
	}
	pid := cmd.Process.Pid
	log.Logf(10, "exec: started: %d", pid)

	s := &ExecSink{
		cmd:        cmd,
		stderrDone: make(chan struct{}),
	}

	// Log stderr
	go func() {
		defer close(s.stderrDone)
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Logf(0, "exec: stderr: %d: %s", pid, scanner.Text())
		}
	}()

	var w io.WriteCloser = stdin
	if tee != nil {
		w = ioutil.FuncWriteCloser(io.MultiWriter(stdin, tee), stdin.Close)
	}
	s.JSONSink = NewJSONSink(w)

	return s, nil
}

// Close closes the command's stdin and waits for it to exit, terminating it
// if it does not exit on its own.
func (s *ExecSink) Close() error {
	pid := s.cmd.Process.Pid

	log.Logf(10, "exec: closing stdin: %d", pid)
	if err := s.JSONSink.Close(); err != nil && !ioutil.IsIOClosedErr(err) {
		log.Logf(-1, "exec: error closing stdin: %d: %s", pid, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-time.After(execTerminateTimeout):
			log.Logf(10, "exec: terminating: %d", pid)
			s.cmd.Process.Signal(syscall.SIGTERM)
		case <-ctx.Done():
			return
		}

		select {
		case <-time.After(execTerminateTimeout):
			log.Logf(-1, "exec: termination timed out, killing: %d", pid)
			s.cmd.Process.Kill()
		case <-ctx.Done():
			return
		}
	}()

	// Stderr must be drained before Wait closes the pipe.
	<-s.stderrDone

	log.Logf(10, "exec: waiting: %d", pid)
	err := s.cmd.Wait()
	log.Logf(10, "exec: exited: %d", pid)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}
