package engine

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Command is an external process invocation.
type Command struct {
	Binary string
	Args   []string
	// Env entries are appended to the current environment.
	Env []string
}

// Executor abstracts command execution for testability.
type Executor interface {
	// Run starts cmd and feeds each stdout and stderr line to the matching
	// callback. Nil callbacks discard the stream. Run returns after both
	// streams are drained and the process has exited.
	Run(ctx context.Context, cmd Command, onStdout, onStderr func(string)) error
}

// NewExecutor returns an Executor backed by os/exec.
func NewExecutor() Executor {
	return commandExecutor{}
}

// interruptGrace is how long a cancelled process gets to exit after SIGINT
// before it is killed.
const interruptGrace = 10 * time.Second

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, c Command, onStdout, onStderr func(string)) error {
	cmd := exec.CommandContext(ctx, c.Binary, c.Args...) //nolint:gosec
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = interruptGrace

	var stdout io.ReadCloser
	if onStdout != nil {
		pipe, err := cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("stdout pipe: %w", err)
		}
		stdout = pipe
	}
	var stderr io.ReadCloser
	if onStderr != nil {
		pipe, err := cmd.StderrPipe()
		if err != nil {
			return fmt.Errorf("stderr pipe: %w", err)
		}
		stderr = pipe
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", c.Binary, err)
	}

	var wg sync.WaitGroup
	var stderrErr error
	if stderr != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stderrErr = scanLines(stderr, onStderr)
		}()
	}

	var stdoutErr error
	if stdout != nil {
		stdoutErr = scanLines(stdout, onStdout)
	}
	wg.Wait()

	waitErr := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", c.Binary, ctxErr)
	}
	if waitErr != nil {
		return fmt.Errorf("%s: %w", c.Binary, waitErr)
	}
	if stdoutErr != nil {
		return fmt.Errorf("scan stdout: %w", stdoutErr)
	}
	if stderrErr != nil {
		return fmt.Errorf("scan stderr: %w", stderrErr)
	}
	return nil
}

func scanLines(r io.Reader, forward func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	scanner.Split(ScanLinesOrReturns)
	for scanner.Scan() {
		forward(scanner.Text())
	}
	return scanner.Err()
}

// ScanLinesOrReturns is a bufio.SplitFunc that ends a token at '\n' or '\r'.
// Progress bars redraw with carriage returns, so each redraw becomes a line.
// Empty tokens are skipped.
func ScanLinesOrReturns(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && (data[start] == '\n' || data[start] == '\r') {
		start++
	}
	if atEOF && start == len(data) {
		return len(data), nil, nil
	}
	if i := bytes.IndexAny(data[start:], "\r\n"); i >= 0 {
		return start + i + 1, data[start : start+i], nil
	}
	if atEOF {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}
