package testsupport

import (
	"context"
	"sync"

	"vttscribe/internal/engine"
)

// StubExecutor replays canned output instead of starting processes.
type StubExecutor struct {
	Stdout []string
	Stderr []string
	// Before runs ahead of the replay, e.g. to create files the real
	// process would write.
	Before func(cmd engine.Command) error
	Err    error

	mu       sync.Mutex
	commands []engine.Command
}

// Run implements engine.Executor.
func (s *StubExecutor) Run(ctx context.Context, cmd engine.Command, onStdout, onStderr func(string)) error {
	s.mu.Lock()
	cloned := cmd
	cloned.Args = append([]string(nil), cmd.Args...)
	s.commands = append(s.commands, cloned)
	s.mu.Unlock()

	if s.Before != nil {
		if err := s.Before(cmd); err != nil {
			return err
		}
	}
	if onStderr != nil {
		for _, line := range s.Stderr {
			onStderr(line)
		}
	}
	if onStdout != nil {
		for _, line := range s.Stdout {
			if ctx.Err() != nil {
				break
			}
			onStdout(line)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Err
}

// Commands returns every command passed to Run.
func (s *StubExecutor) Commands() []engine.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]engine.Command(nil), s.commands...)
}
