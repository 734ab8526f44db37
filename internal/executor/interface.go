package executor

import "context"

// CommandExecutor defines the interface for executing external commands
type CommandExecutor interface {
	// Execute runs a command and returns its output
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)

	// ExecuteInDir runs a command in the given working directory and returns its output
	ExecuteInDir(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}
