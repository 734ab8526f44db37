package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/syou6162/git-patch-import/internal/logger"
)

// RealCommandExecutor is the real implementation of CommandExecutor
type RealCommandExecutor struct {
	logger *logger.Logger
}

// NewRealCommandExecutor creates a new real executor
func NewRealCommandExecutor() *RealCommandExecutor {
	return &RealCommandExecutor{
		logger: logger.NewFromEnv(),
	}
}

// Execute implements CommandExecutor.Execute
func (r *RealCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return r.run(cmd, "")
}

// ExecuteInDir implements CommandExecutor.ExecuteInDir
func (r *RealCommandExecutor) ExecuteInDir(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	return r.run(cmd, " in dir "+dir)
}

// run executes cmd, logging failures and keeping stderr on the returned *exec.ExitError
func (r *RealCommandExecutor) run(cmd *exec.Cmd, where string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Debug("Running: %s%s", strings.Join(cmd.Args, " "), where)
	output, err := cmd.Output()
	if err != nil {
		r.logger.Error("Command failed%s: %s", where, strings.Join(cmd.Args, " "))
		if stderr.Len() > 0 {
			r.logger.Error("stderr: %s", stderr.String())
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitErr.Stderr = stderr.Bytes()
		}
		return output, err
	}

	return output, nil
}

// StderrFromError extracts stderr from an *exec.ExitError, falling back to the error text
func StderrFromError(err error) string {
	if err == nil {
		return ""
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return string(exitErr.Stderr)
	}

	return err.Error()
}
