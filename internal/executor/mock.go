package executor

import (
	"context"
	"fmt"
)

// MockCommandExecutor is a mock implementation of CommandExecutor for testing
type MockCommandExecutor struct {
	// Commands stores the expected commands and their responses
	Commands map[string]MockResponse
	// ExecutedCommands tracks what commands were actually executed
	ExecutedCommands []ExecutedCommand
}

// MockResponse represents a mocked command response
type MockResponse struct {
	Output []byte
	Error  error
}

// ExecutedCommand represents a command that was executed
type ExecutedCommand struct {
	Name string
	Args []string
	Dir  string
}

// NewMockCommandExecutor creates a new mock executor
func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{
		Commands:         make(map[string]MockResponse),
		ExecutedCommands: []ExecutedCommand{},
	}
}

// Key returns the Commands key a command is looked up by
func Key(name string, args ...string) string {
	return fmt.Sprintf("%s %v", name, args)
}

// Execute implements CommandExecutor.Execute
func (m *MockCommandExecutor) Execute(_ context.Context, name string, args ...string) ([]byte, error) {
	return m.respond(ExecutedCommand{Name: name, Args: args})
}

// ExecuteInDir implements CommandExecutor.ExecuteInDir
func (m *MockCommandExecutor) ExecuteInDir(_ context.Context, dir string, name string, args ...string) ([]byte, error) {
	return m.respond(ExecutedCommand{Name: name, Args: args, Dir: dir})
}

func (m *MockCommandExecutor) respond(cmd ExecutedCommand) ([]byte, error) {
	m.ExecutedCommands = append(m.ExecutedCommands, cmd)

	key := Key(cmd.Name, cmd.Args...)
	if response, ok := m.Commands[key]; ok {
		return response.Output, response.Error
	}

	if cmd.Dir != "" {
		return nil, fmt.Errorf("unexpected command in dir %s: %s", cmd.Dir, key)
	}
	return nil, fmt.Errorf("unexpected command: %s", key)
}
