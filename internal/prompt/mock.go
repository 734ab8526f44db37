package prompt

import (
	"fmt"
	"slices"
)

// MockUI answers prompts from a script, for tests
type MockUI struct {
	// Answers are consumed in order by Confirm ("y"/"n") and Choose
	Answers []string
	// Prompts records every question asked
	Prompts []string
	// Messages records every status line printed
	Messages []string
}

// NewMockUI creates a MockUI that will give answers in order
func NewMockUI(answers ...string) *MockUI {
	return &MockUI{Answers: answers}
}

func (m *MockUI) next(prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if len(m.Answers) == 0 {
		return "", fmt.Errorf("unexpected prompt: %s", prompt)
	}
	answer := m.Answers[0]
	m.Answers = m.Answers[1:]
	return answer, nil
}

// Confirm implements UI.Confirm
func (m *MockUI) Confirm(prompt string, defaultYes bool) (bool, error) {
	answer, err := m.next(prompt)
	if err != nil {
		return false, err
	}
	switch answer {
	case "":
		return defaultYes, nil
	case "y":
		return true, nil
	case "n":
		return false, nil
	}
	return false, fmt.Errorf("scripted answer %q is not y or n", answer)
}

// Choose implements UI.Choose
func (m *MockUI) Choose(prompt string, options []string) (string, error) {
	answer, err := m.next(prompt)
	if err != nil {
		return "", err
	}
	if !slices.Contains(options, answer) {
		return "", fmt.Errorf("scripted answer %q is not one of %v", answer, options)
	}
	return answer, nil
}

// Info implements UI.Info
func (m *MockUI) Info(format string, a ...interface{}) {
	m.Messages = append(m.Messages, fmt.Sprintf(format, a...))
}

// Success implements UI.Success
func (m *MockUI) Success(format string, a ...interface{}) {
	m.Messages = append(m.Messages, fmt.Sprintf(format, a...))
}

// Warning implements UI.Warning
func (m *MockUI) Warning(format string, a ...interface{}) {
	m.Messages = append(m.Messages, fmt.Sprintf(format, a...))
}

// Error implements UI.Error
func (m *MockUI) Error(format string, a ...interface{}) {
	m.Messages = append(m.Messages, fmt.Sprintf(format, a...))
}
