// Package prompt asks the operator questions and prints colored status lines.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
)

var (
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	promptColor  = color.New(color.FgMagenta)
)

// ErrNoAnswer is returned when input ends before a valid answer was read
var ErrNoAnswer = errors.New("no answer received")

// UI is the operator interaction used by the import workflow
type UI interface {
	Confirm(prompt string, defaultYes bool) (bool, error)
	Choose(prompt string, options []string) (string, error)

	Info(format string, a ...interface{})
	Success(format string, a ...interface{})
	Warning(format string, a ...interface{})
	Error(format string, a ...interface{})
}

// Terminal reads answers from in and writes prompts and status lines to out
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a Terminal on stdin and stderr
func NewTerminal() *Terminal {
	return NewTerminalWith(os.Stdin, os.Stderr)
}

// NewTerminalWith creates a Terminal on the given streams
func NewTerminalWith(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Confirm asks a yes/no question; an empty answer takes the default
func (t *Terminal) Confirm(prompt string, defaultYes bool) (bool, error) {
	hint := "(y/N)"
	if defaultYes {
		hint = "(Y/n)"
	}

	for {
		answer, err := t.ask(fmt.Sprintf("%s %s: ", prompt, hint))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		t.Warning("Please answer yes or no.")
	}
}

// Choose asks until the answer is one of options
func (t *Terminal) Choose(prompt string, options []string) (string, error) {
	if len(options) == 0 {
		return "", errors.New("no options to choose from")
	}

	for {
		answer, err := t.ask(fmt.Sprintf("%s [%s]: ", prompt, strings.Join(options, "/")))
		if err != nil {
			return "", err
		}
		if i := slices.IndexFunc(options, func(o string) bool { return strings.EqualFold(o, answer) }); i >= 0 {
			return options[i], nil
		}
		t.Warning("Please type one of: %s", strings.Join(options, ", "))
	}
}

func (t *Terminal) ask(prompt string) (string, error) {
	_, _ = promptColor.Fprint(t.out, prompt)

	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoAnswer
		}
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Info prints an informational line
func (t *Terminal) Info(format string, a ...interface{}) {
	_, _ = infoColor.Fprintf(t.out, format+"\n", a...)
}

// Success prints a success line
func (t *Terminal) Success(format string, a ...interface{}) {
	_, _ = successColor.Fprintf(t.out, format+"\n", a...)
}

// Warning prints a warning line
func (t *Terminal) Warning(format string, a ...interface{}) {
	_, _ = warningColor.Fprintf(t.out, format+"\n", a...)
}

// Error prints an error line
func (t *Terminal) Error(format string, a ...interface{}) {
	_, _ = errorColor.Fprintf(t.out, format+"\n", a...)
}
