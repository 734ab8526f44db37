package prompt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestTerminal_Confirm(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
		wantErr    error
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full word", input: "Yes\n", want: true},
		{name: "no", input: "n\n", defaultYes: true, want: false},
		{name: "empty takes default no", input: "\n", want: false},
		{name: "empty takes default yes", input: "\n", defaultYes: true, want: true},
		{name: "asks again", input: "maybe\ny\n", want: true},
		{name: "unterminated last line", input: "y", want: true},
		{name: "eof", input: "", wantErr: ErrNoAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			term := NewTerminalWith(strings.NewReader(tt.input), &out)

			got, err := term.Confirm("Apply anyway?", tt.defaultYes)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Confirm() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Apply anyway?") {
				t.Errorf("prompt not written, output %q", out.String())
			}
		})
	}
}

func TestTerminal_Choose(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	term := NewTerminalWith(strings.NewReader("later\nRESOLVED\n"), &out)

	got, err := term.Choose("Resolve conflicts", []string{"resolved", "abort"})
	if err != nil {
		t.Fatalf("Choose() unexpected error: %v", err)
	}
	if got != "resolved" {
		t.Errorf("Choose() = %q, want resolved", got)
	}
	if !strings.Contains(out.String(), "[resolved/abort]") {
		t.Errorf("options not listed, output %q", out.String())
	}
	if !strings.Contains(out.String(), "Please type one of: resolved, abort") {
		t.Errorf("retry hint missing, output %q", out.String())
	}

	if _, err := NewTerminalWith(strings.NewReader(""), &out).Choose("x", nil); err == nil {
		t.Error("Choose() with no options should fail")
	}
}

func TestMockUI(t *testing.T) {
	m := NewMockUI("y", "abort")

	ok, err := m.Confirm("first", false)
	if err != nil || !ok {
		t.Errorf("Confirm() = %v, %v", ok, err)
	}
	choice, err := m.Choose("second", []string{"resolved", "abort"})
	if err != nil || choice != "abort" {
		t.Errorf("Choose() = %q, %v", choice, err)
	}
	if _, err := m.Confirm("third", false); err == nil {
		t.Error("expected error once the script is exhausted")
	}
	if len(m.Prompts) != 3 {
		t.Errorf("Prompts = %v", m.Prompts)
	}
}
