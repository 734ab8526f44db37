package testutils

import (
	"os"
	"strings"
	"testing"
)

// AssertContains verifies that text contains all expected strings.
// It calls t.Helper() to ensure accurate stack traces and fails the test if any
// expected string is missing.
func AssertContains(t *testing.T, text string, want ...string) {
	t.Helper()
	for _, s := range want {
		if !strings.Contains(text, s) {
			t.Fatalf("output missing %q\n\nActual output:\n%s", s, text)
		}
	}
}

// AssertNotContains verifies that text does not contain any unwanted strings.
func AssertNotContains(t *testing.T, text string, unwanted ...string) {
	t.Helper()
	for _, s := range unwanted {
		if strings.Contains(text, s) {
			t.Fatalf("output should not contain %q\n\nActual output:\n%s", s, text)
		}
	}
}

// AssertFileContent verifies the content of the file at path
func AssertFileContent(t *testing.T, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if string(got) != want {
		t.Fatalf("%s content = %q, want %q", path, got, want)
	}
}
