package validator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/syou6162/git-patch-import/internal/executor"
	"github.com/syou6162/git-patch-import/internal/patchfmt"
)

// Validator handles dependency checks and argument validation for git-patch-import.
// It ensures that required external commands are available and that arguments are valid.
type Validator struct {
	executor executor.CommandExecutor
}

// Args holds the raw command line values that select the patch source and formats.
type Args struct {
	PatchFile  string
	URL        string
	Ticket     string
	Attachment string

	DiffFormat   string
	HeaderFormat string
	PathFormat   string

	ToHeader string
	ToPath   string
}

// NewValidator creates a new Validator instance with the provided command executor.
func NewValidator(exec executor.CommandExecutor) *Validator {
	return &Validator{
		executor: exec,
	}
}

// CheckDependencies checks if required external commands (git) are available.
// Returns an error if any dependency is missing.
func (v *Validator) CheckDependencies(ctx context.Context) error {
	if _, err := v.executor.Execute(ctx, "git", "--version"); err != nil {
		return errors.New("git command not found")
	}

	return nil
}

// ValidateArgs validates command line arguments.
// Exactly one patch source must be given and every format token must be known.
func (v *Validator) ValidateArgs(args Args) error {
	sources := 0
	for _, s := range []string{args.PatchFile, args.URL, args.Ticket} {
		if s != "" {
			sources++
		}
	}
	switch {
	case sources == 0:
		return errors.New("one of a patch file, --url or --ticket is required")
	case sources > 1:
		return errors.New("a patch file, --url and --ticket are mutually exclusive")
	}

	if args.Attachment != "" && args.Ticket == "" {
		return errors.New("--attachment requires --ticket")
	}

	if args.Ticket != "" {
		if _, err := ParseTicket(args.Ticket); err != nil {
			return err
		}
	}

	return v.ValidateFormats(args)
}

// ValidateFormats checks the source and target format tokens.
func (v *Validator) ValidateFormats(args Args) error {
	if _, err := patchfmt.ParseDiffDialect(args.DiffFormat); err != nil {
		return err
	}
	if _, err := patchfmt.ParseHeaderDialect(args.HeaderFormat); err != nil {
		return err
	}
	if _, err := patchfmt.ParsePathLayout(args.PathFormat); err != nil {
		return err
	}

	toHeader, err := patchfmt.ParseHeaderDialect(args.ToHeader)
	if err != nil {
		return err
	}
	if toHeader == patchfmt.HeaderUnspecified {
		return errors.New("target header format cannot be empty")
	}

	toPath, err := patchfmt.ParsePathLayout(args.ToPath)
	if err != nil {
		return err
	}
	if toPath == patchfmt.LayoutUnspecified {
		return errors.New("target path format cannot be empty")
	}

	return nil
}

// ParseTicket parses a ticket number, accepting an optional leading '#'.
func ParseTicket(s string) (int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	num, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid ticket number: %s", s)
	}
	if num <= 0 {
		return 0, fmt.Errorf("ticket number must be positive: %d", num)
	}
	return num, nil
}
