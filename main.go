package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/syou6162/git-patch-import/internal/applier"
	"github.com/syou6162/git-patch-import/internal/attachment"
	"github.com/syou6162/git-patch-import/internal/executor"
	"github.com/syou6162/git-patch-import/internal/importer"
	"github.com/syou6162/git-patch-import/internal/patchfmt"
	"github.com/syou6162/git-patch-import/internal/prompt"
	"github.com/syou6162/git-patch-import/internal/validator"
	"github.com/syou6162/git-patch-import/internal/worktree"
)

// TracURLEnv names the Trac server attachments are downloaded from
const TracURLEnv = "GIT_PATCH_IMPORT_TRAC_URL"

type config struct {
	args validator.Args

	tracURL  string
	repo     string
	output   string
	download bool
	dryRun   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newFlagSet(cfg *config, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("git-patch-import", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.args.Ticket, "ticket", "", "Trac ticket whose attachment is imported")
	fs.StringVarP(&cfg.args.Attachment, "attachment", "a", "", "Attachment name (required when the ticket has several)")
	fs.StringVar(&cfg.args.URL, "url", "", "Download the patch from this URL")

	fs.StringVar(&cfg.args.DiffFormat, "diff-format", "", "Diff format of the patch: hg or git (detected by default)")
	fs.StringVar(&cfg.args.HeaderFormat, "header-format", "", "Header format of the patch: hg, hg-export, git or diff (detected by default)")
	fs.StringVar(&cfg.args.PathFormat, "path-format", "", "Path layout of the patch: old or new (detected by default)")
	fs.StringVar(&cfg.args.ToHeader, "to-header", "git", "Header format to write with --output or --dry-run")
	fs.StringVar(&cfg.args.ToPath, "to-path", "new", "Path layout to write with --output or --dry-run")

	fs.StringVarP(&cfg.output, "output", "o", "", "Write the rewritten patch to this file ('-' for stdout) instead of applying it")
	fs.BoolVar(&cfg.download, "download", false, "Only download the patch to --output, unchanged")
	fs.BoolVarP(&cfg.dryRun, "dry-run", "n", false, "Show how the patch would be rewritten")
	fs.StringVar(&cfg.tracURL, "trac-url", "", fmt.Sprintf("Trac server (default $%s or %s)", TracURLEnv, attachment.DefaultServer))
	fs.StringVarP(&cfg.repo, "repo", "C", ".", "Repository to apply the patch to")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: git-patch-import [options] [<patch-file>]\n")
		fmt.Fprintf(stderr, "\nRewrites a Mercurial or Git patch for the target repository and applies it with git am.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  git-patch-import trac_12555.patch\n")
		fmt.Fprintf(stderr, "  git-patch-import --ticket 12555 --attachment trac_12555.patch\n")
		fmt.Fprintf(stderr, "  git-patch-import --url https://example.org/fix.patch -o fix.git.patch\n")
	}
	return fs
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(stderr, "failed to load .env: %v\n", err)
			return 1
		}
	}

	var cfg config
	fs := newFlagSet(&cfg, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		fs.Usage()
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintf(stderr, "Error: only one patch file can be given\n\n")
		fs.Usage()
		return 2
	}
	cfg.args.PatchFile = fs.Arg(0)
	if cfg.tracURL == "" {
		cfg.tracURL = os.Getenv(TracURLEnv)
	}

	ui := prompt.NewTerminalWith(stdin, stderr)

	exec := executor.NewRealCommandExecutor()
	v := validator.NewValidator(exec)
	if err := v.ValidateArgs(cfg.args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		fs.Usage()
		return 2
	}
	if cfg.download && cfg.output == "" {
		fmt.Fprintf(stderr, "Error: --download requires --output\n\n")
		fs.Usage()
		return 2
	}

	req, source, target, err := resolve(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	client := attachment.NewTracClient(cfg.tracURL)

	switch {
	case cfg.download:
		imp := importer.New(client, nil, nil, ui)
		if err := imp.Download(ctx, req, cfg.output); err != nil {
			ui.Error("Failed to download patch: %v", err)
			return 1
		}
		return 0

	case cfg.dryRun:
		imp := importer.New(client, nil, nil, ui)
		return dryRun(ctx, imp, req, target, source, stdout, ui)

	case cfg.output != "":
		imp := importer.New(client, nil, nil, ui)
		path := cfg.output
		if path == "-" {
			path = ""
		}
		rewritten, err := imp.Export(ctx, req, target, source, path)
		if err != nil {
			ui.Error("Failed to rewrite patch: %v", err)
			return 1
		}
		if path == "" {
			_, _ = stdout.Write(rewritten.Bytes())
		}
		return 0
	}

	if err := v.CheckDependencies(ctx); err != nil {
		ui.Error("Dependency check failed: %v", err)
		return 1
	}

	root, err := worktree.FindRoot(cfg.repo)
	if err != nil {
		ui.Error("Not in a git repository: %v", err)
		return 1
	}

	imp := importer.New(client,
		applier.NewGitApplier(exec, root),
		worktree.NewGitStatusReader(root),
		ui,
	)
	outcome, err := imp.Import(ctx, req, source)
	if err != nil {
		ui.Error("Failed to import patch: %v", err)
		return 1
	}
	if outcome != importer.OutcomeApplied {
		return 1
	}
	return 0
}

// resolve turns validated arguments into the importer's request and formats
func resolve(cfg config) (importer.Request, patchfmt.Source, patchfmt.Target, error) {
	req := importer.Request{
		PatchFile:  cfg.args.PatchFile,
		URL:        cfg.args.URL,
		Attachment: cfg.args.Attachment,
	}
	if cfg.args.Ticket != "" {
		ticket, err := validator.ParseTicket(cfg.args.Ticket)
		if err != nil {
			return req, patchfmt.Source{}, patchfmt.Target{}, err
		}
		req.Ticket = ticket
	}

	var source patchfmt.Source
	var target patchfmt.Target
	var err error
	if source.Diff, err = patchfmt.ParseDiffDialect(cfg.args.DiffFormat); err != nil {
		return req, source, target, err
	}
	if source.Header, err = patchfmt.ParseHeaderDialect(cfg.args.HeaderFormat); err != nil {
		return req, source, target, err
	}
	if source.Layout, err = patchfmt.ParsePathLayout(cfg.args.PathFormat); err != nil {
		return req, source, target, err
	}
	if target.Header, err = patchfmt.ParseHeaderDialect(cfg.args.ToHeader); err != nil {
		return req, source, target, err
	}
	if target.Layout, err = patchfmt.ParsePathLayout(cfg.args.ToPath); err != nil {
		return req, source, target, err
	}
	return req, source, target, nil
}

func dryRun(ctx context.Context, imp *importer.Importer, req importer.Request, target patchfmt.Target, source patchfmt.Source, stdout io.Writer, ui prompt.UI) int {
	data, err := imp.Load(ctx, req)
	if err != nil {
		ui.Error("Failed to load patch: %v", err)
		return 1
	}
	rewritten, err := imp.Convert(data, target, source)
	if err != nil {
		ui.Error("Failed to rewrite patch: %v", err)
		return 1
	}

	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	for _, line := range importer.Preview(patchfmt.SplitLines(data), rewritten) {
		switch {
		case strings.HasPrefix(line, "+"):
			_, _ = added.Fprintln(stdout, line)
		case strings.HasPrefix(line, "-"):
			_, _ = removed.Fprintln(stdout, line)
		default:
			fmt.Fprintln(stdout, line)
		}
	}
	return 0
}
