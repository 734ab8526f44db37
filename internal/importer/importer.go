// Package importer obtains a patch, rewrites it for the target repository and
// applies it, asking the operator how to proceed when it does not apply cleanly.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/syou6162/git-patch-import/internal/applier"
	"github.com/syou6162/git-patch-import/internal/attachment"
	"github.com/syou6162/git-patch-import/internal/logger"
	"github.com/syou6162/git-patch-import/internal/patchfmt"
	"github.com/syou6162/git-patch-import/internal/prompt"
	"github.com/syou6162/git-patch-import/internal/worktree"
)

const (
	rejectPrompt  = "The patch does not apply cleanly. Would you like to apply it anyway and create reject files for the parts that do not apply?"
	resolvePrompt = "The patch did not apply cleanly. Please integrate the `.rej` files that were created and resolve conflicts. When you did, type `resolved`. If you want to abort this process, type `abort`."

	choiceResolved = "resolved"
	choiceAbort    = "abort"
)

var (
	// ErrDirtyWorktree is returned when the target repository has local changes
	ErrDirtyWorktree = errors.New("working tree has uncommitted changes")
	// ErrNoSource is returned when a Request names no patch source
	ErrNoSource = errors.New("no patch source given")
)

// Request names where a patch comes from; exactly one source is set
type Request struct {
	PatchFile  string
	URL        string
	Ticket     int
	Attachment string
}

func (r Request) String() string {
	switch {
	case r.PatchFile != "":
		return r.PatchFile
	case r.URL != "":
		return r.URL
	case r.Attachment != "":
		return fmt.Sprintf("ticket #%d attachment %s", r.Ticket, r.Attachment)
	default:
		return fmt.Sprintf("ticket #%d", r.Ticket)
	}
}

// Downloader fetches a patch from an arbitrary URL
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Outcome is how an import ended
type Outcome int

const (
	// OutcomeApplied means a commit was created from the patch
	OutcomeApplied Outcome = iota
	// OutcomeDeclined means the operator chose not to apply with reject files
	OutcomeDeclined
	// OutcomeAborted means the operator aborted while resolving reject files
	OutcomeAborted
)

// String returns the string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeDeclined:
		return "declined"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Importer runs the import workflow against one repository
type Importer struct {
	fetcher    attachment.Fetcher
	downloader Downloader
	applier    applier.Applier
	status     worktree.StatusReader
	ui         prompt.UI
	rewriter   *patchfmt.Rewriter
	tmpDir     string
	logger     *logger.Logger
}

// Option configures an Importer
type Option func(*Importer)

// WithRewriter replaces the default patch rewriter
func WithRewriter(r *patchfmt.Rewriter) Option {
	return func(i *Importer) {
		i.rewriter = r
	}
}

// WithTempDir sets the parent directory for rewritten patch files
func WithTempDir(dir string) Option {
	return func(i *Importer) {
		i.tmpDir = dir
	}
}

// New creates an Importer from its collaborators.
// The client is used both for ticket attachments and for plain URLs.
func New(client *attachment.TracClient, a applier.Applier, status worktree.StatusReader, ui prompt.UI, opts ...Option) *Importer {
	return NewWithFetcher(client, client, a, status, ui, opts...)
}

// NewWithFetcher creates an Importer with separate attachment and URL sources
func NewWithFetcher(fetcher attachment.Fetcher, downloader Downloader, a applier.Applier, status worktree.StatusReader, ui prompt.UI, opts ...Option) *Importer {
	i := &Importer{
		fetcher:    fetcher,
		downloader: downloader,
		applier:    a,
		status:     status,
		ui:         ui,
		rewriter:   patchfmt.NewRewriter(),
		logger:     logger.NewFromEnv(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Load returns the raw bytes of the requested patch
func (i *Importer) Load(ctx context.Context, req Request) ([]byte, error) {
	switch {
	case req.PatchFile != "":
		data, err := os.ReadFile(req.PatchFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read patch file: %w", err)
		}
		return data, nil
	case req.URL != "":
		return i.downloader.Download(ctx, req.URL)
	case req.Ticket > 0:
		return i.fetcher.Fetch(ctx, req.Ticket, req.Attachment)
	}
	return nil, ErrNoSource
}

// Convert rewrites data into target, checking mailbox output parses as a patch
func (i *Importer) Convert(data []byte, target patchfmt.Target, source patchfmt.Source) (patchfmt.PatchText, error) {
	rewritten, err := i.rewriter.Transform(patchfmt.SplitLines(data), target, source)
	if err != nil {
		return nil, err
	}

	if target.Header == patchfmt.HeaderGitMailbox {
		if err := i.check(rewritten); err != nil {
			return nil, err
		}
	}
	return rewritten, nil
}

// check parses a rewritten mailbox patch the way git am will read it
func (i *Importer) check(lines patchfmt.PatchText) error {
	files, preamble, err := gitdiff.Parse(bytes.NewReader(lines.Bytes()))
	if err != nil {
		return fmt.Errorf("rewritten patch does not parse: %w", err)
	}
	if len(files) == 0 {
		return errors.New("rewritten patch touches no files")
	}

	header, err := gitdiff.ParsePatchHeader(preamble)
	if err != nil {
		return fmt.Errorf("rewritten patch header does not parse: %w", err)
	}
	if header.Author != nil {
		i.logger.Info("Patch %q by %s, %d file(s)", header.Title, header.Author.String(), len(files))
	}
	return nil
}

// Download writes the requested patch unchanged to output
func (i *Importer) Download(ctx context.Context, req Request, output string) error {
	data, err := i.Load(ctx, req)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	i.ui.Success("Downloaded %s to %s", req, output)
	return nil
}

// Import applies the requested patch to the repository as a commit
func (i *Importer) Import(ctx context.Context, req Request, source patchfmt.Source) (Outcome, error) {
	info, err := i.status.ReadStatus()
	if err != nil {
		return OutcomeAborted, err
	}
	if !info.IsClean() {
		return OutcomeAborted, dirtyError(info)
	}

	data, err := i.Load(ctx, req)
	if err != nil {
		return OutcomeAborted, err
	}
	rewritten, err := i.Convert(data, patchfmt.GitTarget, source)
	if err != nil {
		return OutcomeAborted, err
	}

	dir, err := os.MkdirTemp(i.tmpDir, "git-patch-import-")
	if err != nil {
		return OutcomeAborted, fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer os.RemoveAll(dir)

	patchFile := filepath.Join(dir, "patch_new")
	if err := os.WriteFile(patchFile, rewritten.Bytes(), 0644); err != nil {
		return OutcomeAborted, fmt.Errorf("failed to write rewritten patch: %w", err)
	}

	i.ui.Info("Trying to apply reformatted patch `%s` ...", patchFile)
	result, err := i.applier.Apply(ctx, patchFile, applier.Options{})
	if err != nil {
		return OutcomeAborted, err
	}
	if result.Success {
		i.ui.Success("Applied %s", req)
		return OutcomeApplied, nil
	}
	i.logger.Debug("git am failed: %s", result.Output)

	apply, err := i.ui.Confirm(rejectPrompt, false)
	if err != nil {
		return OutcomeAborted, i.abort(ctx, info, "", nil, err)
	}
	if !apply {
		i.ui.Warning("Not applying patch.")
		return OutcomeDeclined, i.abort(ctx, info, "", nil, nil)
	}

	result, err = i.applier.Apply(ctx, patchFile, applier.Options{Reject: true})
	if err != nil {
		return OutcomeAborted, i.abort(ctx, info, patchFile, nil, err)
	}

	if result.Success {
		i.ui.Info("It seemed that the patch would not apply, but in fact it did.")
	} else {
		if len(result.RejectFiles) > 0 {
			i.ui.Warning("Reject files:\n  %s", strings.Join(result.RejectFiles, "\n  "))
		}
		choice, err := i.ui.Choose(resolvePrompt, []string{choiceResolved, choiceAbort})
		if err != nil {
			return OutcomeAborted, i.abort(ctx, info, patchFile, result.RejectFiles, err)
		}
		if choice == choiceAbort {
			return OutcomeAborted, i.abort(ctx, info, patchFile, result.RejectFiles, nil)
		}
	}

	if err := i.applier.Resolve(ctx); err != nil {
		return OutcomeAborted, err
	}
	i.ui.Success("Applied %s", req)
	return OutcomeApplied, nil
}

// abort undoes the interrupted git am and removes reject files, keeping cause first.
// A non-empty partialPatch was applied with git apply --reject and is undone too.
func (i *Importer) abort(ctx context.Context, info *worktree.StatusInfo, partialPatch string, rejects []string, cause error) error {
	err := i.applier.Abort(ctx)
	if partialPatch != "" {
		if rerr := i.applier.Restore(ctx, partialPatch, info.UntrackedFiles); rerr != nil {
			i.logger.Error("%v", rerr)
			if err == nil {
				err = rerr
			}
		}
	}
	for _, rej := range rejects {
		if rerr := os.Remove(filepath.Join(info.Root, rej)); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			i.logger.Error("failed to remove %s: %v", rej, rerr)
		}
	}
	if cause != nil {
		return cause
	}
	return err
}

func dirtyError(info *worktree.StatusInfo) error {
	if info.AmInProgress {
		return fmt.Errorf("%w: a git am session is in progress, run git am --abort first", ErrDirtyWorktree)
	}
	files := append(append([]string{}, info.StagedFiles...), info.ModifiedFiles...)
	return fmt.Errorf("%w: %s", ErrDirtyWorktree, strings.Join(files, ", "))
}

// Export writes the requested patch rewritten into target to output
func (i *Importer) Export(ctx context.Context, req Request, target patchfmt.Target, source patchfmt.Source, output string) (patchfmt.PatchText, error) {
	data, err := i.Load(ctx, req)
	if err != nil {
		return nil, err
	}
	rewritten, err := i.Convert(data, target, source)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return rewritten, nil
	}
	if err := os.WriteFile(output, rewritten.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", output, err)
	}
	i.ui.Success("Wrote %s patch with %s paths to %s", target.Header, target.Layout, output)
	return rewritten, nil
}
