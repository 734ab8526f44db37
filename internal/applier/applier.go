// Package applier applies a rewritten Git mailbox patch to a working tree
// with git am, falling back to git apply --reject on request.
package applier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/syou6162/git-patch-import/internal/executor"
	"github.com/syou6162/git-patch-import/internal/logger"
	"github.com/syou6162/git-patch-import/internal/patchfmt"
)

// Options controls how a patch is applied
type Options struct {
	// Reject applies the hunks that fit with git apply --reject and leaves
	// the rest in .rej files instead of running git am
	Reject bool
}

// Result describes the outcome of one application attempt
type Result struct {
	Success     bool
	RejectFiles []string
	// Output holds git's stderr when the attempt failed
	Output string
}

// Applier applies patch files to a repository
type Applier interface {
	Apply(ctx context.Context, patchFile string, opts Options) (*Result, error)
	// Resolve stages the working tree and continues the interrupted git am
	Resolve(ctx context.Context) error
	// Abort abandons the interrupted git am
	Abort(ctx context.Context) error
	// Restore undoes a partial git apply --reject of patchFile. Tracked files
	// go back to HEAD and files the patch created are removed unless listed
	// in keep.
	Restore(ctx context.Context, patchFile string, keep []string) error
}

// GitApplier applies patches by running git in RepoDir
type GitApplier struct {
	executor executor.CommandExecutor
	repoDir  string
	logger   *logger.Logger
}

// NewGitApplier creates a GitApplier for the repository at repoDir
func NewGitApplier(exec executor.CommandExecutor, repoDir string) *GitApplier {
	return &GitApplier{
		executor: exec,
		repoDir:  repoDir,
		logger:   logger.NewFromEnv(),
	}
}

// Apply implements Applier.Apply.
// A git failure is reported through Result; the returned error is reserved
// for problems that prevent an attempt from being judged at all.
func (a *GitApplier) Apply(ctx context.Context, patchFile string, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	args := []string{"am", "--ignore-whitespace", "--resolvemsg=", patchFile}
	if opts.Reject {
		args = []string{"apply", "--ignore-whitespace", "--reject", patchFile}
	}

	a.logger.Debug("Applying %s with git %s", patchFile, args[0])
	_, err := a.executor.ExecuteInDir(ctx, a.repoDir, "git", args...)
	if err == nil {
		return &Result{Success: true}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	result := &Result{Output: executor.StderrFromError(err)}
	if !opts.Reject {
		return result, nil
	}

	rejects, rerr := a.RejectFiles(patchFile)
	if rerr != nil {
		return nil, rerr
	}
	result.RejectFiles = rejects
	return result, nil
}

// Resolve implements Applier.Resolve
func (a *GitApplier) Resolve(ctx context.Context) error {
	if _, err := a.executor.ExecuteInDir(ctx, a.repoDir, "git", "add", "--update"); err != nil {
		return fmt.Errorf("failed to stage resolved files: %s", executor.StderrFromError(err))
	}
	if _, err := a.executor.ExecuteInDir(ctx, a.repoDir, "git", "am", "--resolved"); err != nil {
		return fmt.Errorf("failed to continue git am: %s", executor.StderrFromError(err))
	}
	return nil
}

// Abort implements Applier.Abort
func (a *GitApplier) Abort(ctx context.Context) error {
	if _, err := a.executor.ExecuteInDir(ctx, a.repoDir, "git", "am", "--abort"); err != nil {
		return fmt.Errorf("failed to abort git am: %s", executor.StderrFromError(err))
	}
	return nil
}

// Restore implements Applier.Restore.
// It assumes tracked files were clean before the patch was applied.
func (a *GitApplier) Restore(ctx context.Context, patchFile string, keep []string) error {
	content, err := os.ReadFile(patchFile)
	if err != nil {
		return fmt.Errorf("failed to read patch file: %w", err)
	}
	files, err := touchedFiles(content)
	if err != nil {
		return err
	}

	if _, err := a.executor.ExecuteInDir(ctx, a.repoDir, "git", "reset", "--hard", "--quiet", "HEAD"); err != nil {
		return fmt.Errorf("failed to reset working tree: %s", executor.StderrFromError(err))
	}

	for _, f := range files {
		if !f.created || slices.Contains(keep, f.path) {
			continue
		}
		a.logger.Debug("Removing %s created by the patch", f.path)
		if err := os.Remove(filepath.Join(a.repoDir, f.path)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", f.path, err)
		}
	}
	return nil
}

// RejectFiles lists the .rej files present for the files patchFile touches
func (a *GitApplier) RejectFiles(patchFile string) ([]string, error) {
	content, err := os.ReadFile(patchFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read patch file: %w", err)
	}

	paths, err := TouchedPaths(content)
	if err != nil {
		return nil, err
	}

	var rejects []string
	for _, p := range paths {
		rej := p + ".rej"
		if _, err := os.Stat(filepath.Join(a.repoDir, rej)); err == nil {
			rejects = append(rejects, rej)
		}
	}
	return rejects, nil
}

// TouchedPaths returns the repository paths a patch modifies, in patch order
func TouchedPaths(content []byte) ([]string, error) {
	files, err := touchedFiles(content)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.path)
	}
	return paths, nil
}

type touchedFile struct {
	path    string
	created bool
}

func touchedFiles(content []byte) ([]touchedFile, error) {
	files, _, err := gitdiff.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse patch: %w", err)
	}

	// Traditional headers under an hg introduction line keep their a/ b/ prefixes.
	stripPrefix := false
	if d, err := patchfmt.DetectDiffDialect(patchfmt.SplitLines(content)); err == nil && d == patchfmt.DiffMercurial {
		stripPrefix = true
	}

	seen := make(map[string]bool)
	var touched []touchedFile
	for _, f := range files {
		name := f.NewName
		if f.IsDelete || name == "" {
			name = f.OldName
		}
		if stripPrefix {
			name = trimSidePrefix(name)
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		touched = append(touched, touchedFile{path: name, created: f.IsNew})
	}
	return touched, nil
}

func trimSidePrefix(name string) string {
	for _, prefix := range []string{"a/", "b/"} {
		if strings.HasPrefix(name, prefix) {
			return name[len(prefix):]
		}
	}
	return name
}
