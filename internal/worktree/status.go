// Package worktree inspects the target repository before a patch is applied.
package worktree

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// StatusReader reads the state of the repository a patch will be applied to
type StatusReader interface {
	// ReadStatus reads the current git status and returns parsed file information
	ReadStatus() (*StatusInfo, error)
}

// StatusInfo contains parsed git status information
type StatusInfo struct {
	// Root is the top level directory of the worktree
	Root string
	// StagedFiles have changes in the index
	StagedFiles []string
	// ModifiedFiles have unstaged changes to tracked content
	ModifiedFiles []string
	// UntrackedFiles are ignored by the clean check
	UntrackedFiles []string
	// AmInProgress is set when an earlier git am was interrupted
	AmInProgress bool
}

// IsClean reports whether a patch can be applied without touching local work
func (s *StatusInfo) IsClean() bool {
	return len(s.StagedFiles) == 0 && len(s.ModifiedFiles) == 0 && !s.AmInProgress
}

// GitStatusReader implements StatusReader using go-git
type GitStatusReader struct {
	repoPath string
}

// NewGitStatusReader creates a new StatusReader for the repository containing repoPath
func NewGitStatusReader(repoPath string) *GitStatusReader {
	if repoPath == "" {
		repoPath = "."
	}
	return &GitStatusReader{
		repoPath: repoPath,
	}
}

// ReadStatus implements StatusReader.ReadStatus
func (r *GitStatusReader) ReadStatus() (*StatusInfo, error) {
	repo, worktree, err := open(r.repoPath)
	if err != nil {
		return nil, err
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	info := parseStatus(status)
	info.Root = worktree.Filesystem.Root()
	info.AmInProgress = amInProgress(repo)
	return info, nil
}

// FindRoot returns the top level directory of the worktree containing path
func FindRoot(path string) (string, error) {
	_, worktree, err := open(path)
	if err != nil {
		return "", err
	}
	return worktree.Filesystem.Root(), nil
}

func open(path string) (*git.Repository, *git.Worktree, error) {
	// EnableDotGitCommonDir resolves HEAD inside linked worktrees.
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	return repo, worktree, nil
}

// parseStatus parses go-git status information
func parseStatus(status git.Status) *StatusInfo {
	info := &StatusInfo{
		StagedFiles:    []string{},
		ModifiedFiles:  []string{},
		UntrackedFiles: []string{},
	}

	for path, fileStatus := range status {
		if fileStatus.Staging == git.Untracked || fileStatus.Worktree == git.Untracked {
			info.UntrackedFiles = append(info.UntrackedFiles, path)
			continue
		}
		if fileStatus.Staging != git.Unmodified {
			info.StagedFiles = append(info.StagedFiles, path)
		}
		if fileStatus.Worktree != git.Unmodified {
			info.ModifiedFiles = append(info.ModifiedFiles, path)
		}
	}

	// status is a map
	sort.Strings(info.StagedFiles)
	sort.Strings(info.ModifiedFiles)
	sort.Strings(info.UntrackedFiles)
	return info
}

// amInProgress checks for the rebase-apply directory git am leaves behind
func amInProgress(repo *git.Repository) bool {
	storage, ok := repo.Storer.(*filesystem.Storage)
	if !ok {
		return false
	}
	_, err := os.Stat(filepath.Join(storage.Filesystem().Root(), "rebase-apply"))
	return err == nil
}
