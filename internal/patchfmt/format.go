// Package patchfmt detects and rewrites the dialect of patch files.
//
// A patch is classified along three independent axes: the syntax of its
// diff-introduction lines (DiffDialect), the metadata block preceding the
// diff (HeaderDialect) and the repository layout of its embedded paths
// (PathLayout). Every operation is a pure function of its input lines.
package patchfmt

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
)

// PatchText is the ordered sequence of lines of a patch, without line terminators.
// Operations never modify a PatchText they are given.
type PatchText []string

// SplitLines splits raw patch bytes into lines. Both "\n" and "\r\n" terminators are accepted.
func SplitLines(data []byte) PatchText {
	if len(data) == 0 {
		return PatchText{}
	}
	text := strings.TrimSuffix(string(data), "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Bytes joins the lines with "\n" and terminates the last line
func (p PatchText) Bytes() []byte {
	var buf bytes.Buffer
	for _, line := range p {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// String returns the patch as text
func (p PatchText) String() string {
	return string(p.Bytes())
}

func (p PatchText) clone() PatchText {
	if p == nil {
		return PatchText{}
	}
	return slices.Clone(p)
}

// DiffDialect is the syntax of the lines introducing a per-file hunk
type DiffDialect int

const (
	// DiffUnspecified asks the caller to detect the dialect
	DiffUnspecified DiffDialect = iota
	// DiffMercurial is "diff -r <rev> -r <rev> <path>"
	DiffMercurial
	// DiffGit is "diff --git a/<path> b/<path>"
	DiffGit
)

// String returns the user-facing token of the dialect
func (d DiffDialect) String() string {
	switch d {
	case DiffMercurial:
		return "hg"
	case DiffGit:
		return "git"
	default:
		return "unspecified"
	}
}

// ParseDiffDialect parses a diff dialect token ("hg" or "git").
// An empty token yields DiffUnspecified.
func ParseDiffDialect(token string) (DiffDialect, error) {
	switch token {
	case "":
		return DiffUnspecified, nil
	case "hg":
		return DiffMercurial, nil
	case "git":
		return DiffGit, nil
	}
	return DiffUnspecified, NewInvalidArgumentError(fmt.Sprintf("unknown diff format %q (expected hg or git)", token))
}

// PathLayout is the repository layout embedded paths are written for
type PathLayout int

const (
	// LayoutUnspecified asks the caller to detect the layout
	LayoutUnspecified PathLayout = iota
	// LayoutLegacy paths start at the repository root (sage/, doc/, setup.py, ...)
	LayoutLegacy
	// LayoutModern paths are prefixed with src/
	LayoutModern
)

// String returns the user-facing token of the layout
func (l PathLayout) String() string {
	switch l {
	case LayoutLegacy:
		return "old"
	case LayoutModern:
		return "new"
	default:
		return "unspecified"
	}
}

// ParsePathLayout parses a path layout token ("old" or "new").
// An empty token yields LayoutUnspecified.
func ParsePathLayout(token string) (PathLayout, error) {
	switch token {
	case "":
		return LayoutUnspecified, nil
	case "old":
		return LayoutLegacy, nil
	case "new":
		return LayoutModern, nil
	}
	return LayoutUnspecified, NewInvalidArgumentError(fmt.Sprintf("unknown path format %q (expected old or new)", token))
}

// HeaderDialect is the convention of the metadata block preceding the diff
type HeaderDialect int

const (
	// HeaderUnspecified asks the caller to detect the dialect
	HeaderUnspecified HeaderDialect = iota
	// HeaderMercurialExport is the full "hg export" changeset header
	HeaderMercurialExport
	// HeaderMercurialPlain is a changeset banner with only a parent
	HeaderMercurialPlain
	// HeaderGitMailbox is a From:/Subject:/Date: mail header
	HeaderGitMailbox
	// HeaderRawDiff carries no metadata
	HeaderRawDiff
)

// String returns the user-facing token of the dialect
func (h HeaderDialect) String() string {
	switch h {
	case HeaderMercurialExport:
		return "hg-export"
	case HeaderMercurialPlain:
		return "hg"
	case HeaderGitMailbox:
		return "git"
	case HeaderRawDiff:
		return "diff"
	default:
		return "unspecified"
	}
}

// ParseHeaderDialect parses a header dialect token ("hg", "hg-export", "git" or "diff").
// An empty token yields HeaderUnspecified.
func ParseHeaderDialect(token string) (HeaderDialect, error) {
	switch token {
	case "":
		return HeaderUnspecified, nil
	case "hg":
		return HeaderMercurialPlain, nil
	case "hg-export":
		return HeaderMercurialExport, nil
	case "git":
		return HeaderGitMailbox, nil
	case "diff":
		return HeaderRawDiff, nil
	}
	return HeaderUnspecified, NewInvalidArgumentError(fmt.Sprintf("unknown header format %q (expected hg, hg-export, git or diff)", token))
}
