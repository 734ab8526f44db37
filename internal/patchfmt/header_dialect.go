package patchfmt

import (
	"regexp"
	"strings"
)

// headerPatterns holds the field patterns of every header dialect
type headerPatterns struct {
	banner   *regexp.Regexp
	user     *regexp.Regexp
	hgDate   *regexp.Regexp
	node     *regexp.Regexp
	parent   *regexp.Regexp
	from     *regexp.Regexp
	subject  *regexp.Regexp
	mailDate *regexp.Regexp
}

func newHeaderPatterns() headerPatterns {
	return headerPatterns{
		banner:   regexp.MustCompile(`^# HG changeset patch$`),
		user:     regexp.MustCompile(`^# User (.*)$`),
		hgDate:   regexp.MustCompile(`^# Date (\d+) (-?\d+)$`),
		node:     regexp.MustCompile(`^# Node ID ([0-9a-f]+)$`),
		parent:   regexp.MustCompile(`^# Parent +([0-9a-f]+)$`),
		from:     regexp.MustCompile(`^From: (.*)$`),
		subject:  regexp.MustCompile(`^Subject: (.*)$`),
		mailDate: regexp.MustCompile(`^Date: (.*)$`),
	}
}

// fixedLines returns the positional header lines of dialect, in order
func (p headerPatterns) fixedLines(dialect HeaderDialect) []*regexp.Regexp {
	switch dialect {
	case HeaderMercurialExport:
		return []*regexp.Regexp{p.banner, p.user, p.hgDate, p.node, p.parent}
	case HeaderMercurialPlain:
		return []*regexp.Regexp{p.banner, p.parent}
	case HeaderGitMailbox:
		return []*regexp.Regexp{p.from, p.subject, p.mailDate}
	default:
		return nil
	}
}

// HeaderDialectDetector classifies the metadata block at the top of a patch
type HeaderDialectDetector struct {
	patterns headerPatterns
}

// NewHeaderDialectDetector creates a header dialect detector
func NewHeaderDialectDetector() *HeaderDialectDetector {
	return &HeaderDialectDetector{patterns: newHeaderPatterns()}
}

var headerDetector = NewHeaderDialectDetector()

// DetectHeaderDialect classifies lines with the default detector
func DetectHeaderDialect(lines PatchText) (HeaderDialect, error) {
	return headerDetector.Detect(lines)
}

// Detect looks at the first one or two lines only
func (d *HeaderDialectDetector) Detect(lines PatchText) (HeaderDialect, error) {
	if len(lines) == 0 {
		return HeaderUnspecified, NewInvalidArgumentError("patch is empty")
	}

	first := lines[0]
	switch {
	case d.patterns.banner.MatchString(first):
		if len(lines) > 1 {
			if d.patterns.user.MatchString(lines[1]) {
				return HeaderMercurialExport, nil
			}
			if d.patterns.parent.MatchString(lines[1]) {
				return HeaderMercurialPlain, nil
			}
		}
	case d.patterns.from.MatchString(first):
		return HeaderGitMailbox, nil
	case strings.HasPrefix(first, "diff -"):
		return HeaderRawDiff, nil
	}

	return HeaderUnspecified, NewUnknownFormatError(AxisHeader, "first line `"+first+"` is not a known patch header")
}
